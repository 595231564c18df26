package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/session"
	"github.com/harperreed/contatos/sheets"
)

// submitDoneMsg is sent when a submission or retry completes.
type submitDoneMsg struct {
	result *session.Result
	err    error
}

func (m Model) submitCmd(member models.Member, req models.CorrectionRequest) tea.Cmd {
	ctx, sess, url := m.ctx, m.sess, m.cfg.SheetURL
	return func() tea.Msg {
		res, err := sess.Submit(ctx, url, member, req)
		return submitDoneMsg{result: res, err: err}
	}
}

func (m Model) retryCmd(id uuid.UUID) tea.Cmd {
	ctx, sess := m.ctx, m.sess
	return func() tea.Msg {
		res, err := sess.Retry(ctx, id)
		return submitDoneMsg{result: res, err: err}
	}
}

func yesNo(b bool) string {
	if b {
		return sheets.FlagYes
	}
	return sheets.FlagNo
}

func (m Model) renderConfirmView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("CONFIRMAR SOLICITAÇÃO"))
	s.WriteString("\n\n")

	req := m.request()
	s.WriteString(labelStyle.Render("Filiado:") + m.member.DisplayName() + "\n")
	s.WriteString(labelStyle.Render("Data de nascimento:") + m.member.BirthDate.Display() + "\n")
	s.WriteString(labelStyle.Render("Corrigir telefone:") + yesNo(req.CorrectPhone))
	if req.CorrectPhone {
		s.WriteString(" → " + strings.TrimSpace(req.NewPhone))
	}
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Corrigir e-mail:") + yesNo(req.CorrectEmail))
	if req.CorrectEmail {
		s.WriteString(" → " + strings.TrimSpace(req.NewEmail))
	}
	s.WriteString("\n")
	s.WriteString(labelStyle.Render("Setorial:") + req.Setorial + "\n")

	if m.submitting {
		s.WriteString("\n" + noticeStyle.Render("Enviando...") + "\n")
		return s.String()
	}

	s.WriteString(helpStyle.Render("y/Enter: Enviar • n/Esc: Editar"))
	return s.String()
}

func (m Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.submitting {
		return m, nil
	}

	switch msg.String() {
	case "y", "enter":
		m.submitting = true
		return m, m.submitCmd(m.member, m.request())
	case "n", "esc":
		m.viewMode = ViewForm
		return m, nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

// failedID returns the journal id of a failed submission, if any.
func (m Model) failedID() uuid.UUID {
	if m.submitErr == nil || m.result == nil {
		return uuid.Nil
	}
	return m.result.SubmissionID
}

func (m Model) renderResultView() string {
	var s strings.Builder

	if m.submitErr != nil {
		s.WriteString(titleStyle.Render("FALHA NO ENVIO"))
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render(m.submitErr.Error()))
		s.WriteString("\n")
		if id := m.failedID(); id != uuid.Nil {
			s.WriteString("\n" + noticeStyle.Render("Solicitação guardada como "+id.String()+" para reenvio.") + "\n")
			s.WriteString(helpStyle.Render("r: Reenviar • Enter: Nova busca • q: Sair"))
			return s.String()
		}
		s.WriteString(helpStyle.Render("Enter: Nova busca • q: Sair"))
		return s.String()
	}

	s.WriteString(titleStyle.Render("SOLICITAÇÃO REGISTRADA"))
	s.WriteString("\n\n")
	if m.result != nil {
		s.WriteString(successStyle.Render("✓ Enviado para "+m.result.Target.DocumentTitle+" / "+m.result.Target.Worksheet.Title) + "\n")
		if notice := m.result.Target.Notice(); notice != "" {
			s.WriteString(noticeStyle.Render(notice) + "\n")
		}
		if m.result.SubmissionID != uuid.Nil {
			s.WriteString("Protocolo: " + m.result.SubmissionID.String() + "\n")
		}
	}
	s.WriteString(helpStyle.Render("Enter: Nova busca • q: Sair"))
	return s.String()
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "enter":
		fresh := m.reset()
		return fresh, fresh.Init()
	case "r":
		if id := m.failedID(); id != uuid.Nil {
			m.viewMode = ViewConfirm
			m.submitting = true
			return m, m.retryCmd(id)
		}
	}
	return m, nil
}
