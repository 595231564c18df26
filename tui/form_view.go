package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/contatos/models"
)

// Form fields in focus order.
const (
	fieldCorrectPhone = iota
	fieldNewPhone
	fieldCorrectEmail
	fieldNewEmail
	fieldSetorial
	fieldCount
)

const (
	inputPhone = iota
	inputEmail
)

func (m *Model) initFormInputs() {
	inputs := make([]textinput.Model, 2)

	inputs[inputPhone] = textinput.New()
	inputs[inputPhone].Placeholder = "Novo celular/WhatsApp"
	inputs[inputPhone].CharLimit = 40

	inputs[inputEmail] = textinput.New()
	inputs[inputEmail].Placeholder = "Novo e-mail"
	inputs[inputEmail].CharLimit = 120

	m.formInputs = inputs
	m.correctPhone = false
	m.correctEmail = false
	m.setorialIndex = 0
	m.focusIndex = fieldCorrectPhone
	m.err = nil
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		m.formInputs[i].Blur()
	}
	switch m.focusIndex {
	case fieldNewPhone:
		m.formInputs[inputPhone].Focus()
	case fieldNewEmail:
		m.formInputs[inputEmail].Focus()
	}
}

// request collects the form into a correction request.
func (m Model) request() models.CorrectionRequest {
	req := models.CorrectionRequest{
		CorrectPhone: m.correctPhone,
		NewPhone:     m.formInputs[inputPhone].Value(),
		CorrectEmail: m.correctEmail,
		NewEmail:     m.formInputs[inputEmail].Value(),
	}
	if len(m.cfg.Setoriais) > 0 {
		req.Setorial = m.cfg.Setoriais[m.setorialIndex]
	}
	return req
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func (m Model) renderFormView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(strings.ToUpper(m.member.DisplayName())))
	s.WriteString("\n\n")

	s.WriteString(labelStyle.Render("Data de nascimento:") + m.member.BirthDate.Display() + "\n")
	s.WriteString(labelStyle.Render("E-mail atual:") + orDash(m.member.Email) + "\n")
	s.WriteString(labelStyle.Render("Celular atual:") + orDash(m.member.Phone) + "\n")
	s.WriteString(m.missingColumnsNotice())
	s.WriteString("\n")

	rows := []string{
		checkbox(m.correctPhone) + " Corrigir telefone/WhatsApp",
		"    " + m.formInputs[inputPhone].View(),
		checkbox(m.correctEmail) + " Corrigir e-mail",
		"    " + m.formInputs[inputEmail].View(),
		"Setorial: " + m.renderSetoriais(),
	}
	for i, row := range rows {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(row)
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("Tab: Próximo campo • Espaço: Marcar • ←/→: Setorial • Enter: Revisar • Esc: Voltar"))
	return s.String()
}

func (m Model) renderSetoriais() string {
	parts := make([]string, len(m.cfg.Setoriais))
	for i, name := range m.cfg.Setoriais {
		if i == m.setorialIndex {
			parts[i] = selectedStyle.Render(" " + name + " ")
		} else {
			parts[i] = " " + name + " "
		}
	}
	return strings.Join(parts, " ")
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if len(m.matches) > 1 {
			m.viewMode = ViewPick
		} else {
			m.viewMode = ViewDate
		}
		return m, nil
	case "tab", "down":
		m.focusIndex = (m.focusIndex + 1) % fieldCount
		m.updateFormFocus()
		return m, nil
	case "shift+tab", "up":
		m.focusIndex = (m.focusIndex + fieldCount - 1) % fieldCount
		m.updateFormFocus()
		return m, nil
	case "enter":
		if err := m.request().Validate(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.viewMode = ViewConfirm
		return m, nil
	}

	switch m.focusIndex {
	case fieldCorrectPhone, fieldCorrectEmail:
		if s := msg.String(); s == " " || s == "space" || s == "x" {
			if m.focusIndex == fieldCorrectPhone {
				m.correctPhone = !m.correctPhone
			} else {
				m.correctEmail = !m.correctEmail
			}
		}
		return m, nil
	case fieldSetorial:
		n := len(m.cfg.Setoriais)
		if n == 0 {
			return m, nil
		}
		switch msg.String() {
		case "left", "h":
			m.setorialIndex = (m.setorialIndex + n - 1) % n
		case "right", "l", " ", "space":
			m.setorialIndex = (m.setorialIndex + 1) % n
		}
		return m, nil
	}

	idx := inputPhone
	if m.focusIndex == fieldNewEmail {
		idx = inputEmail
	}
	var cmd tea.Cmd
	m.formInputs[idx], cmd = m.formInputs[idx].Update(msg)
	return m, cmd
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
