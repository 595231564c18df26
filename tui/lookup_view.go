package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/contatos/session"
)

func (m Model) renderDateView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("ATUALIZAÇÃO DE CONTATO"))
	s.WriteString("\n\n")

	st := m.sess.Status()
	if !st.Loaded {
		s.WriteString(errorStyle.Render("Nenhuma planilha de filiados carregada."))
		if st.LastError != nil {
			s.WriteString("\n" + errorStyle.Render(st.LastError.Error()))
		}
		s.WriteString("\n\n")
	}
	if st.DateWarning != nil {
		s.WriteString(noticeStyle.Render(st.DateWarning.Notice()))
		s.WriteString("\n\n")
	}

	s.WriteString("Data de nascimento: ")
	s.WriteString(m.dateInput.View())
	s.WriteString("\n")

	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("Enter: Buscar • Esc: Sair"))
	return s.String()
}

func (m Model) handleDateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "enter":
		return m.lookup()
	}

	var cmd tea.Cmd
	m.dateInput, cmd = m.dateInput.Update(msg)
	return m, cmd
}

func (m Model) lookup() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.dateInput.Value())
	if text == "" {
		return m, nil
	}

	found, err := m.sess.LookupText(text)
	if err != nil {
		m.err = err
		return m, nil
	}
	if len(found) == 0 {
		m.err = fmt.Errorf("%w with birth date %s", session.ErrNoMatch, text)
		return m, nil
	}

	m.err = nil
	m.matches = found
	m.selectedRow = 0
	if len(found) == 1 {
		return m.selectMember(0)
	}
	m.viewMode = ViewPick
	return m, nil
}

func (m Model) renderPickView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(fmt.Sprintf("%d FILIADOS COM ESTA DATA", len(m.matches))))
	s.WriteString("\n\n")

	for i, member := range m.matches {
		line := fmt.Sprintf("%-32s %s", member.DisplayName(), member.BirthDate.Display())
		if i == m.selectedRow {
			s.WriteString(selectedStyle.Render("> " + line))
		} else {
			s.WriteString("  " + line)
		}
		s.WriteString("\n")
	}
	s.WriteString(m.missingColumnsNotice())

	s.WriteString(helpStyle.Render("↑/↓: Navegar • Enter: Selecionar • Esc: Voltar • q: Sair"))
	return s.String()
}

func (m Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.viewMode = ViewDate
		return m, nil
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.matches)-1 {
			m.selectedRow++
		}
	case "enter":
		return m.selectMember(m.selectedRow)
	}
	return m, nil
}

// missingColumnsNotice names optional columns the member table lacks.
func (m Model) missingColumnsNotice() string {
	labels := m.sess.Status().MissingLabels()
	if len(labels) == 0 {
		return ""
	}
	return "\n" + noticeStyle.Render("Colunas ausentes na planilha: "+strings.Join(labels, ", ")) + "\n"
}

func (m Model) selectMember(i int) (tea.Model, tea.Cmd) {
	m.member = m.matches[i]
	m.initFormInputs()
	m.viewMode = ViewForm
	return m, nil
}
