// ABOUTME: Tests for the correction flow model
// ABOUTME: Drives the model with key messages against an in-memory spreadsheet
package tui

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/session"
	"github.com/harperreed/contatos/sheets"
)

const members = "Nome,Data de Nascimento,E-mail,Celular\n" +
	"Maria Silva,12/05/1990,maria@x.com,+55 11 99999-0000\n" +
	"José Souza,12/05/1990,,\n" +
	"Ana Lima,01/01/1980,ana@x.com,\n"

// incomplete has no phone column and two rows without a usable birth date.
const incomplete = "Nome,Data de Nascimento,E-mail\n" +
	"Maria Silva,12/05/1990,maria@x.com\n" +
	"Sem Data,,\n" +
	"Data Ruim,31/02/1990,\n"

func setupModel(t *testing.T) (Model, *sheets.MemoryService) {
	t.Helper()
	return setupModelWith(t, members)
}

func setupModelWith(t *testing.T, table string) (Model, *sheets.MemoryService) {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })

	svc := sheets.NewMemoryService()
	svc.AddDocument("doc1", "Correções", sheets.Worksheet{ID: 0, Title: "Respostas", Index: 0})

	logger := zerolog.Nop()
	sess := session.New(session.Options{Service: svc, Journal: database, Logger: &logger})

	path := filepath.Join(t.TempDir(), "filiados.csv")
	require.NoError(t, os.WriteFile(path, []byte(table), 0600))
	_, err = sess.Load(context.Background(), path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.SheetURL = "https://docs.google.com/spreadsheets/d/doc1/edit#gid=0"

	return NewModel(context.Background(), sess, cfg), svc
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	right = tea.KeyMsg{Type: tea.KeyRight}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func TestSingleMatchGoesToForm(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, typeText("01/01/1980"), enter)
	assert.Equal(t, ViewForm, m.viewMode)
	assert.Equal(t, "Ana Lima", m.member.FullName)
	assert.Contains(t, m.View(), "ANA LIMA")
}

func TestHomonymsGoToPick(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, typeText("1990-05-12"), enter)
	require.Equal(t, ViewPick, m.viewMode)
	assert.Len(t, m.matches, 2)
	view := m.View()
	assert.Contains(t, view, "Maria Silva")
	assert.Contains(t, view, "José Souza")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, enter)
	assert.Equal(t, ViewForm, m.viewMode)
	assert.Equal(t, "José Souza", m.member.FullName)

	m, _ = press(t, m, esc)
	assert.Equal(t, ViewPick, m.viewMode)
}

func TestLookupErrorsStayOnDate(t *testing.T) {
	m, _ := setupModel(t)

	m, _ = press(t, m, typeText("31/02/1990"), enter)
	assert.Equal(t, ViewDate, m.viewMode)
	require.Error(t, m.err)

	m, _ = setupModel(t)
	m, _ = press(t, m, typeText("02/02/2002"), enter)
	assert.Equal(t, ViewDate, m.viewMode)
	assert.ErrorIs(t, m.err, session.ErrNoMatch)
	assert.Contains(t, m.View(), "no member found")
}

func TestFormValidation(t *testing.T) {
	m, _ := setupModel(t)

	// correct the phone without giving a new one
	m, _ = press(t, m, typeText("01/01/1980"), enter, space, enter)
	assert.Equal(t, ViewForm, m.viewMode)
	require.Error(t, m.err)
	assert.Contains(t, m.err.Error(), "new phone is required")
}

func TestSubmitFlow(t *testing.T) {
	m, svc := setupModel(t)

	m, _ = press(t, m, typeText("01/01/1980"), enter)
	m, _ = press(t, m, tab, tab, space, tab, typeText("ana.lima@x.com"), tab, right)
	assert.True(t, m.correctEmail)
	assert.False(t, m.correctPhone)
	assert.Equal(t, "Agrário", m.request().Setorial)

	m, _ = press(t, m, enter)
	require.Equal(t, ViewConfirm, m.viewMode)
	assert.Contains(t, m.View(), "ana.lima@x.com")

	m, cmd := press(t, m, enter)
	require.NotNil(t, cmd)
	assert.True(t, m.submitting)

	next, _ := m.Update(cmd())
	m = next.(Model)
	assert.Equal(t, ViewResult, m.viewMode)
	require.NoError(t, m.submitErr)
	assert.Contains(t, m.View(), "Respostas")

	rows := svc.Rows("doc1", 0)
	require.Len(t, rows, 2)
	assert.Equal(t, "Ana Lima", rows[1][2])
	assert.Equal(t, sheets.FlagNo, rows[1][5])
	assert.Equal(t, "", rows[1][6])
	assert.Equal(t, sheets.FlagYes, rows[1][7])
	assert.Equal(t, "ana.lima@x.com", rows[1][8])
	assert.Equal(t, "Agrário", rows[1][9])

	m, _ = press(t, m, enter)
	assert.Equal(t, ViewDate, m.viewMode)
	assert.Equal(t, "", m.dateInput.Value())
}

func TestFailedSubmitCanBeRetried(t *testing.T) {
	m, svc := setupModel(t)
	svc.Fail(sheets.OpAppend, errors.New("unavailable"))

	m, _ = press(t, m, typeText("01/01/1980"), enter, enter)
	m, cmd := press(t, m, enter)
	next, _ := m.Update(cmd())
	m = next.(Model)
	require.Error(t, m.submitErr)
	assert.True(t, strings.Contains(m.View(), "para reenvio"))

	svc.Fail(sheets.OpAppend, nil)
	m, cmd = press(t, m, typeText("r"))
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	m = next.(Model)
	require.NoError(t, m.submitErr)
	assert.Equal(t, ViewResult, m.viewMode)
	assert.Len(t, svc.Rows("doc1", 0), 2)
}

func TestTableWarningsAreShown(t *testing.T) {
	m, _ := setupModelWith(t, incomplete)

	view := m.View()
	assert.Contains(t, view, "2 de 3 linhas")

	m, _ = press(t, m, typeText("12/05/1990"), enter)
	require.Equal(t, ViewForm, m.viewMode)
	assert.Contains(t, m.View(), "Colunas ausentes na planilha: Celular/WhatsApp")
}

func TestNoWarningsForCompleteTable(t *testing.T) {
	m, _ := setupModel(t)

	assert.NotContains(t, m.View(), "linhas")
	m, _ = press(t, m, typeText("1990-05-12"), enter)
	require.Equal(t, ViewPick, m.viewMode)
	assert.NotContains(t, m.View(), "Colunas ausentes")
}
