package session

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/sheets"
)

const sheetURL = "https://docs.google.com/spreadsheets/d/doc1/edit#gid=42"

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	require.NoError(t, db.InitSchema(database))
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func writeMembers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "filiados.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func newTestSession(t *testing.T, journal *sql.DB) (*Session, *sheets.MemoryService) {
	t.Helper()
	svc := sheets.NewMemoryService()
	svc.AddDocument("doc1", "Correções", sheets.Worksheet{ID: 42, Title: "Respostas", Index: 0})

	logger := zerolog.Nop()
	s := New(Options{
		Service: svc,
		Journal: journal,
		Logger:  &logger,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local) },
	})
	return s, svc
}

var maria = models.Member{
	BirthDate: models.Date{Year: 1990, Month: time.May, Day: 12},
	FullName:  "Maria Silva",
	Email:     "maria@x.com",
}

var request = models.CorrectionRequest{CorrectPhone: true, NewPhone: "+55 11 90000-0000", Setorial: "Cultura"}

func TestLookupBeforeLoad(t *testing.T) {
	s, _ := newTestSession(t, nil)

	_, err := s.Lookup(maria.BirthDate)
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.False(t, s.Status().Loaded)
	assert.NotEmpty(t, s.Status().SessionID)
}

func TestLoadAndLookup(t *testing.T) {
	s, _ := newTestSession(t, nil)
	path := writeMembers(t, "Nome;Data Nascimento;E-mail\nMaria Silva;12/05/1990;maria@x.com\nJoão;31/02/1990;\n")

	loaded, err := s.Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Report.InvalidDates)

	found, err := s.LookupText("1990-05-12")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Maria Silva", found[0].FullName)

	st := s.Status()
	assert.True(t, st.Loaded)
	assert.Equal(t, 2, st.Rows)
	assert.Equal(t, 1, st.Indexed)
	assert.Equal(t, "Data Nascimento", st.Columns[roster.FieldBirthDate])
	assert.Equal(t, []roster.Field{roster.FieldPhone}, st.MissingOptional)
}

func TestFailedReloadKeepsPreviousIndex(t *testing.T) {
	s, _ := newTestSession(t, nil)
	good := writeMembers(t, "nome,nascimento\nMaria Silva,12/05/1990\n")
	bad := writeMembers(t, "nome,email\nMaria Silva,maria@x.com\n")

	_, err := s.Load(context.Background(), good)
	require.NoError(t, err)

	_, err = s.Load(context.Background(), bad)
	require.ErrorIs(t, err, roster.ErrSchema)

	found, err := s.Lookup(maria.BirthDate)
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Error(t, s.Status().LastError)
}

func TestSubmitJournalsAndAppends(t *testing.T) {
	journal := setupTestDB(t)
	s, svc := newTestSession(t, journal)

	res, err := s.Submit(context.Background(), sheetURL, maria, request)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, res.SubmissionID)
	assert.Equal(t, "Respostas", res.Target.Worksheet.Title)
	assert.Equal(t, "2024-01-02 03:04:05", res.Row[models.ColTimestamp])

	rows := svc.Rows("doc1", 42)
	require.Len(t, rows, 2)
	assert.Equal(t, sheets.Header.Values(), rows[0])

	sub, err := db.GetSubmission(journal, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSent, sub.Status)
	assert.Equal(t, res.Row, sub.Row)
}

func TestSubmitValidationFailsBeforeRemoteCalls(t *testing.T) {
	s, svc := newTestSession(t, setupTestDB(t))

	_, err := s.Submit(context.Background(), sheetURL, maria, models.CorrectionRequest{})
	var se *sheets.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, sheets.StageValidate, se.Stage)
	assert.Equal(t, 0, svc.Calls(sheets.OpOpen))
}

func TestFailedSubmitCanBeRetried(t *testing.T) {
	journal := setupTestDB(t)
	s, svc := newTestSession(t, journal)
	svc.Fail(sheets.OpAppend, errors.New("quota exceeded"))

	res, err := s.Submit(context.Background(), sheetURL, maria, request)
	require.ErrorIs(t, err, sheets.ErrSubmission)
	require.NotNil(t, res)

	pending, err := s.Pending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, db.StatusFailed, pending[0].Status)

	svc.Fail(sheets.OpAppend, nil)
	retried, err := s.Retry(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, res.Row, retried.Row)

	rows := svc.Rows("doc1", 42)
	require.Len(t, rows, 2)
	assert.Equal(t, res.Row.Values(), rows[1])

	_, err = s.Retry(context.Background(), res.SubmissionID)
	assert.ErrorIs(t, err, ErrAlreadySent)

	pending, err = s.Pending(10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRetryRefusesUnconfirmedSubmission(t *testing.T) {
	journal := setupTestDB(t)
	s, svc := newTestSession(t, journal)
	svc.Fail(sheets.OpAppend, errors.New("timeout"))

	res, err := s.Submit(context.Background(), sheetURL, maria, request)
	require.Error(t, err)
	svc.Fail(sheets.OpAppend, nil)

	// The append may have landed but the outcome was never recorded.
	_, err = journal.Exec(`UPDATE submissions SET status = 'pending' WHERE id = ?`, res.SubmissionID.String())
	require.NoError(t, err)

	_, err = s.Retry(context.Background(), res.SubmissionID)
	assert.ErrorIs(t, err, ErrUnconfirmed)
	assert.Equal(t, 1, svc.Calls(sheets.OpAppend))

	_, err = s.ForceRetry(context.Background(), res.SubmissionID)
	require.NoError(t, err)
	assert.Len(t, svc.Rows("doc1", 42), 2)

	sub, err := db.GetSubmission(journal, res.SubmissionID)
	require.NoError(t, err)
	assert.Equal(t, db.StatusSent, sub.Status)
	assert.Equal(t, 2, sub.Attempts)
}

func TestConcurrentRetriesAppendOnce(t *testing.T) {
	journal := setupTestDB(t)
	s, svc := newTestSession(t, journal)
	svc.Fail(sheets.OpAppend, errors.New("quota exceeded"))

	res, err := s.Submit(context.Background(), sheetURL, maria, request)
	require.Error(t, err)
	svc.Fail(sheets.OpAppend, nil)

	const callers = 4
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		go func() {
			_, err := s.Retry(context.Background(), res.SubmissionID)
			errs <- err
		}()
	}

	succeeded := 0
	for i := 0; i < callers; i++ {
		err := <-errs
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrUnconfirmed) || errors.Is(err, ErrAlreadySent), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, succeeded)

	// Header plus exactly one submission row.
	assert.Len(t, svc.Rows("doc1", 42), 2)
}

func TestRetryErrors(t *testing.T) {
	s, _ := newTestSession(t, nil)
	_, err := s.Retry(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoJournal)

	s, _ = newTestSession(t, setupTestDB(t))
	_, err = s.Retry(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
}

func TestSubmitUnresolvableSheet(t *testing.T) {
	s, svc := newTestSession(t, setupTestDB(t))

	_, err := s.Submit(context.Background(), "https://example.com/nothing", maria, request)
	assert.ErrorIs(t, err, sheets.ErrSheetResolution)
	assert.Equal(t, 0, svc.Calls(sheets.OpAppend))

	subs, err := s.Submissions("", 10)
	require.NoError(t, err)
	assert.Empty(t, subs, "nothing is journaled without a target")
}

func TestLoadIsJournaled(t *testing.T) {
	journal := setupTestDB(t)
	s, _ := newTestSession(t, journal)
	path := writeMembers(t, "nome,nascimento\nMaria Silva,12/05/1990\n")

	_, err := s.Load(context.Background(), path)
	require.NoError(t, err)

	last, err := db.LastRosterLoad(journal)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, path, last.Source)
	assert.Equal(t, 1, last.IndexedCount)
}

func TestSelect(t *testing.T) {
	s, _ := newTestSession(t, nil)
	path := writeMembers(t, "nome,nascimento\nMaria Silva,12/05/1990\nJosé Souza,12/05/1990\nAna,01/01/1980\n")
	_, err := s.Load(context.Background(), path)
	require.NoError(t, err)

	m, err := s.Select("01/01/1980", "")
	require.NoError(t, err)
	assert.Equal(t, "Ana", m.FullName)

	_, err = s.Select("12/05/1990", "")
	assert.ErrorIs(t, err, ErrAmbiguous)

	m, err = s.Select("12/05/1990", "jose souza")
	require.NoError(t, err)
	assert.Equal(t, "José Souza", m.FullName)

	_, err = s.Select("02/02/2000", "")
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = s.Select("not a date", "")
	assert.ErrorIs(t, err, roster.ErrInvalidDate)
}
