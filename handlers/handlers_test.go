// ABOUTME: Tests for MCP tool, resource and prompt handlers
// ABOUTME: Runs against an in-memory spreadsheet and an in-memory SQLite journal
package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/modelcontextprotocol/go-sdk/mcp"
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

type fixture struct {
	sess *session.Session
	svc  *sheets.MemoryService
	cfg  *config.Config
}

func setup(t *testing.T) fixture {
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
	require.NoError(t, os.WriteFile(path, []byte(members), 0600))
	_, err = sess.Load(context.Background(), path)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.SheetURL = "https://docs.google.com/spreadsheets/d/doc1/edit?gid=0"

	return fixture{sess: sess, svc: svc, cfg: cfg}
}

func TestLookupMember(t *testing.T) {
	f := setup(t)
	h := NewMemberHandlers(f.sess, f.cfg)

	_, out, err := h.LookupMember(context.Background(), nil, LookupMemberInput{BirthDate: "1990-05-12"})
	require.NoError(t, err)
	assert.Equal(t, "12/05/1990", out.BirthDate)
	require.Len(t, out.Members, 2)
	assert.Equal(t, "Maria Silva", out.Members[0].Name)
	assert.Equal(t, "José Souza", out.Members[1].Name)
	assert.Empty(t, out.MissingFields)

	_, _, err = h.LookupMember(context.Background(), nil, LookupMemberInput{})
	assert.Error(t, err)

	_, _, err = h.LookupMember(context.Background(), nil, LookupMemberInput{BirthDate: "31/02/1990"})
	assert.Error(t, err)
}

func TestSubmitCorrection(t *testing.T) {
	f := setup(t)
	h := NewMemberHandlers(f.sess, f.cfg)

	_, out, err := h.SubmitCorrection(context.Background(), nil, SubmitCorrectionInput{
		BirthDate:    "01/01/1980",
		CorrectEmail: true,
		NewEmail:     "ana.lima@x.com",
		NewPhone:     "ignored",
		Setorial:     "Cultura",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, out.SubmissionID)
	assert.Equal(t, "Respostas", out.Worksheet)
	assert.Equal(t, "Ana Lima", out.Row["nome_do_filiado"])
	assert.Equal(t, "ana.lima@x.com", out.Row["novo_email"])
	assert.Equal(t, "", out.Row["novo_celular_whatsapp"])
	assert.Equal(t, "Não", out.Row["corrigir_telefone_whatsapp"])

	rows := f.svc.Rows("doc1", 0)
	assert.Len(t, rows, 2)
}

func TestSubmitCorrectionErrors(t *testing.T) {
	f := setup(t)
	h := NewMemberHandlers(f.sess, f.cfg)
	ctx := context.Background()

	_, _, err := h.SubmitCorrection(ctx, nil, SubmitCorrectionInput{BirthDate: "12/05/1990", Setorial: "Cultura"})
	assert.ErrorIs(t, err, session.ErrAmbiguous)

	_, _, err = h.SubmitCorrection(ctx, nil, SubmitCorrectionInput{BirthDate: "01/01/1980", Setorial: "Esportes"})
	assert.ErrorContains(t, err, "unknown setorial")

	_, _, err = h.SubmitCorrection(ctx, nil, SubmitCorrectionInput{BirthDate: "01/01/1980"})
	assert.ErrorIs(t, err, sheets.ErrSubmission)

	f.svc.Fail(sheets.OpAppend, errors.New("unavailable"))
	_, _, err = h.SubmitCorrection(ctx, nil, SubmitCorrectionInput{BirthDate: "12/05/1990", Name: "Maria Silva", Setorial: "Agrário"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "for retry")
}

func TestListAndRetrySubmissions(t *testing.T) {
	f := setup(t)
	mh := NewMemberHandlers(f.sess, f.cfg)
	subs := NewSubmissionHandlers(f.sess)
	ctx := context.Background()

	f.svc.Fail(sheets.OpAppend, errors.New("unavailable"))
	_, _, err := mh.SubmitCorrection(ctx, nil, SubmitCorrectionInput{BirthDate: "01/01/1980", Setorial: "Cultura"})
	require.Error(t, err)

	_, list, err := subs.ListSubmissions(ctx, nil, ListSubmissionsInput{Status: db.StatusFailed})
	require.NoError(t, err)
	require.Len(t, list.Submissions, 1)
	failed := list.Submissions[0]
	assert.Equal(t, "Ana Lima", failed.Member)
	assert.Contains(t, failed.ErrorMessage, "unavailable")

	f.svc.Fail(sheets.OpAppend, nil)
	_, out, err := subs.RetrySubmission(ctx, nil, RetrySubmissionInput{ID: failed.ID})
	require.NoError(t, err)
	assert.Equal(t, failed.ID, out.SubmissionID)

	_, list, err = subs.ListSubmissions(ctx, nil, ListSubmissionsInput{Status: db.StatusSent})
	require.NoError(t, err)
	assert.Len(t, list.Submissions, 1)

	_, _, err = subs.ListSubmissions(ctx, nil, ListSubmissionsInput{Status: "bogus"})
	assert.Error(t, err)

	_, _, err = subs.RetrySubmission(ctx, nil, RetrySubmissionInput{ID: "not-a-uuid"})
	assert.Error(t, err)
}

func TestResolveTarget(t *testing.T) {
	f := setup(t)
	h := NewMemberHandlers(f.sess, f.cfg)

	_, out, err := h.ResolveTarget(context.Background(), nil, ResolveTargetInput{
		SheetURL: "https://docs.google.com/spreadsheets/d/doc1/edit#gid=77",
	})
	require.NoError(t, err)
	assert.Equal(t, "Respostas", out.Worksheet)
	assert.Equal(t, "gid-not-found", out.Fallback)
	assert.NotEmpty(t, out.Notice)
}

func TestReadStatusResource(t *testing.T) {
	f := setup(t)
	h := NewResourceHandlers(f.sess)

	res, err := h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: StatusURI},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	var st map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(res.Contents[0].Text), &st))
	assert.Equal(t, true, st["loaded"])
	assert.Equal(t, float64(3), st["indexed"])

	_, err = h.ReadResource(context.Background(), &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{URI: "other://status"},
	})
	assert.Error(t, err)
}

func TestCorrectionPrompt(t *testing.T) {
	f := setup(t)
	h := NewPromptHandlers(f.sess, f.cfg)

	res, err := h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: CorrectionPrompt, Arguments: map[string]string{"birth_date": "12/05/1990", "name": "Maria Silva"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Maria Silva")
	assert.Contains(t, text, "Cultura, Agrário")

	_, err = h.GetPrompt(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Name: CorrectionPrompt, Arguments: map[string]string{}},
	})
	assert.Error(t, err)
}
