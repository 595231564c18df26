// ABOUTME: Submission journal MCP tool handlers
// ABOUTME: Implements list_submissions and retry_submission tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/session"
	"github.com/harperreed/contatos/sheets"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type SubmissionHandlers struct {
	sess *session.Session
}

func NewSubmissionHandlers(sess *session.Session) *SubmissionHandlers {
	return &SubmissionHandlers{sess: sess}
}

type SubmissionOutput struct {
	ID           string            `json:"id"`
	Member       string            `json:"member"`
	Worksheet    string            `json:"worksheet"`
	Status       string            `json:"status"`
	Attempts     int               `json:"attempts"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Row          map[string]string `json:"row"`
	CreatedAt    string            `json:"created_at"`
	UpdatedAt    string            `json:"updated_at"`
}

func submissionToOutput(sub db.Submission) SubmissionOutput {
	out := SubmissionOutput{
		ID:        sub.ID.String(),
		Member:    sub.MemberName,
		Worksheet: sub.WorksheetTitle,
		Status:    sub.Status,
		Attempts:  sub.Attempts,
		Row:       rowToMap(sub.Row),
		CreatedAt: sub.CreatedAt.Format(time.RFC3339),
		UpdatedAt: sub.UpdatedAt.Format(time.RFC3339),
	}
	if sub.ErrorMessage != nil {
		out.ErrorMessage = *sub.ErrorMessage
	}
	return out
}

// rowToMap keys a row by the header column names.
func rowToMap(row models.SubmissionRow) map[string]string {
	out := make(map[string]string, len(row))
	for i, v := range row {
		out[sheets.Header[i]] = v
	}
	return out
}

type ListSubmissionsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: pending, sent or failed"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 20)"`
}

type ListSubmissionsOutput struct {
	Submissions []SubmissionOutput `json:"submissions"`
}

func (h *SubmissionHandlers) ListSubmissions(_ context.Context, request *mcp.CallToolRequest, input ListSubmissionsInput) (*mcp.CallToolResult, ListSubmissionsOutput, error) {
	switch input.Status {
	case "", db.StatusPending, db.StatusSent, db.StatusFailed:
	default:
		return nil, ListSubmissionsOutput{}, fmt.Errorf("invalid status %q", input.Status)
	}

	limit := input.Limit
	if limit == 0 {
		limit = 20
	}

	subs, err := h.sess.Submissions(input.Status, limit)
	if err != nil {
		return nil, ListSubmissionsOutput{}, fmt.Errorf("failed to list submissions: %w", err)
	}

	result := make([]SubmissionOutput, len(subs))
	for i, sub := range subs {
		result[i] = submissionToOutput(sub)
	}

	return nil, ListSubmissionsOutput{Submissions: result}, nil
}

type RetrySubmissionInput struct {
	ID string `json:"id" jsonschema:"Submission ID from list_submissions"`
}

func (h *SubmissionHandlers) RetrySubmission(ctx context.Context, request *mcp.CallToolRequest, input RetrySubmissionInput) (*mcp.CallToolResult, SubmitCorrectionOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, SubmitCorrectionOutput{}, fmt.Errorf("invalid id: %w", err)
	}

	res, err := h.sess.Retry(ctx, id)
	if err != nil {
		return nil, SubmitCorrectionOutput{}, err
	}

	return nil, resultToOutput(res), nil
}
