// ABOUTME: Member MCP tool handlers
// ABOUTME: Implements lookup_member, submit_correction and resolve_target tools
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/models"
	"github.com/harperreed/contatos/roster"
	"github.com/harperreed/contatos/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type MemberHandlers struct {
	sess *session.Session
	cfg  *config.Config
}

func NewMemberHandlers(sess *session.Session, cfg *config.Config) *MemberHandlers {
	return &MemberHandlers{sess: sess, cfg: cfg}
}

type MemberOutput struct {
	BirthDate string `json:"birth_date"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Line      int    `json:"line"`
}

func memberToOutput(m models.Member) MemberOutput {
	return MemberOutput{
		BirthDate: m.BirthDate.Display(),
		Name:      m.DisplayName(),
		Email:     m.Email,
		Phone:     m.Phone,
		Line:      m.Line,
	}
}

type LookupMemberInput struct {
	BirthDate string `json:"birth_date" jsonschema:"Birth date (DD/MM/YYYY, YYYY-MM-DD and similar formats)"`
}

type LookupMemberOutput struct {
	BirthDate string         `json:"birth_date"`
	Members   []MemberOutput `json:"members"`
	// MissingFields lists optional columns absent from the member table.
	MissingFields []string `json:"missing_fields,omitempty"`
}

func (h *MemberHandlers) LookupMember(_ context.Context, request *mcp.CallToolRequest, input LookupMemberInput) (*mcp.CallToolResult, LookupMemberOutput, error) {
	if strings.TrimSpace(input.BirthDate) == "" {
		return nil, LookupMemberOutput{}, fmt.Errorf("birth_date is required")
	}

	date, err := roster.ParseDate(input.BirthDate)
	if err != nil {
		return nil, LookupMemberOutput{}, err
	}

	found, err := h.sess.Lookup(date)
	if err != nil {
		return nil, LookupMemberOutput{}, err
	}

	out := LookupMemberOutput{BirthDate: date.Display(), Members: make([]MemberOutput, len(found))}
	for i, m := range found {
		out.Members[i] = memberToOutput(m)
	}
	for _, f := range h.sess.Status().MissingOptional {
		out.MissingFields = append(out.MissingFields, f.Label())
	}

	return nil, out, nil
}

type SubmitCorrectionInput struct {
	BirthDate    string `json:"birth_date" jsonschema:"Birth date of the member"`
	Name         string `json:"name,omitempty" jsonschema:"Member name, required when several members share the birth date"`
	CorrectPhone bool   `json:"correct_phone,omitempty" jsonschema:"Whether the phone/WhatsApp should be corrected"`
	NewPhone     string `json:"new_phone,omitempty" jsonschema:"New phone/WhatsApp number"`
	CorrectEmail bool   `json:"correct_email,omitempty" jsonschema:"Whether the email should be corrected"`
	NewEmail     string `json:"new_email,omitempty" jsonschema:"New email address"`
	Setorial     string `json:"setorial" jsonschema:"Sector the member belongs to"`
	SheetURL     string `json:"sheet_url,omitempty" jsonschema:"Destination spreadsheet URL (defaults to the configured one)"`
}

type SubmitCorrectionOutput struct {
	SubmissionID string            `json:"submission_id,omitempty"`
	Document     string            `json:"document"`
	Worksheet    string            `json:"worksheet"`
	Notice       string            `json:"notice,omitempty"`
	Row          map[string]string `json:"row"`
}

func (h *MemberHandlers) SubmitCorrection(ctx context.Context, request *mcp.CallToolRequest, input SubmitCorrectionInput) (*mcp.CallToolResult, SubmitCorrectionOutput, error) {
	if strings.TrimSpace(input.BirthDate) == "" {
		return nil, SubmitCorrectionOutput{}, fmt.Errorf("birth_date is required")
	}
	setorial := input.Setorial
	if setorial != "" {
		canonical, ok := h.cfg.Setorial(setorial)
		if !ok {
			return nil, SubmitCorrectionOutput{}, fmt.Errorf("unknown setorial %q (choose one of: %s)",
				setorial, strings.Join(h.cfg.Setoriais, ", "))
		}
		setorial = canonical
	}

	member, err := h.sess.Select(input.BirthDate, input.Name)
	if err != nil {
		return nil, SubmitCorrectionOutput{}, err
	}

	sheetURL := input.SheetURL
	if sheetURL == "" {
		sheetURL = h.cfg.SheetURL
	}

	res, err := h.sess.Submit(ctx, sheetURL, member, models.CorrectionRequest{
		CorrectPhone: input.CorrectPhone,
		NewPhone:     input.NewPhone,
		CorrectEmail: input.CorrectEmail,
		NewEmail:     input.NewEmail,
		Setorial:     setorial,
	})
	if err != nil {
		if res != nil && res.SubmissionID != uuid.Nil {
			return nil, SubmitCorrectionOutput{}, fmt.Errorf("%w (saved as %s for retry)", err, res.SubmissionID)
		}
		return nil, SubmitCorrectionOutput{}, err
	}

	return nil, resultToOutput(res), nil
}

func resultToOutput(res *session.Result) SubmitCorrectionOutput {
	out := SubmitCorrectionOutput{
		Document:  res.Target.DocumentTitle,
		Worksheet: res.Target.Worksheet.Title,
		Notice:    res.Target.Notice(),
		Row:       rowToMap(res.Row),
	}
	if res.SubmissionID != uuid.Nil {
		out.SubmissionID = res.SubmissionID.String()
	}
	return out
}

type ResolveTargetInput struct {
	SheetURL string `json:"sheet_url,omitempty" jsonschema:"Spreadsheet URL (defaults to the configured one)"`
}

type ResolveTargetOutput struct {
	DocumentID  string `json:"document_id"`
	Document    string `json:"document"`
	WorksheetID int64  `json:"worksheet_id"`
	Worksheet   string `json:"worksheet"`
	Fallback    string `json:"fallback"`
	Notice      string `json:"notice,omitempty"`
}

func (h *MemberHandlers) ResolveTarget(ctx context.Context, request *mcp.CallToolRequest, input ResolveTargetInput) (*mcp.CallToolResult, ResolveTargetOutput, error) {
	sheetURL := input.SheetURL
	if sheetURL == "" {
		sheetURL = h.cfg.SheetURL
	}

	target, err := h.sess.Target(ctx, sheetURL)
	if err != nil {
		return nil, ResolveTargetOutput{}, err
	}

	return nil, ResolveTargetOutput{
		DocumentID:  target.Worksheet.DocumentID,
		Document:    target.DocumentTitle,
		WorksheetID: target.Worksheet.ID,
		Worksheet:   target.Worksheet.Title,
		Fallback:    target.Fallback.String(),
		Notice:      target.Notice(),
	}, nil
}
