// ABOUTME: MCP prompt handlers for the correction workflow
// ABOUTME: Builds a correction-request prompt from a member found by birth date
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/harperreed/contatos/config"
	"github.com/harperreed/contatos/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const CorrectionPrompt = "correction-request"

type PromptHandlers struct {
	sess *session.Session
	cfg  *config.Config
}

func NewPromptHandlers(sess *session.Session, cfg *config.Config) *PromptHandlers {
	return &PromptHandlers{sess: sess, cfg: cfg}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case CorrectionPrompt:
		return h.getCorrectionPrompt(request.Params.Arguments)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getCorrectionPrompt(args map[string]string) (*mcp.GetPromptResult, error) {
	birthDate, ok := args["birth_date"]
	if !ok || strings.TrimSpace(birthDate) == "" {
		return nil, fmt.Errorf("birth_date is required")
	}

	member, err := h.sess.Select(birthDate, args["name"])
	if err != nil {
		return nil, err
	}

	var promptText strings.Builder
	promptText.WriteString("Help this member review their contact details:\n\n")
	promptText.WriteString(fmt.Sprintf("Name: %s\n", member.DisplayName()))
	promptText.WriteString(fmt.Sprintf("Birth date: %s\n", member.BirthDate.Display()))
	promptText.WriteString(fmt.Sprintf("Email: %s\n", orDash(member.Email)))
	promptText.WriteString(fmt.Sprintf("Phone/WhatsApp: %s\n", orDash(member.Phone)))

	promptText.WriteString("\nAsk whether the phone and the email are correct. For each one that is not, ask for the new value.")
	promptText.WriteString(fmt.Sprintf("\nAsk which setorial they belong to (%s).", strings.Join(h.cfg.Setoriais, ", ")))
	promptText.WriteString("\nThen call submit_correction with the answers.")

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Correction request for %s", member.DisplayName()),
		Messages: []*mcp.PromptMessage{
			{
				Role: "user",
				Content: &mcp.TextContent{
					Text: promptText.String(),
				},
			},
		},
	}, nil
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
