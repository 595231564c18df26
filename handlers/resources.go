// ABOUTME: MCP resource handlers exposing session state
// ABOUTME: Provides read-only access to the loaded table status and the submission journal via URI
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/contatos/db"
	"github.com/harperreed/contatos/session"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	StatusURI      = "contatos://status"
	SubmissionsURI = "contatos://submissions"
)

type ResourceHandlers struct {
	sess *session.Session
}

func NewResourceHandlers(sess *session.Session) *ResourceHandlers {
	return &ResourceHandlers{sess: sess}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, "contatos://") {
		return nil, fmt.Errorf("invalid URI scheme: expected contatos://")
	}

	path := strings.TrimPrefix(uri, "contatos://")
	parts := strings.Split(path, "/")

	switch parts[0] {
	case "status":
		return h.readStatus()
	case "submissions":
		status := ""
		if len(parts) > 1 {
			status = parts[1]
		}
		return h.readSubmissions(uri, status)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

type statusOutput struct {
	SessionID       string            `json:"session_id"`
	Source          string            `json:"source,omitempty"`
	Loaded          bool              `json:"loaded"`
	LoadedAt        string            `json:"loaded_at,omitempty"`
	Rows            int               `json:"rows"`
	Indexed         int               `json:"indexed"`
	InvalidDates    int               `json:"invalid_dates"`
	Columns         map[string]string `json:"columns,omitempty"`
	MissingOptional []string          `json:"missing_optional,omitempty"`
	LastError       string            `json:"last_error,omitempty"`
}

func (h *ResourceHandlers) readStatus() (*mcp.ReadResourceResult, error) {
	st := h.sess.Status()
	out := statusOutput{
		SessionID:    st.SessionID,
		Source:       st.Source,
		Loaded:       st.Loaded,
		Rows:         st.Rows,
		Indexed:      st.Indexed,
		InvalidDates: st.InvalidDates,
	}
	if st.Loaded {
		out.LoadedAt = st.LoadedAt.Format("2006-01-02 15:04:05")
		out.Columns = make(map[string]string, len(st.Columns))
		for f, header := range st.Columns {
			out.Columns[string(f)] = header
		}
	}
	for _, f := range st.MissingOptional {
		out.MissingOptional = append(out.MissingOptional, string(f))
	}
	if st.LastError != nil {
		out.LastError = st.LastError.Error()
	}

	return jsonResource(StatusURI, out)
}

func (h *ResourceHandlers) readSubmissions(uri, status string) (*mcp.ReadResourceResult, error) {
	switch status {
	case "", db.StatusPending, db.StatusSent, db.StatusFailed:
	default:
		return nil, fmt.Errorf("unknown submission status: %s", status)
	}

	subs, err := h.sess.Submissions(status, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	out := make([]SubmissionOutput, len(subs))
	for i, sub := range subs {
		out[i] = submissionToOutput(sub)
	}
	return jsonResource(uri, out)
}

func jsonResource(uri string, v interface{}) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
