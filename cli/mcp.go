// ABOUTME: MCP server subcommand
// ABOUTME: Serves member lookup and correction tools to MCP clients on stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/contatos/handlers"
)

// NewMCPServer builds the MCP server with every tool, resource and prompt
// registered against env.
func NewMCPServer(env *Env, version string) *mcp.Server {
	memberHandlers := handlers.NewMemberHandlers(env.Session, env.Config)
	submissionHandlers := handlers.NewSubmissionHandlers(env.Session)
	resourceHandlers := handlers.NewResourceHandlers(env.Session)
	promptHandlers := handlers.NewPromptHandlers(env.Session, env.Config)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "contatos",
		Version: version,
	}, nil)

	// Register tools
	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_member",
		Description: "Find members by birth date and show their registered email and phone",
	}, memberHandlers.LookupMember)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_correction",
		Description: "Record a contact correction request for a member as a new row in the corrections spreadsheet",
	}, memberHandlers.SubmitCorrection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_target",
		Description: "Show which spreadsheet and worksheet correction requests are written to",
	}, memberHandlers.ResolveTarget)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_submissions",
		Description: "List journaled correction requests, optionally filtered by status (pending, sent, failed)",
	}, submissionHandlers.ListSubmissions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "retry_submission",
		Description: "Send a failed correction request again",
	}, submissionHandlers.RetrySubmission)

	// Register resources
	server.AddResource(&mcp.Resource{
		URI:         handlers.StatusURI,
		Name:        "status",
		Description: "Loaded member table, resolved columns and row counts",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResource(&mcp.Resource{
		URI:         handlers.SubmissionsURI,
		Name:        "submissions",
		Description: "Most recent correction requests in the journal",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: handlers.SubmissionsURI + "/{status}",
		Name:        "submissions-by-status",
		Description: "Correction requests with the given status",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	// Register prompts
	server.AddPrompt(&mcp.Prompt{
		Name:        handlers.CorrectionPrompt,
		Description: "Walk a member through reviewing and correcting their contact details",
		Arguments: []*mcp.PromptArgument{
			{Name: "birth_date", Description: "Member birth date", Required: true},
			{Name: "name", Description: "Member name when several share the date"},
		},
	}, promptHandlers.GetPrompt)

	return server
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, env *Env, version string) error {
	env.Logger().Info().Msg("starting contatos MCP server")

	// A missing table is reported by the tools themselves.
	if err := env.LoadMembers(ctx); err != nil {
		env.Logger().Warn().Err(err).Msg("member table not loaded")
	}

	// Run server on stdio transport
	return NewMCPServer(env, version).Run(ctx, &mcp.StdioTransport{})
}
