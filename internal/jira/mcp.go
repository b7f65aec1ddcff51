package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danielolaszy/ticketpulse/internal/config"
	"github.com/danielolaszy/ticketpulse/internal/logging"
	"github.com/danielolaszy/ticketpulse/pkg/models"
	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	searchIssuesTool = "search_issues"
	projectsResource = "jira://projects"
	clientName       = "ticketpulse"
	clientVersion    = "1.0.0"
)

// mcpSession is the part of the mcp-go client the transport uses.
type mcpSession interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	ReadResource(ctx context.Context, request mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error)
	Close() error
}

// MCPClient reaches JIRA through an MCP server started as a subprocess.
// Search results arrive as text and are decoded by DecodeSearchResult.
type MCPClient struct {
	session mcpSession
}

// NewMCPClient starts cfg.MCPCommand and performs the MCP handshake. JIRA
// credentials are passed to the subprocess through its environment.
func NewMCPClient(ctx context.Context, cfg config.JiraConfig) (*MCPClient, error) {
	parts := strings.Fields(cfg.MCPCommand)
	if len(parts) == 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", []string{"JIRA_MCP_COMMAND"})
	}

	var env []string
	if cfg.URL != "" {
		env = append(env, "JIRA_URL="+cfg.URL)
	}
	if cfg.Username != "" {
		env = append(env, "JIRA_USERNAME="+cfg.Username)
	}
	if cfg.Token != "" {
		env = append(env, "JIRA_TOKEN="+cfg.Token)
	}

	logging.Info("starting jira mcp server", "command", parts[0], "args", len(parts)-1)

	mcpClient, err := client.NewStdioMCPClient(parts[0], env, parts[1:]...)
	if err != nil {
		return nil, fmt.Errorf("failed to create JIRA MCP client: %w", err)
	}

	initRequest := mcp.InitializeRequest{}
	initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initRequest.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}

	initResult, err := mcpClient.Initialize(ctx, initRequest)
	if err != nil {
		_ = mcpClient.Close()
		return nil, fmt.Errorf("failed to initialize JIRA MCP client: %w", err)
	}
	logging.Debug("jira mcp server initialized",
		"server", initResult.ServerInfo.Name,
		"version", initResult.ServerInfo.Version)

	return &MCPClient{session: mcpClient}, nil
}

// Search calls the server's search_issues tool. The payload is returned as
// text for the caller to decode.
func (c *MCPClient) Search(ctx context.Context, jql string, maxResults int) (RawSearchResult, error) {
	request := mcp.CallToolRequest{}
	request.Params.Name = searchIssuesTool
	request.Params.Arguments = map[string]any{
		"jql":         jql,
		"max_results": maxResults,
	}

	result, err := c.session.CallTool(ctx, request)
	if err != nil {
		return RawSearchResult{}, fmt.Errorf("failed to call %s: %w", searchIssuesTool, err)
	}

	text := toolResultText(result)
	if result.IsError {
		return RawSearchResult{}, fmt.Errorf("%s returned an error: %s", searchIssuesTool, text)
	}
	return RawSearchResult{Text: text}, nil
}

// ListProjects reads the jira://projects resource.
func (c *MCPClient) ListProjects(ctx context.Context) ([]models.Project, error) {
	request := mcp.ReadResourceRequest{}
	request.Params.URI = projectsResource

	result, err := c.session.ReadResource(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", projectsResource, err)
	}

	var b strings.Builder
	for _, content := range result.Contents {
		if text, ok := content.(mcp.TextResourceContents); ok {
			b.WriteString(text.Text)
			b.WriteString("\n")
		}
	}
	return decodeProjectTable(b.String())
}

// Close stops the MCP server subprocess.
func (c *MCPClient) Close() error {
	if c.session == nil {
		return nil
	}
	return c.session.Close()
}

// toolResultText joins the text parts of a tool result. Non-text parts are
// rendered as JSON so they still reach the decoder, which rejects them.
func toolResultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, content := range result.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			parts = append(parts, textContent.Text)
			continue
		}
		jsonBytes, _ := json.Marshal(content)
		parts = append(parts, string(jsonBytes))
	}
	return strings.Join(parts, "\n")
}
