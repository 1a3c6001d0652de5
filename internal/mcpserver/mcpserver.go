// Package mcpserver exposes the portfolio assistant as MCP tools and
// resources so agent clients can ask about the profile.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/comigor/portfolio-assistant/internal/chat"
	"github.com/comigor/portfolio-assistant/internal/profile"
)

const (
	ProfileURI = "portfolio://profile"
	PromptURI  = "portfolio://prompt"
)

// Deps holds dependencies for the MCP server.
type Deps struct {
	Sessions *chat.Manager
	Profiles *profile.Store
	Version  string
}

// New creates an MCP server with the portfolio tools and resources registered.
func New(deps Deps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"portfolio-assistant",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Answers questions about the portfolio owner's skills, experience, projects and background."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_portfolio",
			mcp.WithDescription("Ask the portfolio assistant a question. Pass session_id to continue a conversation."),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("session_id", mcp.Description("Existing chat session id (optional)")),
		),
		askPortfolio(deps),
	)

	s.AddTool(
		mcp.NewTool("clear_session",
			mcp.WithDescription("Reset a chat session to its greeting."),
			mcp.WithString("session_id", mcp.Description("Chat session id"), mcp.Required()),
		),
		clearSession(deps),
	)

	s.AddResource(
		mcp.NewResource(
			ProfileURI,
			"Portfolio Profile",
			mcp.WithResourceDescription("Current profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		resourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			PromptURI,
			"System Prompt",
			mcp.WithResourceDescription("System prompt built from the current profile"),
			mcp.WithMIMEType("text/plain"),
		),
		resourcePrompt(deps),
	)

	return s
}

// Handler serves s over streamable HTTP.
func Handler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s)
}

func askPortfolio(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		id := req.GetString("session_id", "")
		var sess *chat.Session
		if id == "" {
			sess, err = deps.Sessions.Create()
			if err != nil {
				return mcpError(fmt.Sprintf("failed to start session: %v", err)), nil
			}
			defer deps.Sessions.Delete(sess.ID())
		} else {
			var ok bool
			if sess, ok = deps.Sessions.Get(id); !ok {
				return mcpError(fmt.Sprintf("session %s not found", id)), nil
			}
		}

		ex, err := sess.Submit(ctx, question)
		switch {
		case errors.Is(err, chat.ErrEmptyInput):
			return mcpError("question is required"), nil
		case errors.Is(err, chat.ErrBusy):
			return mcpError("a reply is already pending for this session"), nil
		case err != nil:
			return mcpError(err.Error()), nil
		}
		return mcpText(ex.Reply.Content), nil
	}
}

func clearSession(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}
		sess, ok := deps.Sessions.Get(id)
		if !ok {
			return mcpError(fmt.Sprintf("session %s not found", id)), nil
		}
		return mcpText(sess.Clear().Content), nil
	}
}

func resourceProfile(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Profiles.Profile())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func resourcePrompt(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "text/plain",
				Text:     deps.Profiles.Prompt(),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
