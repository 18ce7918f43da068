package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
)

const (
	serverName    = "docs-backend"
	serverVersion = "1.0.0"
)

// Tools exposes document operations to MCP clients. Every call carries the
// caller's access token, which is resolved exactly like an HTTP bearer token.
type Tools struct {
	accounts   ports.AccountService
	documents  ports.DocumentService
	summarizer ports.DocumentSummarizer
}

func NewTools(accounts ports.AccountService, documents ports.DocumentService, summarizer ports.DocumentSummarizer) *Tools {
	return &Tools{accounts: accounts, documents: documents, summarizer: summarizer}
}

func (t *Tools) NewServer() *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	tokenArg := mcp.WithString("access_token", mcp.Required(), mcp.Description("Bearer token issued by /auth/login"))
	idArg := mcp.WithNumber("document_id", mcp.Required(), mcp.Description("Document id"))

	s.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the caller's documents, newest first"),
		tokenArg,
	), t.listDocuments)
	s.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Fetch one document with its extracted text and summary"),
		tokenArg,
		idArg,
	), t.getDocument)
	s.AddTool(mcp.NewTool("summarize_document",
		mcp.WithDescription("Generate a fresh AI summary for a document"),
		tokenArg,
		idArg,
	), t.summarizeDocument)

	return s
}

func (t *Tools) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, failure := t.authenticate(ctx, req)
	if failure != nil {
		return failure, nil
	}
	docs, err := t.documents.List(ctx, user.ID)
	if err != nil {
		return toolError("list_documents", err), nil
	}
	return jsonResult(docs)
}

func (t *Tools) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, failure := t.authenticate(ctx, req)
	if failure != nil {
		return failure, nil
	}
	id, failure := documentID(req)
	if failure != nil {
		return failure, nil
	}
	doc, err := t.documents.Get(ctx, user.ID, id)
	if err != nil {
		return toolError("get_document", err), nil
	}
	return jsonResult(doc)
}

func (t *Tools) summarizeDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, failure := t.authenticate(ctx, req)
	if failure != nil {
		return failure, nil
	}
	id, failure := documentID(req)
	if failure != nil {
		return failure, nil
	}
	doc, err := t.summarizer.Summarize(ctx, user.ID, id)
	if err != nil {
		return toolError("summarize_document", err), nil
	}
	return mcp.NewToolResultText(doc.Summary), nil
}

func (t *Tools) authenticate(ctx context.Context, req mcp.CallToolRequest) (*domain.User, *mcp.CallToolResult) {
	token, err := req.RequireString("access_token")
	if err != nil || token == "" {
		return nil, mcp.NewToolResultError("access_token is required")
	}
	user, err := t.accounts.Authenticate(ctx, token)
	if err != nil {
		return nil, mcp.NewToolResultError("Invalid token")
	}
	return user, nil
}

func documentID(req mcp.CallToolRequest) (int64, *mcp.CallToolResult) {
	raw, err := req.RequireFloat("document_id")
	if err != nil {
		return 0, mcp.NewToolResultError("document_id is required")
	}
	id := int64(raw)
	if float64(id) != raw || id <= 0 {
		return 0, mcp.NewToolResultError("document_id must be a positive integer")
	}
	return id, nil
}

func toolError(tool string, err error) *mcp.CallToolResult {
	if msg, ok := domain.PublicMessage(err); ok {
		return mcp.NewToolResultError(msg)
	}
	switch {
	case domain.IsKind(err, domain.ErrDocumentNotFound):
		return mcp.NewToolResultError("Document not found")
	case domain.IsKind(err, domain.ErrTemporary):
		return mcp.NewToolResultError("Service temporarily unavailable")
	}
	slog.Error("mcp_tool_failed", "tool", tool, "error", err)
	return mcp.NewToolResultError(tool + " failed")
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcp.NewToolResultText(string(raw)), nil
}
