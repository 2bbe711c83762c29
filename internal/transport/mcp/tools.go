package mcp

import (
	"context"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

const (
	ToolCreateSession         = "context_create_session"
	ToolGetSession            = "context_get_session"
	ToolListSessions          = "context_list_sessions"
	ToolDeleteSession         = "context_delete_session"
	ToolClearSession          = "context_clear_session"
	ToolAddItem               = "context_add_item"
	ToolRemoveItem            = "context_remove_item"
	ToolUpdateRelevance       = "context_update_relevance"
	ToolRegisterConversation  = "context_register_conversation"
	ToolRegisterCode          = "context_register_code"
	ToolRegisterDocumentation = "context_register_documentation"
	ToolRetrieve              = "context_retrieve"
	ToolSummarize             = "context_summarize"
	ToolPrune                 = "context_prune"
)

func (s *Server) add(tool mcpproto.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
	s.tools = append(s.tools, tool.Name)
}

func sessionArg() mcpproto.ToolOption {
	return mcpproto.WithString("session_id", mcpproto.Required(), mcpproto.Description("Session id returned by context_create_session"))
}

func metadataArg() mcpproto.ToolOption {
	return mcpproto.WithObject("metadata", mcpproto.Description("Flat string key/value metadata"))
}

func (s *Server) registerTools() {
	s.add(mcpproto.NewTool(ToolCreateSession,
		mcpproto.WithDescription("Create an empty context session for a project"),
		mcpproto.WithString("project_id", mcpproto.Required(), mcpproto.Description("Project the session belongs to")),
		metadataArg(),
	), s.handleCreateSession)

	s.add(mcpproto.NewTool(ToolGetSession,
		mcpproto.WithDescription("Return a session with all of its items"),
		sessionArg(),
	), s.handleGetSession)

	s.add(mcpproto.NewTool(ToolListSessions,
		mcpproto.WithDescription("List sessions, optionally for one project"),
		mcpproto.WithString("project_id", mcpproto.Description("Only sessions of this project")),
	), s.handleListSessions)

	s.add(mcpproto.NewTool(ToolDeleteSession,
		mcpproto.WithDescription("Delete a session and its items"),
		sessionArg(),
	), s.handleDeleteSession)

	s.add(mcpproto.NewTool(ToolClearSession,
		mcpproto.WithDescription("Remove every item from a session and keep the session"),
		sessionArg(),
	), s.handleClearSession)

	s.add(mcpproto.NewTool(ToolAddItem,
		mcpproto.WithDescription("Add a context item to a session"),
		sessionArg(),
		mcpproto.WithString("type", mcpproto.Required(),
			mcpproto.Enum(itemTypeNames()...),
			mcpproto.Description("Item type")),
		mcpproto.WithString("content", mcpproto.Required(), mcpproto.Description("Item text")),
		mcpproto.WithNumber("relevance", mcpproto.Required(), mcpproto.Description("Stored relevance in [0,1]")),
		mcpproto.WithString("source", mcpproto.Description("Where the item came from")),
		mcpproto.WithString("id", mcpproto.Description("Explicit item id, generated when omitted")),
		metadataArg(),
	), s.handleAddItem)

	s.add(mcpproto.NewTool(ToolRemoveItem,
		mcpproto.WithDescription("Remove an item from a session; unknown ids are ignored"),
		sessionArg(),
		mcpproto.WithString("item_id", mcpproto.Required()),
	), s.handleRemoveItem)

	s.add(mcpproto.NewTool(ToolUpdateRelevance,
		mcpproto.WithDescription("Set the stored relevance of an item"),
		sessionArg(),
		mcpproto.WithString("item_id", mcpproto.Required()),
		mcpproto.WithNumber("relevance", mcpproto.Required(), mcpproto.Description("New relevance in [0,1]")),
	), s.handleUpdateRelevance)

	s.add(mcpproto.NewTool(ToolRegisterConversation,
		mcpproto.WithDescription("Record a conversation turn"),
		sessionArg(),
		mcpproto.WithString("role", mcpproto.Required(), mcpproto.Description("Speaker, e.g. user or assistant")),
		mcpproto.WithString("content", mcpproto.Required()),
		metadataArg(),
	), s.handleRegisterConversation)

	s.add(mcpproto.NewTool(ToolRegisterCode,
		mcpproto.WithDescription("Record the content of a source file"),
		sessionArg(),
		mcpproto.WithString("file_path", mcpproto.Required()),
		mcpproto.WithString("content", mcpproto.Required()),
		mcpproto.WithString("language", mcpproto.Description("Programming language")),
		metadataArg(),
	), s.handleRegisterCode)

	s.add(mcpproto.NewTool(ToolRegisterDocumentation,
		mcpproto.WithDescription("Record documentation; markdown and html are converted to plain text"),
		sessionArg(),
		mcpproto.WithString("source", mcpproto.Required(), mcpproto.Description("Document origin, e.g. a path or URL")),
		mcpproto.WithString("content", mcpproto.Required()),
		mcpproto.WithString("format", mcpproto.Enum("text", "markdown", "html"), mcpproto.Description("Defaults to text")),
		metadataArg(),
	), s.handleRegisterDocumentation)

	s.add(mcpproto.NewTool(ToolRetrieve,
		mcpproto.WithDescription("Rank session items against a query"),
		sessionArg(),
		mcpproto.WithString("query", mcpproto.Description("Current task or question; empty ranks by stored relevance")),
		mcpproto.WithNumber("max_items", mcpproto.Description("Upper bound on returned items, 0 for all")),
		mcpproto.WithArray("include_types", mcpproto.WithStringItems(), mcpproto.Description("Only these item types")),
		mcpproto.WithArray("exclude_types", mcpproto.WithStringItems(), mcpproto.Description("Skip these item types")),
		mcpproto.WithNumber("min_relevance", mcpproto.Description("Stored relevance floor in [0,1]")),
		mcpproto.WithString("max_age", mcpproto.Description("Only items younger than this Go duration, e.g. 30m")),
		mcpproto.WithObject("where", mcpproto.Description("Metadata equality filters")),
	), s.handleRetrieve)

	s.add(mcpproto.NewTool(ToolSummarize,
		mcpproto.WithDescription("Summarize the most relevant items within a token budget"),
		sessionArg(),
		mcpproto.WithNumber("max_tokens", mcpproto.Required(), mcpproto.Description("Token budget for input and output")),
	), s.handleSummarize)

	s.add(mcpproto.NewTool(ToolPrune,
		mcpproto.WithDescription("Remove stale items; without thresholds enforces the session capacity"),
		sessionArg(),
		mcpproto.WithString("min_age", mcpproto.Description("Only items older than this Go duration")),
		mcpproto.WithNumber("max_relevance", mcpproto.Description("Only items at or below this relevance")),
	), s.handlePrune)
}

func itemTypeNames() []string {
	names := make([]string, len(core.ItemTypes))
	for i, t := range core.ItemTypes {
		names[i] = string(t)
	}
	return names
}

func (s *Server) handleCreateSession(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	projectID, err := req.RequireString("project_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	md, err := metadataArgValue(req, "metadata")
	if err != nil {
		return toolError(err), nil
	}
	sess, err := s.manager.CreateSession(ctx, projectID, md)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleGetSession(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	sess, err := s.manager.GetSession(ctx, sessionID)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(sess)
}

func (s *Server) handleListSessions(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessions := s.manager.ListSessions(ctx, req.GetString("project_id", ""))
	if sessions == nil {
		sessions = []core.SessionInfo{}
	}
	return jsonResult(sessions)
}

func (s *Server) handleDeleteSession(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	if err := s.manager.DeleteSession(ctx, sessionID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(statusReply{SessionID: sessionID, Status: "deleted"})
}

func (s *Server) handleClearSession(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	if err := s.manager.ClearSession(ctx, sessionID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(statusReply{SessionID: sessionID, Status: "cleared"})
}

func (s *Server) handleAddItem(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	typ, err := req.RequireString("type")
	if err != nil {
		return invalidArgs(err), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return invalidArgs(err), nil
	}
	relevance, err := req.RequireFloat("relevance")
	if err != nil {
		return invalidArgs(err), nil
	}
	md, err := metadataArgValue(req, "metadata")
	if err != nil {
		return toolError(err), nil
	}
	itemType, err := core.ParseItemType(typ)
	if err != nil {
		return toolError(err), nil
	}

	item, err := s.manager.AddContextItem(ctx, sessionID, core.NewItem{
		ID:        req.GetString("id", ""),
		Type:      itemType,
		Content:   content,
		Relevance: relevance,
		Source:    req.GetString("source", ""),
		Metadata:  md,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(item)
}

func (s *Server) handleRemoveItem(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	if err := s.manager.RemoveContextItem(ctx, sessionID, itemID); err != nil {
		return toolError(err), nil
	}
	return jsonResult(statusReply{SessionID: sessionID, ItemID: itemID, Status: "removed"})
}

func (s *Server) handleUpdateRelevance(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	itemID, err := req.RequireString("item_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	relevance, err := req.RequireFloat("relevance")
	if err != nil {
		return invalidArgs(err), nil
	}
	item, err := s.manager.UpdateItemRelevance(ctx, sessionID, itemID, relevance)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(item)
}

func (s *Server) handleRegisterConversation(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	md, err := metadataArgValue(req, "metadata")
	if err != nil {
		return toolError(err), nil
	}
	item, err := s.manager.RegisterConversation(ctx, sessionID, req.GetString("role", ""), req.GetString("content", ""), md)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(item)
}

func (s *Server) handleRegisterCode(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	md, err := metadataArgValue(req, "metadata")
	if err != nil {
		return toolError(err), nil
	}
	item, err := s.manager.RegisterCodeFile(ctx, sessionID,
		req.GetString("file_path", ""),
		req.GetString("content", ""),
		req.GetString("language", ""),
		md,
	)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(item)
}

func (s *Server) handleRegisterDocumentation(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	md, err := metadataArgValue(req, "metadata")
	if err != nil {
		return toolError(err), nil
	}
	item, err := s.manager.RegisterDocumentation(ctx, sessionID,
		req.GetString("source", ""),
		req.GetString("content", ""),
		req.GetString("format", ""),
		md,
	)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(item)
}

func (s *Server) handleRetrieve(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	opts, err := retrieveOptions(req)
	if err != nil {
		return toolError(err), nil
	}

	res, err := s.manager.RetrieveRelevantContext(ctx, sessionID, req.GetString("query", ""), opts)
	if err != nil {
		return toolError(err), nil
	}

	reply := retrieveReply{Items: res.Items}
	if reply.Items == nil {
		reply.Items = []core.ScoredItem{}
	}
	if res.Degraded() {
		reply.Degraded = true
		reply.Warning = res.Warning.Error()
	}
	return jsonResult(reply)
}

func (s *Server) handleSummarize(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	maxTokens, err := req.RequireInt("max_tokens")
	if err != nil {
		return invalidArgs(err), nil
	}
	summary, err := s.manager.GenerateContextSummary(ctx, sessionID, maxTokens)
	if err != nil {
		return toolError(err), nil
	}
	if summary.SourceItems == nil {
		summary.SourceItems = []string{}
	}
	return jsonResult(summary)
}

func (s *Server) handlePrune(ctx context.Context, req mcpproto.CallToolRequest) (*mcpproto.CallToolResult, error) {
	sessionID, err := req.RequireString("session_id")
	if err != nil {
		return invalidArgs(err), nil
	}
	opts, err := pruneOptions(req)
	if err != nil {
		return toolError(err), nil
	}
	removed, err := s.manager.PruneContext(ctx, sessionID, opts)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(pruneReply{SessionID: sessionID, Removed: removed})
}
