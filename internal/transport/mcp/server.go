package mcp

import (
	"context"
	"errors"
	"io"

	"github.com/mark3labs/mcp-go/server"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

// ContextManager is the facade the tools call into.
type ContextManager interface {
	CreateSession(ctx context.Context, projectID string, metadata map[string]string) (*core.Session, error)
	GetSession(ctx context.Context, sessionID string) (*core.Session, error)
	ListSessions(ctx context.Context, projectID string) []core.SessionInfo
	DeleteSession(ctx context.Context, sessionID string) error
	ClearSession(ctx context.Context, sessionID string) error

	AddContextItem(ctx context.Context, sessionID string, item core.NewItem) (*core.ContextItem, error)
	RemoveContextItem(ctx context.Context, sessionID, itemID string) error
	UpdateItemRelevance(ctx context.Context, sessionID, itemID string, relevance float64) (*core.ContextItem, error)

	RegisterConversation(ctx context.Context, sessionID, role, content string, metadata map[string]string) (*core.ContextItem, error)
	RegisterCodeFile(ctx context.Context, sessionID, filePath, content, language string, metadata map[string]string) (*core.ContextItem, error)
	RegisterDocumentation(ctx context.Context, sessionID, source, content, format string, metadata map[string]string) (*core.ContextItem, error)

	RetrieveRelevantContext(ctx context.Context, sessionID, query string, opts core.RetrieveOptions) (*core.RetrievalResult, error)
	GenerateContextSummary(ctx context.Context, sessionID string, maxTokens int) (*core.Summary, error)
	PruneContext(ctx context.Context, sessionID string, opts core.PruneOptions) (int, error)
}

type Option func(*Server)

// WithOnClose is called once the client closes the stdio stream.
func WithOnClose(fn func()) Option {
	return func(s *Server) { s.onClose = fn }
}

// Server exposes the context manager as MCP tools over stdio.
type Server struct {
	manager ContextManager
	mcp     *server.MCPServer
	in      io.Reader
	out     io.Writer
	onClose func()
	tools   []string
}

func NewServer(manager ContextManager, in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		manager: manager,
		in:      in,
		out:     out,
		mcp: server.NewMCPServer(
			core.AppName,
			core.AppVersion,
			server.WithToolCapabilities(true),
			server.WithRecovery(),
			server.WithInstructions(instructions),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Tools lists registered tool names in registration order.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Int("tools", len(s.tools)).Msg("mcp stdio server listening")

	err := server.NewStdioServer(s.mcp).Listen(ctx, s.in, s.out)
	if s.onClose != nil {
		s.onClose()
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		logger.Info().Msg("mcp stdio server stopped")
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

const instructions = `vibectx keeps per-session working context for a coding assistant.
Create a session per project conversation, register conversation turns, code files and documentation as they appear,
then call context_retrieve with the current task to get the most relevant items, or context_summarize for a token-budgeted digest.`
