package contextmgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/conv"
)

// Documentation formats accepted by RegisterDocumentation.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

func (m *Manager) RegisterConversation(ctx context.Context, sessionID, role, content string, metadata map[string]string) (*core.ContextItem, error) {
	role = strings.TrimSpace(role)
	if role == "" {
		return nil, core.NewValidationError("role", "must not be empty")
	}
	if err := requireContent(content); err != nil {
		return nil, err
	}

	md := core.CloneMetadata(metadata)
	if md == nil {
		md = make(map[string]string, 1)
	}
	md[core.MetaRole] = role

	return m.AddContextItem(ctx, sessionID, core.NewItem{
		Type:      core.ItemTypeConversation,
		Content:   content,
		Relevance: m.cfg.GetDefaultItemRelevance(),
		Source:    "conversation:" + role,
		Metadata:  md,
	})
}

func (m *Manager) RegisterCodeFile(ctx context.Context, sessionID, filePath, content, language string, metadata map[string]string) (*core.ContextItem, error) {
	filePath = strings.TrimSpace(filePath)
	if filePath == "" {
		return nil, core.NewValidationError("file_path", "must not be empty")
	}
	if err := requireContent(content); err != nil {
		return nil, err
	}

	md := core.CloneMetadata(metadata)
	if md == nil {
		md = make(map[string]string, 2)
	}
	md[core.MetaFilePath] = filePath
	if language != "" {
		md[core.MetaLanguage] = language
	}

	return m.AddContextItem(ctx, sessionID, core.NewItem{
		Type:      core.ItemTypeCode,
		Content:   content,
		Relevance: m.cfg.GetDefaultItemRelevance(),
		Source:    filePath,
		Metadata:  md,
	})
}

// RegisterDocumentation stores a document as plain text. Markdown and HTML
// are flattened first; the original format is kept in metadata.
func (m *Manager) RegisterDocumentation(ctx context.Context, sessionID, source, content, format string, metadata map[string]string) (*core.ContextItem, error) {
	if format == "" {
		format = FormatText
	}

	text, err := normalizeDocument(content, format)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, core.NewValidationError("content", "%s document has no text", format)
	}

	md := core.CloneMetadata(metadata)
	if md == nil {
		md = make(map[string]string, 1)
	}
	md[core.MetaFormat] = format

	return m.AddContextItem(ctx, sessionID, core.NewItem{
		Type:      core.ItemTypeDocumentation,
		Content:   text,
		Relevance: m.cfg.GetDefaultItemRelevance(),
		Source:    source,
		Metadata:  md,
	})
}

func requireContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return core.NewValidationError("content", "must not be empty")
	}
	return nil
}

func normalizeDocument(content, format string) (string, error) {
	if err := requireContent(content); err != nil {
		return "", err
	}

	switch format {
	case FormatText:
		return content, nil
	case FormatMarkdown:
		text, err := conv.MarkdownToText([]byte(content))
		if err != nil {
			return "", fmt.Errorf("normalize markdown: %w", err)
		}
		return text, nil
	case FormatHTML:
		text, err := conv.HTMLToText(content)
		if err != nil {
			return "", fmt.Errorf("normalize html: %w", err)
		}
		return text, nil
	default:
		return "", core.NewValidationError("format", "unknown document format %q", format)
	}
}
