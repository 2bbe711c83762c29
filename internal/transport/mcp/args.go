package mcp

import (
	"encoding/json"
	"fmt"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

// Stable prefixes of tool error messages.
const (
	ErrPrefixValidation    = "validation"
	ErrPrefixNotFound      = "not_found"
	ErrPrefixSummarization = "summarization"
	ErrPrefixInternal      = "internal"
)

type statusReply struct {
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id,omitempty"`
	Status    string `json:"status"`
}

type retrieveReply struct {
	Items    []core.ScoredItem `json:"items"`
	Degraded bool              `json:"degraded"`
	Warning  string            `json:"warning,omitempty"`
}

type pruneReply struct {
	SessionID string `json:"session_id"`
	Removed   int    `json:"removed"`
}

func jsonResult(v any) (*mcpproto.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return mcpproto.NewToolResultText(string(data)), nil
}

func toolError(err error) *mcpproto.CallToolResult {
	prefix := ErrPrefixInternal
	switch {
	case core.IsValidation(err):
		prefix = ErrPrefixValidation
	case core.IsNotFound(err):
		prefix = ErrPrefixNotFound
	case core.IsSummarization(err):
		prefix = ErrPrefixSummarization
	}
	return mcpproto.NewToolResultError(prefix + ": " + err.Error())
}

func invalidArgs(err error) *mcpproto.CallToolResult {
	return mcpproto.NewToolResultError(ErrPrefixValidation + ": " + err.Error())
}

// metadataArgValue reads a flat object. Scalars are stringified; nested
// values are rejected.
func metadataArgValue(req mcpproto.CallToolRequest, key string) (map[string]string, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, core.NewValidationError(key, "must be an object")
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64, bool, int, int64:
			out[k] = fmt.Sprint(val)
		default:
			return nil, core.NewValidationError(key, "value of %q must be a string, number or boolean", k)
		}
	}
	return out, nil
}

func durationArg(req mcpproto.CallToolRequest, key string) (time.Duration, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, core.NewValidationError(key, "not a duration: %q", raw)
	}
	return d, nil
}

func typesArg(req mcpproto.CallToolRequest, key string) ([]core.ItemType, error) {
	names := req.GetStringSlice(key, nil)
	if len(names) == 0 {
		return nil, nil
	}
	types := make([]core.ItemType, len(names))
	for i, name := range names {
		t, err := core.ParseItemType(name)
		if err != nil {
			return nil, core.NewValidationError(key, "unknown item type %q", name)
		}
		types[i] = t
	}
	return types, nil
}

func retrieveOptions(req mcpproto.CallToolRequest) (core.RetrieveOptions, error) {
	var (
		opts core.RetrieveOptions
		err  error
	)
	opts.MaxItems = req.GetInt("max_items", 0)
	opts.MinRelevance = req.GetFloat("min_relevance", 0)
	if opts.IncludeTypes, err = typesArg(req, "include_types"); err != nil {
		return opts, err
	}
	if opts.ExcludeTypes, err = typesArg(req, "exclude_types"); err != nil {
		return opts, err
	}
	if opts.MaxAge, err = durationArg(req, "max_age"); err != nil {
		return opts, err
	}
	if opts.Where, err = metadataArgValue(req, "where"); err != nil {
		return opts, err
	}
	return opts, nil
}

func pruneOptions(req mcpproto.CallToolRequest) (core.PruneOptions, error) {
	var opts core.PruneOptions
	minAge, err := durationArg(req, "min_age")
	if err != nil {
		return opts, err
	}
	opts.MinAge = minAge

	if _, ok := req.GetArguments()["max_relevance"]; ok {
		v, err := req.RequireFloat("max_relevance")
		if err != nil {
			return opts, core.NewValidationError("max_relevance", "must be a number")
		}
		opts.MaxRelevance = &v
	}
	return opts, nil
}
