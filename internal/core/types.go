package core

import (
	"math"
	"time"
)

const (
	AppName          = "vibectx"
	AppUserAgent     = "vibectx/0.1"
	AppVersion       = "0.1.0"
	AppRepositoryURL = "https://github.com/thiagovelsa/vibe-coding-studio"
)

// ItemType is the closed tag set of context items.
type ItemType string

const (
	ItemTypeCode          ItemType = "code"
	ItemTypeConversation  ItemType = "conversation"
	ItemTypeDocumentation ItemType = "documentation"
	ItemTypeFeature       ItemType = "feature"
	ItemTypeProject       ItemType = "project"
)

// ItemTypes lists every known tag in declaration order.
var ItemTypes = []ItemType{
	ItemTypeCode,
	ItemTypeConversation,
	ItemTypeDocumentation,
	ItemTypeFeature,
	ItemTypeProject,
}

func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeCode, ItemTypeConversation, ItemTypeDocumentation, ItemTypeFeature, ItemTypeProject:
		return true
	}
	return false
}

func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", NewValidationError("type", "unknown item type %q", s)
	}
	return t, nil
}

// Well-known metadata keys written by the registration helpers.
const (
	MetaRole     = "role"
	MetaFilePath = "file_path"
	MetaLanguage = "language"
	MetaFormat   = "format"
)

// ContextItem is one atomic unit of context held by a session.
type ContextItem struct {
	ID        string            `json:"id"`
	Type      ItemType          `json:"type"`
	Content   string            `json:"content"`
	Relevance float64           `json:"relevance"`
	Source    string            `json:"source"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Clone returns a deep copy so callers never share the metadata map.
func (i ContextItem) Clone() ContextItem {
	i.Metadata = CloneMetadata(i.Metadata)
	return i
}

// NewItem is the caller input for registering an item. ID is optional.
type NewItem struct {
	ID        string
	Type      ItemType
	Content   string
	Relevance float64
	Source    string
	Metadata  map[string]string
}

func (n NewItem) Validate() error {
	if !n.Type.Valid() {
		return NewValidationError("type", "unknown item type %q", n.Type)
	}
	return ValidateRelevance(n.Relevance)
}

// ValidateRelevance rejects values outside [0,1], NaN included.
func ValidateRelevance(r float64) error {
	if math.IsNaN(r) || r < 0 || r > 1 {
		return NewValidationError("relevance", "must be within [0,1], got %v", r)
	}
	return nil
}

// Session is a detached view of a context session.
type Session struct {
	ID        string            `json:"id"`
	ProjectID string            `json:"project_id"`
	Items     []ContextItem     `json:"items"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SessionInfo is the item-less listing view of a session.
type SessionInfo struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is a derived, token-budgeted digest of a session.
type Summary struct {
	Text        string    `json:"summary"`
	Tokens      int       `json:"tokens"`
	Timestamp   time.Time `json:"timestamp"`
	SourceItems []string  `json:"source_items"`
}

// RetrieveOptions filters and bounds a retrieval. Zero values mean "no limit".
type RetrieveOptions struct {
	MaxItems     int
	IncludeTypes []ItemType
	ExcludeTypes []ItemType
	MinRelevance float64
	MaxAge       time.Duration
	Where        map[string]string
}

func (o RetrieveOptions) Validate() error {
	if o.MaxItems < 0 {
		return NewValidationError("max_items", "must not be negative")
	}
	if o.MaxAge < 0 {
		return NewValidationError("max_age", "must not be negative")
	}
	if err := ValidateRelevance(o.MinRelevance); err != nil {
		return NewValidationError("min_relevance", "must be within [0,1], got %v", o.MinRelevance)
	}
	for _, t := range o.IncludeTypes {
		if !t.Valid() {
			return NewValidationError("include_types", "unknown item type %q", t)
		}
	}
	for _, t := range o.ExcludeTypes {
		if !t.Valid() {
			return NewValidationError("exclude_types", "unknown item type %q", t)
		}
	}
	return nil
}

// ScoredItem is a retrieval hit with the score it was ranked by.
type ScoredItem struct {
	ContextItem
	Score float64 `json:"score"`
}

// RetrievalResult carries ranked items and, when the scorer was unavailable,
// the warning describing why ranking fell back to stored relevance.
type RetrievalResult struct {
	Items   []ScoredItem              `json:"items"`
	Warning *DegradedRetrievalWarning `json:"-"`
}

func (r *RetrievalResult) Degraded() bool {
	return r.Warning != nil
}

// PruneOptions selects items for removal. With neither threshold set the
// capacity policy applies.
type PruneOptions struct {
	MinAge       time.Duration
	MaxRelevance *float64
}

func (o PruneOptions) HasThresholds() bool {
	return o.MinAge > 0 || o.MaxRelevance != nil
}

func (o PruneOptions) Validate() error {
	if o.MinAge < 0 {
		return NewValidationError("min_age", "must not be negative")
	}
	if o.MaxRelevance != nil {
		if err := ValidateRelevance(*o.MaxRelevance); err != nil {
			return NewValidationError("max_relevance", "must be within [0,1], got %v", *o.MaxRelevance)
		}
	}
	return nil
}

func CloneMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
