package prompt

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
	"gopkg.in/yaml.v3"
)

const ContextSummary = "context_summary"

//go:embed prompts.yaml
var defaultPrompts []byte

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Library holds named prompt templates. Built-in templates can be replaced
// one by one from a YAML file in the runtime directory.
type Library struct {
	templates map[string]Template
}

// Load parses the built-in templates and overlays path when it exists.
func Load(path string) (*Library, error) {
	lib := &Library{templates: make(map[string]Template)}
	if err := lib.merge(defaultPrompts); err != nil {
		return nil, fmt.Errorf("built-in prompts: %w", err)
	}

	if path == "" {
		return lib, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return lib, nil
		}
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	if err := lib.merge(data); err != nil {
		return nil, fmt.Errorf("prompts %s: %w", path, err)
	}
	return lib, nil
}

func (l *Library) merge(data []byte) error {
	var set map[string]Template
	if err := yaml.Unmarshal(data, &set); err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}
	for name, tpl := range set {
		if strings.TrimSpace(tpl.User) == "" {
			return fmt.Errorf("template %q has no user prompt", name)
		}
		l.templates[name] = tpl
	}
	return nil
}

func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render fills {{ var }} placeholders and returns the chat messages. Every
// placeholder must have a value.
func (l *Library) Render(name string, vars map[string]string) ([]core.Message, error) {
	tpl, ok := l.templates[name]
	if !ok {
		return nil, fmt.Errorf("unknown prompt template %q", name)
	}

	var messages []core.Message
	if strings.TrimSpace(tpl.System) != "" {
		system, err := fill(tpl.System, vars)
		if err != nil {
			return nil, fmt.Errorf("template %s system: %w", name, err)
		}
		messages = append(messages, core.Message{Role: core.RoleSystem, Content: system})
	}

	user, err := fill(tpl.User, vars)
	if err != nil {
		return nil, fmt.Errorf("template %s user: %w", name, err)
	}
	messages = append(messages, core.Message{Role: core.RoleUser, Content: user})
	return messages, nil
}

func fill(text string, vars map[string]string) (string, error) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(text, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		v, ok := vars[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("missing variables: %s", strings.Join(missing, ", "))
	}
	return strings.TrimSpace(out), nil
}

// DefaultYAML returns the built-in templates, for seeding a runtime
// prompts.yaml.
func DefaultYAML() []byte {
	return append([]byte(nil), defaultPrompts...)
}
