package conv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownToHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "plain text",
			input:    "Hello world",
			expected: "<p>Hello world</p>\n",
		},
		{
			name:     "bold text",
			input:    "**bold**",
			expected: "<p><strong>bold</strong></p>\n",
		},
		{
			name:     "inline code",
			input:    "`code`",
			expected: "<p><code>code</code></p>\n",
		},
		{
			name:     "script tags sanitized",
			input:    "<script>alert('xss')</script>",
			expected: "\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MarkdownToHTML([]byte(tt.input))
			if got != tt.expected {
				t.Errorf("MarkdownToHTML(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		contains []string
		excludes []string
	}{
		{
			name:     "paragraphs",
			input:    "<p>first</p><p>second</p>",
			contains: []string{"first", "second"},
			excludes: []string{"<p>"},
		},
		{
			name:     "script body dropped",
			input:    "<div>visible</div><script>var secret = 1;</script>",
			contains: []string{"visible"},
			excludes: []string{"secret", "<script>"},
		},
		{
			name:     "style body dropped",
			input:    "<style>body { color: red }</style><span>styled</span>",
			contains: []string{"styled"},
			excludes: []string{"color"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HTMLToText(tt.input)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
			for _, unwanted := range tt.excludes {
				assert.NotContains(t, got, unwanted)
			}
		})
	}
}

func TestMarkdownToText(t *testing.T) {
	got, err := MarkdownToText([]byte("# Setup\n\nRun **make build** before `make test`."))
	require.NoError(t, err)

	assert.Contains(t, got, "make build")
	assert.Contains(t, got, "make test")
	assert.NotContains(t, got, "<h1>")
	assert.NotContains(t, got, "<strong>")
}
