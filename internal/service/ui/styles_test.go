package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "abc", n: 5, want: "abc"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "cut", in: "abcdef", n: 4, want: "abc…"},
		{name: "runes", in: "héllo wörld", n: 6, want: "héllo…"},
		{name: "no_limit", in: "abc", n: 0, want: "abc"},
		{name: "one", in: "abc", n: 1, want: "…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.n))
		})
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"ID", "ITEMS"}, [][]string{{"s1", "3"}, {"s2", "0"}})
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "s1")
	assert.Contains(t, out, "s2")
}
