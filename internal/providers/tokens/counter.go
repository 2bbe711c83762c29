package tokens

import (
	"context"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/pkg/log"
)

const DefaultEncoding = "cl100k_base"

// Counter counts tokens with a tiktoken BPE encoding. The encoding is loaded
// on first use; if it cannot be loaded the character estimator takes over.
type Counter struct {
	encoding string
	fallback CharEstimator

	once sync.Once
	tk   *tiktoken.Tiktoken
}

func NewCounter(encoding string) *Counter {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &Counter{encoding: encoding}
}

// Load resolves the encoding eagerly and reports whether the exact
// tokenizer is available.
func (c *Counter) Load(ctx context.Context) bool {
	c.once.Do(func() {
		tk, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			log.FromCtx(ctx).Warn().
				Err(err).
				Str("encoding", c.encoding).
				Msg("tiktoken unavailable, estimating tokens from characters")
			return
		}
		c.tk = tk
	})
	return c.tk != nil
}

func (c *Counter) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	if !c.Load(context.Background()) {
		return c.fallback.CountTokens(text)
	}
	return len(c.tk.Encode(text, nil, nil))
}
