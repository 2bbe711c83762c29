package scorer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/coder/hnsw"
	"github.com/thiagovelsa/vibe-coding-studio-sub002/internal/core"
)

const defaultCacheSize = 2048

// Embedding scores content by cosine similarity between the query and
// content embeddings, mapped from [-1,1] onto [0,1]. Vectors are cached by
// text so a query is embedded once per retrieval pass; the oldest entry is
// evicted when the cache is full.
type Embedding struct {
	embedder core.Embedder
	maxCache int

	mu    sync.RWMutex
	cache map[string][]float32
	order []string
}

func NewEmbedding(embedder core.Embedder) *Embedding {
	return &Embedding{
		embedder: embedder,
		maxCache: defaultCacheSize,
		cache:    make(map[string][]float32),
	}
}

func (e *Embedding) Score(ctx context.Context, query, content string) (float64, error) {
	q, err := e.vector(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("embed query: %w", err)
	}
	c, err := e.vector(ctx, content)
	if err != nil {
		return 0, fmt.Errorf("embed content: %w", err)
	}
	if len(q) != len(c) {
		return 0, fmt.Errorf("embedding dimensions differ: %d vs %d", len(q), len(c))
	}

	distance := float64(hnsw.CosineDistance(q, c))
	if math.IsNaN(distance) {
		return 0, errors.New("cosine similarity undefined for zero vector")
	}

	score := 1 - distance/2
	return math.Min(1, math.Max(0, score)), nil
}

func (e *Embedding) vector(ctx context.Context, text string) ([]float32, error) {
	e.mu.RLock()
	v, ok := e.cache[text]
	e.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, errors.New("empty embedding")
	}

	e.remember(text, v)
	return v, nil
}

func (e *Embedding) remember(text string, v []float32) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.cache[text]; ok {
		e.cache[text] = v
		return
	}
	for len(e.order) > 0 && len(e.cache) >= e.maxCache {
		oldest := e.order[0]
		e.order[0] = ""
		e.order = e.order[1:]
		delete(e.cache, oldest)
	}
	e.cache[text] = v
	e.order = append(e.order, text)
}
