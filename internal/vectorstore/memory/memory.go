package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"creditmemo/internal/model"
	"creditmemo/internal/vectorstore"
)

// Storage is an in-memory vectorstore.Storage using brute-force cosine
// similarity. It backs tests and local runs without Postgres.
type Storage struct {
	mu     sync.RWMutex
	txMu   sync.Mutex
	chunks []model.DocumentChunk
}

var _ vectorstore.Storage = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) DeleteByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error) {
	if !scope.Valid() {
		return 0, model.ErrMissingScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.chunks[:0]
	var deleted int64
	for _, c := range s.chunks {
		if c.TenantID == scope.TenantID() && c.DocumentID == documentID {
			deleted++
			continue
		}
		kept = append(kept, c)
	}
	s.chunks = kept
	return deleted, nil
}

func (s *Storage) InsertBatch(ctx context.Context, scope model.TenantScope, chunks []model.DocumentChunk) error {
	if !scope.Valid() {
		return model.ErrMissingScope
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range chunks {
		if c.TenantID != scope.TenantID() {
			return fmt.Errorf("chunk %d belongs to another tenant", c.ChunkIndex)
		}
		for _, existing := range s.chunks {
			if existing.TenantID == c.TenantID && existing.DocumentID == c.DocumentID && existing.ChunkIndex == c.ChunkIndex {
				return fmt.Errorf("duplicate chunk index %d for document %s", c.ChunkIndex, c.DocumentID)
			}
		}
	}
	s.chunks = append(s.chunks, chunks...)
	return nil
}

func (s *Storage) CountByDocument(ctx context.Context, scope model.TenantScope, documentID string) (int64, error) {
	if !scope.Valid() {
		return 0, model.ErrMissingScope
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, c := range s.chunks {
		if c.TenantID == scope.TenantID() && c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (s *Storage) Search(ctx context.Context, scope model.PortfolioScope, query []float32, limit int) ([]model.QueryMatch, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	if limit <= 0 {
		limit = 8
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenantID := scope.Tenant().TenantID()
	matches := make([]model.QueryMatch, 0)
	for _, c := range s.chunks {
		if c.TenantID != tenantID || c.PortfolioID == nil || *c.PortfolioID != scope.PortfolioID() {
			continue
		}
		matches = append(matches, model.QueryMatch{
			DocumentID: c.DocumentID,
			ChunkIndex: c.ChunkIndex,
			Content:    c.Content,
			Similarity: cosine(c.Embedding.Slice(), query),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Transaction snapshots the rows and restores them if fn fails.
// Transactions are serialized.
func (s *Storage) Transaction(ctx context.Context, fn func(tx vectorstore.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := append([]model.DocumentChunk(nil), s.chunks...)
	s.mu.RUnlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.chunks = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
