package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"creditmemo/internal/ai"
	"creditmemo/internal/model"
	"creditmemo/internal/vectorstore"
)

type fakeDocs struct {
	mu        sync.Mutex
	docs      map[string]*model.Document
	linkCalls int
	getErr    error
}

func newFakeDocs(docs ...*model.Document) *fakeDocs {
	f := &fakeDocs{docs: map[string]*model.Document{}}
	for _, d := range docs {
		f.docs[d.ID] = d
	}
	return f
}

func (f *fakeDocs) Create(ctx context.Context, scope model.TenantScope, doc *model.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc.ID == "" {
		doc.ID = fmt.Sprintf("doc-%d", len(f.docs)+1)
	}
	doc.TenantID = scope.TenantID()
	f.docs[doc.ID] = doc
	return nil
}

func (f *fakeDocs) GetByID(ctx context.Context, scope model.TenantScope, id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	d, ok := f.docs[id]
	if !ok || d.TenantID != scope.TenantID() {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDocs) LinkPortfolio(ctx context.Context, scope model.TenantScope, id, portfolioID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	d, ok := f.docs[id]
	if !ok || d.TenantID != scope.TenantID() || d.PortfolioID != nil {
		return false, nil
	}
	d.PortfolioID = &portfolioID
	return true, nil
}

func (f *fakeDocs) List(ctx context.Context, scope model.TenantScope) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, d := range f.docs {
		if d.TenantID == scope.TenantID() {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakeObjects struct {
	objects     map[string][]byte
	downloadErr error
	uploadErr   error
}

func (f *fakeObjects) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[bucket+"/"+path] = data
	return nil
}

func (f *fakeObjects) Download(ctx context.Context, bucket, path string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	b, ok := f.objects[bucket+"/"+path]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

// fakeExtractor treats the payload as already-extracted text.
type fakeExtractor struct {
	err error
}

func (f fakeExtractor) ExtractText(b []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return string(b), nil
}

type fakeEmbedder struct {
	mu         sync.Mutex
	dims       int
	batchCalls int
	queryCalls int
	// failOnBatch fails the n-th EmbedBatch call (1-based); 0 never fails.
	failOnBatch int
	queryErr    error
}

func (f *fakeEmbedder) vector(text string) []float32 {
	v := make([]float32, f.dims)
	for i := range v {
		v[i] = 1
	}
	v[0] = float32(len(text))
	return v
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batchCalls++
	if f.failOnBatch > 0 && f.batchCalls == f.failOnBatch {
		return nil, &ai.ProviderError{Op: ai.OpEmbedding, StatusCode: 500, Message: "upstream exploded"}
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vector(t)
	}
	return out, nil
}

type fakeCompleter struct {
	messages [][]ai.ChatMessage
	reply    string
	err      error
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.messages = append(f.messages, messages)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// spyStorage wraps a vectorstore.Storage and counts or fails searches.
type spyStorage struct {
	vectorstore.Storage
	searchCalls int
	searchErr   error
	matches     []model.QueryMatch
}

func (s *spyStorage) Search(ctx context.Context, scope model.PortfolioScope, query []float32, limit int) ([]model.QueryMatch, error) {
	s.searchCalls++
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if s.matches != nil {
		if len(s.matches) > limit {
			return s.matches[:limit], nil
		}
		return s.matches, nil
	}
	return s.Storage.Search(ctx, scope, query, limit)
}
