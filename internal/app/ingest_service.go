package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"

	"creditmemo/internal/model"
	"creditmemo/internal/rag"
	"creditmemo/internal/telemetry"
	"creditmemo/internal/vectorstore"
)

var ErrInvalidInput = errors.New("invalid input")

type IngestConfig struct {
	ChunkMaxChars int
	BatchSize     int
	// Dimensions, when positive, is the required embedding length.
	Dimensions int
	// Atomic runs the delete and all inserts in one transaction.
	Atomic bool
}

type IngestInput struct {
	Scope       model.TenantScope
	DocumentID  string
	PortfolioID string
}

// IngestResult is returned on failure too; ChunksInserted then counts the
// rows that were written before the failing batch.
type IngestResult struct {
	DocumentID     string `json:"document_id"`
	ChunksInserted int    `json:"chunks_inserted"`
}

// IngestService turns a stored document into embedded, searchable chunks.
type IngestService struct {
	docs      DocumentStore
	objects   ObjectStore
	extractor TextExtractor
	embedder  Embedder
	chunks    vectorstore.Storage
	cfg       IngestConfig
	logger    *slog.Logger
}

func NewIngestService(
	docs DocumentStore,
	objects ObjectStore,
	extractor TextExtractor,
	embedder Embedder,
	chunks vectorstore.Storage,
	cfg IngestConfig,
	logger *slog.Logger,
) *IngestService {
	if cfg.ChunkMaxChars <= 0 {
		cfg.ChunkMaxChars = rag.DefaultMaxChars
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestService{
		docs:      docs,
		objects:   objects,
		extractor: extractor,
		embedder:  embedder,
		chunks:    chunks,
		cfg:       cfg,
		logger:    logger,
	}
}

func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (res IngestResult, err error) {
	res.DocumentID = in.DocumentID
	if !in.Scope.Valid() {
		return res, model.ErrMissingScope
	}
	if in.DocumentID == "" {
		return res, ErrInvalidInput
	}

	ctx, span := telemetry.StartSpan(ctx, "rag.ingest",
		attribute.String("tenant.id", in.Scope.TenantID()),
		attribute.String("document.id", in.DocumentID),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	log := s.logger.With("tenant", in.Scope.TenantID(), "document", in.DocumentID)
	started := time.Now()

	doc, err := s.loadDocument(ctx, in)
	if err != nil {
		return res, err
	}

	text, err := s.extract(ctx, doc)
	if err != nil {
		return res, err
	}

	_, chunkSpan := telemetry.StartSpan(ctx, "rag.chunk")
	pieces := rag.ChunkText(text, s.cfg.ChunkMaxChars)
	chunkSpan.SetAttributes(attribute.Int("chunks", len(pieces)))
	chunkSpan.End()
	if len(pieces) == 0 {
		return res, rag.Fail(rag.ErrNoIngestibleContent, fmt.Errorf("document %s produced no chunks", doc.ID))
	}
	log.Info("document chunked", "chunks", len(pieces), "text_chars", len(text))

	if s.cfg.Atomic {
		var inserted int
		err = s.chunks.Transaction(ctx, func(tx vectorstore.Storage) error {
			var werr error
			inserted, werr = s.replaceChunks(ctx, tx, in.Scope, doc, pieces, log)
			return werr
		})
		if err != nil {
			log.Warn("ingest rolled back", "error", err)
			return res, err
		}
		res.ChunksInserted = inserted
	} else {
		res.ChunksInserted, err = s.replaceChunks(ctx, s.chunks, in.Scope, doc, pieces, log)
		if err != nil {
			log.Warn("ingest aborted", "inserted", res.ChunksInserted, "error", err)
			return res, err
		}
	}

	log.Info("ingest finished", "inserted", res.ChunksInserted, "elapsed", time.Since(started))
	return res, nil
}

// loadDocument fetches the document and applies the one-time portfolio link.
func (s *IngestService) loadDocument(ctx context.Context, in IngestInput) (*model.Document, error) {
	doc, err := s.docs.GetByID(ctx, in.Scope, in.DocumentID)
	if err != nil {
		return nil, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	if doc == nil {
		return nil, rag.Fail(rag.ErrDocumentNotFound, fmt.Errorf("document %s", in.DocumentID))
	}

	if in.PortfolioID == "" || doc.PortfolioID != nil {
		return doc, nil
	}
	if _, err := in.Scope.WithPortfolio(in.PortfolioID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	linked, err := s.docs.LinkPortfolio(ctx, in.Scope, doc.ID, in.PortfolioID)
	if err != nil {
		return nil, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	if linked {
		pid := in.PortfolioID
		doc.PortfolioID = &pid
		return doc, nil
	}

	// Another request linked it first; its value wins.
	doc, err = s.docs.GetByID(ctx, in.Scope, in.DocumentID)
	if err != nil {
		return nil, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	if doc == nil {
		return nil, rag.Fail(rag.ErrDocumentNotFound, fmt.Errorf("document %s", in.DocumentID))
	}
	return doc, nil
}

func (s *IngestService) extract(ctx context.Context, doc *model.Document) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.extract", attribute.String("object.path", doc.ObjectPath))
	defer func() { telemetry.EndSpan(span, err) }()

	payload, err := s.objects.Download(ctx, doc.Bucket, doc.ObjectPath)
	if err != nil {
		return "", rag.Fail(rag.ErrStorageReadFailure, err)
	}
	text, err = s.extractor.ExtractText(payload)
	if err != nil {
		return "", rag.Fail(rag.ErrExtractionFailure, err)
	}
	return text, nil
}

// replaceChunks deletes the document's previous chunks and writes the new
// ones batch by batch. It returns how many rows were written, also on error.
func (s *IngestService) replaceChunks(
	ctx context.Context,
	store vectorstore.Storage,
	scope model.TenantScope,
	doc *model.Document,
	pieces []string,
	log *slog.Logger,
) (int, error) {
	deleted, err := store.DeleteByDocument(ctx, scope, doc.ID)
	if err != nil {
		return 0, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	if deleted > 0 {
		log.Info("previous chunks removed", "deleted", deleted)
	}

	inserted := 0
	for start := 0; start < len(pieces); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		n, err := s.writeBatch(ctx, store, scope, doc, pieces[start:end], start)
		inserted += n
		if err != nil {
			log.Warn("batch failed", "batch_start", start, "error", err)
			return inserted, err
		}
		log.Debug("batch stored", "batch_start", start, "size", n)
	}
	return inserted, nil
}

func (s *IngestService) writeBatch(
	ctx context.Context,
	store vectorstore.Storage,
	scope model.TenantScope,
	doc *model.Document,
	texts []string,
	offset int,
) (n int, err error) {
	ctx, span := telemetry.StartSpan(ctx, "rag.embed_batch",
		attribute.Int("batch.offset", offset),
		attribute.Int("batch.size", len(texts)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, rag.Fail(rag.ErrEmbeddingServiceFailure, err)
	}
	if len(vectors) != len(texts) {
		return 0, rag.Fail(rag.ErrEmbeddingServiceFailure,
			fmt.Errorf("got %d embeddings for %d inputs", len(vectors), len(texts)))
	}

	rows := make([]model.DocumentChunk, len(texts))
	for i, text := range texts {
		if s.cfg.Dimensions > 0 && len(vectors[i]) != s.cfg.Dimensions {
			return 0, rag.Fail(rag.ErrEmbeddingServiceFailure,
				fmt.Errorf("embedding %d has %d dimensions, want %d", offset+i, len(vectors[i]), s.cfg.Dimensions))
		}
		rows[i] = model.DocumentChunk{
			TenantID:    scope.TenantID(),
			DocumentID:  doc.ID,
			PortfolioID: doc.PortfolioID,
			ChunkIndex:  offset + i,
			Content:     text,
			Embedding:   pgvector.NewVector(vectors[i]),
		}
	}

	if err := store.InsertBatch(ctx, scope, rows); err != nil {
		return 0, rag.Fail(rag.ErrPersistenceFailure, err)
	}
	return len(rows), nil
}
