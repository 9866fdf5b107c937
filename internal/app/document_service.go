package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"creditmemo/internal/model"
)

var (
	ErrFileTooLarge = errors.New("file too large")
	ErrUploadFailed = errors.New("upload failed")
)

var unsafeFilenameChars = regexp.MustCompile(`[^\w.\-() ]`)

type UploadInput struct {
	Scope       model.TenantScope
	UserID      string
	Filename    string
	ContentType string
	Data        []byte
}

type DocumentService struct {
	docs     DocumentStore
	objects  ObjectStore
	bucket   string
	maxBytes int64
	now      func() time.Time
	logger   *slog.Logger
}

func NewDocumentService(docs DocumentStore, objects ObjectStore, bucket string, maxBytes int64, logger *slog.Logger) *DocumentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentService{
		docs:     docs,
		objects:  objects,
		bucket:   bucket,
		maxBytes: maxBytes,
		now:      time.Now,
		logger:   logger,
	}
}

// Upload stores the bytes under <tenant>/<unix-millis>_<safe name> and
// records the document.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*model.Document, error) {
	if !in.Scope.Valid() {
		return nil, model.ErrMissingScope
	}
	if len(in.Data) == 0 {
		return nil, ErrInvalidInput
	}
	if s.maxBytes > 0 && int64(len(in.Data)) > s.maxBytes {
		return nil, ErrFileTooLarge
	}

	name := SanitizeFilename(in.Filename)
	objectPath := fmt.Sprintf("%s/%d_%s", in.Scope.TenantID(), s.now().UnixMilli(), name)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.objects.Upload(ctx, s.bucket, objectPath, in.Data, contentType); err != nil {
		s.logger.Error("object upload failed", "tenant", in.Scope.TenantID(), "path", objectPath, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	doc := &model.Document{
		UserID:     in.UserID,
		Bucket:     s.bucket,
		ObjectPath: objectPath,
		Filename:   name,
		MimeType:   contentType,
		SizeBytes:  int64(len(in.Data)),
	}
	if err := s.docs.Create(ctx, in.Scope, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, scope model.TenantScope) ([]model.Document, error) {
	return s.docs.List(ctx, scope)
}

// SanitizeFilename keeps word characters, dots, dashes, parentheses and
// spaces, replacing everything else with '_'.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	if name == "" || name == "." || name == "/" {
		name = "document.pdf"
	}
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}
