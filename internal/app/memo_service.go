package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"creditmemo/internal/model"
)

// MaxHistory is the most memos History returns. The cached list always holds
// this many so any smaller limit can be served from it.
const MaxHistory = 200

var (
	ErrMemoEmpty   = errors.New("memo text is empty")
	ErrMemoEnqueue = errors.New("memo enqueue failed")
)

type MemoPublisher interface {
	Publish(ctx context.Context, memo model.Memo) error
}

type MemoStore interface {
	ListByTenant(ctx context.Context, scope model.TenantScope, limit int) ([]model.Memo, error)
}

type MemoHistoryCache interface {
	GetHistory(ctx context.Context, tenantID string) ([]model.Memo, bool, error)
	SetHistory(ctx context.Context, tenantID string, memos []model.Memo) error
	DeleteHistory(ctx context.Context, tenantID string) error
	MarkDirty(ctx context.Context, tenantID string) error
	IsDirty(ctx context.Context, tenantID string) (bool, error)
}

// MemoService saves memos asynchronously through the queue and serves the
// history from Redis when it is known to be fresh.
type MemoService struct {
	store        MemoStore
	publisher    MemoPublisher
	historyCache MemoHistoryCache
}

func NewMemoService(store MemoStore, publisher MemoPublisher, historyCache MemoHistoryCache) *MemoService {
	return &MemoService{
		store:        store,
		publisher:    publisher,
		historyCache: historyCache,
	}
}

func (s *MemoService) Save(ctx context.Context, scope model.TenantScope, userID, text string) (*model.Memo, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMemoEmpty
	}
	if s.publisher == nil {
		return nil, ErrMemoEnqueue
	}

	memo := model.Memo{
		ID:        uuid.NewString(),
		TenantID:  scope.TenantID(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, scope.TenantID())
		_ = s.historyCache.DeleteHistory(ctx, scope.TenantID())
	}
	if err := s.publisher.Publish(ctx, memo); err != nil {
		log.Printf("publish memo %s failed: %v", memo.ID, err)
		return nil, ErrMemoEnqueue
	}
	return &memo, nil
}

func (s *MemoService) History(ctx context.Context, scope model.TenantScope, limit int) ([]model.Memo, error) {
	if !scope.Valid() {
		return nil, model.ErrMissingScope
	}
	tenantID := scope.TenantID()

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, tenantID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, tenantID); cacheErr == nil && hit {
				return trimMemos(cached, limit), nil
			}
		}
	}

	memos, err := s.store.ListByTenant(ctx, scope, MaxHistory)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, tenantID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, tenantID, memos)
		}
	}
	return trimMemos(memos, limit), nil
}

func trimMemos(memos []model.Memo, limit int) []model.Memo {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}
	if len(memos) <= limit {
		return memos
	}
	return memos[:limit]
}
