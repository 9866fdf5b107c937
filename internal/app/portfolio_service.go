package app

import (
	"context"
	"errors"
	"strings"

	"creditmemo/internal/model"
)

var ErrPortfolioNotFound = errors.New("portfolio company not found")

type PortfolioStore interface {
	Create(ctx context.Context, scope model.TenantScope, company *model.PortfolioCompany) error
	List(ctx context.Context, scope model.TenantScope) ([]model.PortfolioCompany, error)
	Delete(ctx context.Context, scope model.TenantScope, id string) (bool, error)
}

type PortfolioService struct {
	store PortfolioStore
}

func NewPortfolioService(store PortfolioStore) *PortfolioService {
	return &PortfolioService{store: store}
}

type CreatePortfolioInput struct {
	Scope    model.TenantScope
	UserID   string
	Name     string
	Ticker   string
	Industry string
	Country  string
	LEI      string
}

func (s *PortfolioService) List(ctx context.Context, scope model.TenantScope) ([]model.PortfolioCompany, error) {
	return s.store.List(ctx, scope)
}

func (s *PortfolioService) Create(ctx context.Context, in CreatePortfolioInput) (*model.PortfolioCompany, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidInput
	}
	company := &model.PortfolioCompany{
		UserID:   in.UserID,
		Name:     name,
		Ticker:   strings.ToUpper(strings.TrimSpace(in.Ticker)),
		Industry: strings.TrimSpace(in.Industry),
		Country:  strings.TrimSpace(in.Country),
		LEI:      strings.ToUpper(strings.TrimSpace(in.LEI)),
	}
	if err := s.store.Create(ctx, in.Scope, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *PortfolioService) Delete(ctx context.Context, scope model.TenantScope, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidInput
	}
	deleted, err := s.store.Delete(ctx, scope, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrPortfolioNotFound
	}
	return nil
}
