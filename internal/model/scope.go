package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrMissingScope = errors.New("tenant scope is required")

// TenantScope is the only way store methods accept a tenant. Its field is
// unexported so a scope can only come from NewTenantScope.
type TenantScope struct {
	tenantID string
}

func NewTenantScope(tenantID string) (TenantScope, error) {
	if _, err := uuid.Parse(tenantID); err != nil {
		return TenantScope{}, fmt.Errorf("invalid tenant id %q: %w", tenantID, ErrMissingScope)
	}
	return TenantScope{tenantID: tenantID}, nil
}

func (s TenantScope) TenantID() string { return s.tenantID }

// Valid reports false for the zero value.
func (s TenantScope) Valid() bool { return s.tenantID != "" }

// WithPortfolio narrows the scope to one portfolio entry of the same tenant.
func (s TenantScope) WithPortfolio(portfolioID string) (PortfolioScope, error) {
	if !s.Valid() {
		return PortfolioScope{}, ErrMissingScope
	}
	if _, err := uuid.Parse(portfolioID); err != nil {
		return PortfolioScope{}, fmt.Errorf("invalid portfolio id %q: %w", portfolioID, ErrMissingScope)
	}
	return PortfolioScope{tenant: s, portfolioID: portfolioID}, nil
}

type PortfolioScope struct {
	tenant      TenantScope
	portfolioID string
}

func (s PortfolioScope) Tenant() TenantScope { return s.tenant }
func (s PortfolioScope) PortfolioID() string { return s.portfolioID }
func (s PortfolioScope) Valid() bool { return s.tenant.Valid() && s.portfolioID != "" }
