package domain

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "zamstay-be/pkg/errors"
)

// ScopeKind selects the data partition a statistics request covers
type ScopeKind string

const (
	ScopeAdmin    ScopeKind = "admin"
	ScopeBusiness ScopeKind = "business"
)

// Scope is either the whole platform or a single owner's data
type Scope struct {
	Kind    ScopeKind `json:"kind"`
	OwnerID int64     `json:"owner_id,omitempty"`
}

// AdminScope returns the platform-wide scope
func AdminScope() Scope {
	return Scope{Kind: ScopeAdmin}
}

// BusinessScope returns the scope of one owner's data
func BusinessScope(ownerID int64) Scope {
	return Scope{Kind: ScopeBusiness, OwnerID: ownerID}
}

// ParseScope builds a scope from request strings. An empty kind is not
// defaulted to admin.
func ParseScope(kind, ownerID string) (Scope, error) {
	switch ScopeKind(strings.ToLower(strings.TrimSpace(kind))) {
	case ScopeAdmin:
		if strings.TrimSpace(ownerID) != "" {
			return Scope{}, apperrors.NewInvalidScopeError("admin scope does not take an owner id")
		}
		return AdminScope(), nil
	case ScopeBusiness:
		id, err := strconv.ParseInt(strings.TrimSpace(ownerID), 10, 64)
		if err != nil {
			return Scope{}, apperrors.NewInvalidScopeError(fmt.Sprintf("invalid owner id %q", ownerID))
		}
		s := BusinessScope(id)
		return s, s.Validate()
	}
	return Scope{}, apperrors.NewInvalidScopeError(fmt.Sprintf("unknown scope %q", kind))
}

// Validate checks a scope constructed in code
func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeAdmin:
		if s.OwnerID != 0 {
			return apperrors.NewInvalidScopeError("admin scope does not take an owner id")
		}
		return nil
	case ScopeBusiness:
		if s.OwnerID <= 0 {
			return apperrors.NewInvalidScopeError(fmt.Sprintf("invalid owner id %d", s.OwnerID))
		}
		return nil
	}
	return apperrors.NewInvalidScopeError(fmt.Sprintf("unknown scope %q", s.Kind))
}

// IsOwner reports whether the scope is restricted to one owner
func (s Scope) IsOwner() bool {
	return s.Kind == ScopeBusiness
}

func (s Scope) String() string {
	if s.Kind == ScopeBusiness {
		return fmt.Sprintf("business:%d", s.OwnerID)
	}
	return string(s.Kind)
}
