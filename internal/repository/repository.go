// Package repository persists the policy service entities with gorm.
//
// Every repository is scoped by owner: reads are limited to the caller's rows unless the
// scope is staff, and writes are always limited to the caller's rows. A row owned by someone
// else is reported as ErrNotFound so callers cannot learn whether it exists. Each write runs in
// a single transaction, including the nested get-or-create of tags and claims, and each
// entity's Validate is called before it is written.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/suteetoe/claimdesk/internal/model"
	"github.com/suteetoe/claimdesk/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to the caller.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Scope identifies the caller of a repository operation.
type Scope struct {
	UserID uint
	Staff  bool
}

// Owner is the scope of a regular user.
func Owner(userID uint) Scope {
	return Scope{UserID: userID}
}

// Writer drops the staff privilege: writes are owner-only.
func (s Scope) Writer() Scope {
	return Scope{UserID: s.UserID}
}

func (s Scope) apply(db *gorm.DB) *gorm.DB {
	if s.Staff {
		return db
	}
	return db.Where("user_id = ?", s.UserID)
}

// AttributeRepository is the behaviour shared by the attribute resources (tags and claims):
// list with an assigned-only switch, retrieve, partial update and delete.
type AttributeRepository[T any, P any] interface {
	List(ctx context.Context, scope Scope, assignedOnly bool) ([]T, error)
	Get(ctx context.Context, scope Scope, id uint) (*T, error)
	Update(ctx context.Context, scope Scope, id uint, patch P) (*T, error)
	Delete(ctx context.Context, scope Scope, id uint) error
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, ErrConflict):
		return ErrConflict
	}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return verr
	}
	return fmt.Errorf("%s: %w", what, err)
}

// rollback translates the error that aborted a write transaction. Errors the caller is expected
// to handle (missing rows, conflicts, validation) are returned quietly; anything else is logged
// with the request logger carried by ctx.
func rollback(ctx context.Context, err error, what string) error {
	translated := translate(err, what)
	if translated == nil || errors.Is(translated, ErrNotFound) || errors.Is(translated, ErrConflict) {
		return translated
	}
	var verr *model.ValidationError
	if errors.As(translated, &verr) {
		return translated
	}
	logger.FromContext(ctx).Error("Transaction rolled back", zap.String("operation", what), zap.Error(err))
	return translated
}
