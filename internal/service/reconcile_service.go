package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"

	"eventhub/internal/model"
	"eventhub/internal/repository"
)

// Reconciler materializes a single relational user row from the auxiliary
// identity sources (credential file, external provider). The relational
// store is canonical; sync is strictly one-directional into it.
type Reconciler interface {
	EnsureUserInDatabase(ctx context.Context, email, fullName string) (*model.User, error)
}

type reconciler struct {
	users repository.UserRepository
}

// NewReconciler creates a reconciliation service over the user repository.
func NewReconciler(users repository.UserRepository) Reconciler {
	return &reconciler{users: users}
}

// EnsureUserInDatabase returns the relational row for email, inserting it
// with defaults when missing and refreshing full_name when it drifted. The
// operation is idempotent: concurrent first-logins race on the unique email
// index and the loser recovers by re-querying the winner's row.
func (r *reconciler) EnsureUserInDatabase(ctx context.Context, email, fullName string) (*model.User, error) {
	user, err := r.users.FindByEmail(ctx, email)
	if err == nil {
		if fullName != "" && user.FullName != fullName {
			if err := r.users.UpdateFullName(ctx, user.ID, fullName); err != nil {
				return nil, fmt.Errorf("update full name: %w", err)
			}
			user.FullName = fullName
		}
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	if fullName == "" {
		fullName = email
	}
	user = &model.User{
		Email:     model.CanonicalEmail(email),
		FullName:  fullName,
		IsActive:  true,
		IsAdmin:   false,
		CreatedAt: time.Now().UTC(),
	}

	if err := r.users.Create(ctx, user); err != nil {
		if !isDuplicateKey(err) {
			return nil, fmt.Errorf("create user: %w", err)
		}
		// Lost the race: someone else inserted this email first.
		log.Printf("reconcile: duplicate insert for %s, re-querying", email)
		existing, findErr := r.users.FindByEmail(ctx, email)
		if findErr != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		return existing, nil
	}
	return user, nil
}

// isDuplicateKey reports whether err is a unique constraint violation, both
// for translated gorm errors and raw MySQL driver errors (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysqldrv.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
