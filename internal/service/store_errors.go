package service

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/carritos-api/internal/repository"
	"github.com/noah-isme/carritos-api/pkg/database"
	appErrors "github.com/noah-isme/carritos-api/pkg/errors"
)

// storeError maps a persistence failure to the caller-facing error. Typed errors pass through untouched.
func storeError(err error, message string) error {
	if err == nil {
		return nil
	}
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return typed
	}
	if database.IsBusy(err) {
		return appErrors.Wrap(err, appErrors.ErrStoreBusy.Code, appErrors.ErrStoreBusy.Status, appErrors.ErrStoreBusy.Message)
	}
	return appErrors.Internal(err, message)
}

// notFoundOr returns a NOT_FOUND error for missing rows and a store error otherwise.
func notFoundOr(err error, notFound, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return storeError(err, message)
}

// deleteError maps a borrower delete refused by an active loan. The CHECK on loans catches a loan
// that committed after the delete's snapshot on PostgreSQL.
func deleteError(err error, notFound, dependents, message string) error {
	if errors.Is(err, repository.ErrActiveLoan) || database.IsCheckViolation(err) {
		return appErrors.Clone(appErrors.ErrHasDependents, dependents)
	}
	return notFoundOr(err, notFound, message)
}

func validationError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
