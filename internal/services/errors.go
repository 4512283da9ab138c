package services

import (
	"context"
	"errors"
	"fmt"

	"reflections/internal/classifier"
	"reflections/internal/db"
	"reflections/internal/store"
)

// Error kinds returned by the services. Match them with errors.Is; the
// underlying cause stays in the chain.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrIntegrity  = errors.New("integrity violation")
	ErrClassifier = errors.New("classifier failure")
	ErrStorage    = errors.New("storage failure")
)

// storageError classifies an error coming out of the store or db packages.
func storageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return err
	case db.IsNotFound(err):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case db.IsDuplicateKey(err), db.IsForeignKeyViolation(err), errors.Is(err, store.ErrTopicOwnership):
		return fmt.Errorf("%w: %w", ErrIntegrity, err)
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}

// classifierError leaves failures caused by the caller's own context
// unclassified so they are not reported as a classifier outage.
func classifierError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return err
	}
	if !errors.Is(err, classifier.ErrUnavailable) {
		err = fmt.Errorf("%w: %w", classifier.ErrUnavailable, err)
	}
	return fmt.Errorf("%w: %w", ErrClassifier, err)
}
