// Package services holds helpers shared by the service packages.
package services

import (
	"context"
	"errors"

	apperrors "github.com/dhavalaMadhav/swaminarayan.foundation/internal/errors"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/metrics"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/repositories/cache"
	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/storage"

	"go.uber.org/zap"
)

// TranslateRepoError maps repository sentinels onto domain errors. Anything
// else is returned unchanged.
func TranslateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrApplicantNotFound):
		return apperrors.ErrApplicantNotFound
	case errors.Is(err, repositories.ErrPaymentNotFound):
		return apperrors.ErrPaymentNotFound
	case errors.Is(err, repositories.ErrVersionConflict):
		return apperrors.ErrVersionConflict
	case errors.Is(err, repositories.ErrPaymentStateChanged):
		return apperrors.ErrPaymentState
	}
	return err
}

// ApplicantLockKey serializes every read-modify-write on one applicant.
func ApplicantLockKey(email string) string {
	return cache.GenerateKey(cache.EntityApplicant, cache.KeyEmail, email)
}

// Uploads stores request files and remembers their locators so a failed
// request can remove what it wrote.
type Uploads struct {
	store   storage.Storage
	metrics metrics.Collector
	stored  []string
}

func NewUploads(s storage.Storage, mc metrics.Collector) *Uploads {
	if mc == nil {
		mc = metrics.NoopCollector{}
	}
	return &Uploads{store: s, metrics: mc}
}

// Put stores f and returns its locator. A nil file yields "".
func (u *Uploads) Put(ctx context.Context, f *storage.File) (string, error) {
	if f == nil {
		return "", nil
	}
	loc, err := f.Store(ctx, u.store)
	if err != nil {
		return "", err
	}
	u.stored = append(u.stored, loc)
	u.metrics.RecordUpload(f.Field, f.Size)
	return loc, nil
}

// Discard removes everything stored through u.
func (u *Uploads) Discard(ctx context.Context, log *zap.Logger) {
	RemoveFiles(ctx, u.store, log, u.stored...)
	u.stored = nil
}

// RemoveFiles deletes locators best-effort, logging failures.
func RemoveFiles(ctx context.Context, s storage.Storage, log *zap.Logger, locators ...string) {
	if err := storage.DeleteAll(ctx, s, locators...); err != nil {
		log.Warn("failed to remove stored files", zap.Strings("locators", locators), zap.Error(err))
	}
}
