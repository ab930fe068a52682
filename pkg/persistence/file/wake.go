package file

import (
	"context"
	"time"

	"github.com/driftmail/automata/pkg/models"
)

const wakesDir = "wakes"

// WakeRepository stores pending wake records, keyed by execution id. An
// execution has at most one pending wake at a time.
type WakeRepository struct {
	persistence *Persistence
}

func (r *WakeRepository) Schedule(_ context.Context, executionID string, wakeAt time.Time) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	wake := &models.PendingWake{
		ExecutionID: executionID,
		WakeAt:      wakeAt.UTC(),
	}

	return r.persistence.writeDocument(wakesDir, executionID, wake)
}

func (r *WakeRepository) Due(_ context.Context, now time.Time) ([]*models.PendingWake, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	ids, err := r.persistence.listIDs(wakesDir)
	if err != nil {
		return nil, err
	}

	due := make([]*models.PendingWake, 0)

	for _, id := range ids {
		wake := &models.PendingWake{}
		if err := r.persistence.readDocument(wakesDir, id, wake); err != nil {
			return nil, err
		}

		if !wake.WakeAt.After(now) {
			due = append(due, wake)
		}
	}

	return due, nil
}

func (r *WakeRepository) Delete(_ context.Context, executionID string) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	return r.persistence.deleteDocument(wakesDir, executionID)
}
