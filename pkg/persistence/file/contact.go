package file

import (
	"context"
	"os"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
)

const contactsDir = "contacts"

// ContactRepository stores contact snapshots.
type ContactRepository struct {
	persistence *Persistence
}

func (r *ContactRepository) ByID(_ context.Context, id string) (*models.Contact, error) {
	r.persistence.mu.RLock()
	defer r.persistence.mu.RUnlock()

	contact := &models.Contact{}

	err := r.persistence.readDocument(contactsDir, id, contact)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.ErrContactNotFound
		}

		return nil, err
	}

	return contact, nil
}

func (r *ContactRepository) Save(_ context.Context, contact *models.Contact) error {
	r.persistence.mu.Lock()
	defer r.persistence.mu.Unlock()

	contact.UpdatedAt = time.Now().UTC()

	return r.persistence.writeDocument(contactsDir, contact.ID, contact)
}
