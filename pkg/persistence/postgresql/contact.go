package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/driftmail/automata/pkg/models"
	"github.com/driftmail/automata/pkg/persistence"
)

// ContactRepository stores contact snapshots.
type ContactRepository struct {
	db *sql.DB
}

func (r *ContactRepository) ByID(ctx context.Context, id string) (*models.Contact, error) {
	query := `
		SELECT id, email, first_name, last_name, tags, lists, courses, fields, updated_at
		FROM contacts
		WHERE id = $1
	`

	contact := &models.Contact{}

	var tagsJSON, listsJSON, coursesJSON, fieldsJSON []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&contact.ID,
		&contact.Email,
		&contact.FirstName,
		&contact.LastName,
		&tagsJSON,
		&listsJSON,
		&coursesJSON,
		&fieldsJSON,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrContactNotFound
		}

		return nil, fmt.Errorf("failed to query contact %s: %w", id, err)
	}

	for _, pair := range []struct {
		data []byte
		dest any
	}{
		{tagsJSON, &contact.Tags},
		{listsJSON, &contact.Lists},
		{coursesJSON, &contact.Courses},
		{fieldsJSON, &contact.Fields},
	} {
		if err := json.Unmarshal(pair.data, pair.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal contact %s: %w", id, err)
		}
	}

	return contact, nil
}

func (r *ContactRepository) Save(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()

	tagsJSON, err := json.Marshal(orEmpty(contact.Tags))
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	listsJSON, err := json.Marshal(orEmpty(contact.Lists))
	if err != nil {
		return fmt.Errorf("failed to marshal lists: %w", err)
	}

	coursesJSON, err := json.Marshal(orEmpty(contact.Courses))
	if err != nil {
		return fmt.Errorf("failed to marshal courses: %w", err)
	}

	fields := contact.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		INSERT INTO contacts (id, email, first_name, last_name, tags, lists, courses, fields, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			tags = EXCLUDED.tags,
			lists = EXCLUDED.lists,
			courses = EXCLUDED.courses,
			fields = EXCLUDED.fields,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		contact.ID,
		contact.Email,
		contact.FirstName,
		contact.LastName,
		tagsJSON,
		listsJSON,
		coursesJSON,
		fieldsJSON,
		contact.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save contact %s: %w", contact.ID, err)
	}

	return nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}

	return values
}
