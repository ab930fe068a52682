package models

import "time"

// Contact is the snapshot of a contact the engine evaluates conditions against
// and mutates through the tag/list/field capabilities. Contacts are referenced
// by id only; the engine does not own their lifecycle.
type Contact struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	FirstName string         `json:"first_name"`
	LastName  string         `json:"last_name"`
	Tags      []string       `json:"tags"`
	Lists     []string       `json:"lists"`
	Courses   []string       `json:"courses"`
	Fields    map[string]any `json:"fields"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Snapshot flattens the contact into the field map condition predicates read.
// Custom fields are overlaid on the built-in attributes.
func (c *Contact) Snapshot() map[string]any {
	snapshot := map[string]any{
		"id":         c.ID,
		"email":      c.Email,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
	}

	for k, v := range c.Fields {
		snapshot[k] = v
	}

	return snapshot
}

// HasTag reports whether the contact carries the tag.
func (c *Contact) HasTag(tag string) bool {
	return containsString(c.Tags, tag)
}

// OnList reports whether the contact is a member of the list.
func (c *Contact) OnList(list string) bool {
	return containsString(c.Lists, list)
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}

	return false
}
