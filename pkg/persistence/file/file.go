// Package file provides file-based persistence for development and tests.
// Records are stored as one JSON document per entity under the root directory.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/driftmail/automata/pkg/persistence"
)

// Persistence implements persistence.Persistence on the local filesystem.
// A single mutex serializes writes; the engine's per-execution ordering is
// enforced above this layer by the execution version check.
type Persistence struct {
	root          string
	mu            sync.RWMutex
	workflowRepo  *WorkflowRepository
	executionRepo *ExecutionRepository
	wakeRepo      *WakeRepository
	contactRepo   *ContactRepository
}

// NewPersistence creates a file persistence rooted at the given directory.
// Accepts plain paths and file:// URLs.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.workflowRepo = &WorkflowRepository{persistence: p}
	p.executionRepo = &ExecutionRepository{persistence: p}
	p.wakeRepo = &WakeRepository{persistence: p}
	p.contactRepo = &ContactRepository{persistence: p}

	return p
}

func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

func (p *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return p.executionRepo
}

func (p *Persistence) WakeRepository() persistence.WakeRepository {
	return p.wakeRepo
}

func (p *Persistence) ContactRepository() persistence.ContactRepository {
	return p.contactRepo
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) dir(kind string) string {
	return filepath.Join(p.root, kind)
}

func (p *Persistence) path(kind, id string) string {
	return filepath.Join(p.root, kind, id+".json")
}

// writeDocument persists a JSON document. Caller must hold the write lock.
func (p *Persistence) writeDocument(kind, id string, document any) error {
	if err := os.MkdirAll(p.dir(kind), 0o755); err != nil {
		return fmt.Errorf("failed to create %s directory: %w", kind, err)
	}

	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", kind, id, err)
	}

	if err := os.WriteFile(p.path(kind, id), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}

	return nil
}

// readDocument loads a JSON document. Returns os.ErrNotExist when absent.
// Caller must hold at least the read lock.
func (p *Persistence) readDocument(kind, id string, document any) error {
	data, err := os.ReadFile(p.path(kind, id))
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, document); err != nil {
		return fmt.Errorf("failed to unmarshal %s %s: %w", kind, id, err)
	}

	return nil
}

// listIDs returns the ids of all documents of a kind. Caller must hold at
// least the read lock.
func (p *Persistence) listIDs(kind string) ([]string, error) {
	entries, err := os.ReadDir(p.dir(kind))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read %s directory: %w", kind, err)
	}

	ids := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}

	return ids, nil
}

func (p *Persistence) deleteDocument(kind, id string) error {
	err := os.Remove(p.path(kind, id))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s %s: %w", kind, id, err)
	}

	return nil
}
