// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

var ErrWorkerNotFound = errors.New("worker not found in registry")

func LoadRegistry(path string) (*WorkerRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*WorkerRegistry, error) {
	var reg WorkerRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse worker registry: %w", err)
	}
	return &reg, nil
}

// Validate checks that IDs and task types are unique, categories are known
// and timeouts parse as durations. All problems are reported together.
func (r *WorkerRegistry) Validate() error {
	if len(r.Workers) == 0 {
		return errors.New("registry contains no workers")
	}

	var errs []error
	ids := make(map[string]bool)
	taskTypes := make(map[string]bool)
	for i, w := range r.Workers {
		name := w.ID
		if name == "" {
			name = "#" + strconv.Itoa(i)
			errs = append(errs, fmt.Errorf("worker %s: missing id", name))
		} else if ids[w.ID] {
			errs = append(errs, fmt.Errorf("duplicate worker id: %s", w.ID))
		}
		ids[w.ID] = true

		if w.DisplayName == "" {
			errs = append(errs, fmt.Errorf("worker %s: missing displayName", name))
		}
		if w.TaskType == "" {
			errs = append(errs, fmt.Errorf("worker %s: missing taskType", name))
		} else if taskTypes[w.TaskType] {
			errs = append(errs, fmt.Errorf("duplicate task type: %s", w.TaskType))
		}
		taskTypes[w.TaskType] = true

		if !Categories[w.Category] {
			errs = append(errs, fmt.Errorf("worker %s: unknown category %q", name, w.Category))
		}
		if _, err := time.ParseDuration(w.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("worker %s: invalid timeout %q", name, w.Timeout))
		}
		if w.Retries < 0 {
			errs = append(errs, fmt.Errorf("worker %s: negative retries", name))
		}
	}
	return errors.Join(errs...)
}

// Find returns the worker registered for taskType.
func (r *WorkerRegistry) Find(taskType string) (*Worker, error) {
	for i := range r.Workers {
		if r.Workers[i].TaskType == taskType {
			return &r.Workers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrWorkerNotFound, taskType)
}

// ByCategory groups workers by category, each group sorted by ID.
func (r *WorkerRegistry) ByCategory() map[string][]Worker {
	out := make(map[string][]Worker)
	for _, w := range r.Workers {
		out[w.Category] = append(out[w.Category], w)
	}
	for _, ws := range out {
		sort.Slice(ws, func(i, j int) bool { return ws[i].ID < ws[j].ID })
	}
	return out
}

// Update sets one field of the worker with the given ID.
func (r *WorkerRegistry) Update(id, field, value string) error {
	for i := range r.Workers {
		if r.Workers[i].ID != id {
			continue
		}
		w := &r.Workers[i]
		switch field {
		case "status":
			w.ImplementationStatus = value
		case "version":
			w.Version = value
		case "displayName":
			w.DisplayName = value
		case "description":
			w.Description = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			w.Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			w.Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		r.LastUpdated = time.Now().UTC().Format(time.RFC3339)
		return nil
	}
	return fmt.Errorf("worker with ID %s not found", id)
}

// Save writes the registry as indented JSON, creating the directory if needed.
func (r *WorkerRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
