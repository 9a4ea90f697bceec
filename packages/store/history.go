package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// historyLimit caps how many executions are retained, oldest dropped first.
const historyLimit = 50

// HistoryEntry records one executed request or chain.
type HistoryEntry struct {
	Kind            string    `json:"kind"`
	Name            string    `json:"name,omitempty"`
	Method          string    `json:"method,omitempty"`
	URL             string    `json:"url,omitempty"`
	StatusCode      int       `json:"status_code"`
	DurationSeconds float64   `json:"duration_seconds"`
	Success         bool      `json:"success"`
	ExecutedAt      time.Time `json:"executed_at"`
}

// AppendHistory records an execution, trimming to the retention cap.
func (s *Store) AppendHistory(entry HistoryEntry) error {
	history, err := s.History()
	if err != nil {
		return err
	}

	history = append(history, entry)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return os.WriteFile(s.path(HistoryFile), data, 0644)
}

// History returns all retained entries, oldest first.
func (s *Store) History() ([]HistoryEntry, error) {
	data, err := os.ReadFile(s.path(HistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(s.path(HistoryFile)), err)
	}

	var history []HistoryEntry
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to parse history: %w", err)
	}
	return history, nil
}

// ClearHistory removes all retained entries.
func (s *Store) ClearHistory() error {
	err := os.Remove(s.path(HistoryFile))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
