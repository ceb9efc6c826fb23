package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Makepad-fr/waypoint/internal/model"
)

// ParseSnapshot decodes a bootstrap snapshot. It accepts a bare array or an
// object with a "checkpoints" or "tasks" array. Malformed input yields an
// empty collection and a logged warning, never an error.
func ParseSnapshot(data []byte, logger *slog.Logger) []model.Item {
	if logger == nil {
		logger = slog.Default()
	}
	items, err := decodeSnapshot(data)
	if err != nil {
		logger.Warn("discarding malformed snapshot", "error", err)
		return []model.Item{}
	}
	return items
}

func decodeSnapshot(data []byte) ([]model.Item, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []model.Item{}, nil
	}
	if data[0] == '[' {
		var items []model.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("json unmarshal: %w", err)
		}
		return items, nil
	}
	var wrapped struct {
		Checkpoints []model.Item `json:"checkpoints"`
		Tasks       []model.Item `json:"tasks"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	if wrapped.Tasks != nil {
		return wrapped.Tasks, nil
	}
	if wrapped.Checkpoints == nil {
		return []model.Item{}, nil
	}
	return wrapped.Checkpoints, nil
}

// LoadSnapshot reads a snapshot file. A missing file is an empty collection;
// other read failures are returned.
func LoadSnapshot(path string, logger *slog.Logger) ([]model.Item, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Item{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseSnapshot(b, logger), nil
}

// SaveSnapshot writes items as an indented JSON array, in sort-key order.
func SaveSnapshot(path string, items []model.Item) error {
	sorted := append([]model.Item{}, items...)
	model.SortItems(sorted)
	b, err := json.MarshalIndent(sorted, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}
