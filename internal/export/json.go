package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/daybook/internal/store"
)

// backupFile is the on-disk shape of a JSON backup.
type backupFile struct {
	App        string         `json:"app"`
	ExportedAt string         `json:"exported_at"`
	Counts     map[string]int `json:"counts"`
	Data       *store.AppData `json:"data"`
}

const appName = "daybook"

// ToJSON writes the whole data graph to path as an indented backup file.
func ToJSON(d store.AppData, path string) error {
	file := backupFile{
		App:        appName,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Counts:     d.Counts(),
		Data:       &d,
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}

// FromJSON reads a backup written by ToJSON. A bare envelope, as stored under
// store.DataKey, is accepted too.
func FromJSON(path string) (store.AppData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return store.AppData{}, fmt.Errorf("read json file: %w", err)
	}

	var file backupFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return store.AppData{}, fmt.Errorf("parse json: %w", err)
	}
	if file.Data != nil {
		return *file.Data, nil
	}

	var d store.AppData
	if err := json.Unmarshal(raw, &d); err != nil {
		return store.AppData{}, fmt.Errorf("parse json: %w", err)
	}
	if d.Version == "" {
		return store.AppData{}, fmt.Errorf("parse json: %s is not a daybook backup", path)
	}
	return d, nil
}
