package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// Source loads reference data from wherever it is kept.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Collections, error)
}

// FileSource reads Collections from a JSON document.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (f *FileSource) Name() string {
	return "file:" + f.Path
}

func (f *FileSource) Load(ctx context.Context) (*Collections, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}

	var c Collections
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse dataset file %s: %w", f.Path, err)
	}
	return &c, nil
}

// WriteFile stores c as indented JSON at path.
func WriteFile(path string, c *Collections) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write dataset file: %w", err)
	}
	return nil
}
