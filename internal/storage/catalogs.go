package storage

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/blossom-engine/internal/content"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

// LoadCatalog reads and validates a catalog file. An empty path loads the
// embedded default catalog.
func LoadCatalog(path string) (*scenario.Scenario, error) {
	if path == "" {
		return content.PeachBlossom()
	}

	format, err := scenario.FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	s, err := scenario.Load(data, format)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	s.FileName = filepath.Base(path)
	return s, nil
}

// catalogFiles serves catalogs from a directory on disk, plus the embedded
// default catalog.
type catalogFiles struct {
	dir    string
	logger *slog.Logger
}

func (c catalogFiles) ListCatalogs(ctx context.Context) (map[string]string, error) {
	catalogs := map[string]string{}
	if embedded, err := content.PeachBlossom(); err == nil {
		catalogs[embedded.Name] = content.DefaultFileName
	}
	if c.dir == "" {
		return catalogs, nil
	}

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ferr := scenario.FormatFromPath(path); ferr != nil {
			return nil
		}

		s, err := LoadCatalog(path)
		if err != nil {
			c.logger.Warn("Skipping invalid catalog file", "path", path, "error", err)
			return nil
		}
		catalogs[s.Name] = filepath.Base(path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list catalogs: %w", err)
	}
	return catalogs, nil
}

func (c catalogFiles) GetCatalog(ctx context.Context, filename string) (*scenario.Scenario, error) {
	if filename == "" || filepath.Base(filename) != filename {
		return nil, fmt.Errorf("invalid catalog filename %q", filename)
	}

	if c.dir != "" {
		path := filepath.Join(c.dir, filename)
		if _, err := os.Stat(path); err == nil {
			return LoadCatalog(path)
		}
	}
	if filename == content.DefaultFileName {
		return content.PeachBlossom()
	}
	return nil, fmt.Errorf("catalog %s: %w", filename, storage.ErrNotFound)
}
