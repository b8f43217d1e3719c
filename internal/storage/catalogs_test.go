package storage

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/jwebster45206/blossom-engine/internal/content"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

const tinyYAML = `
name: Tiny
opening_scene: room
default_ending: A
endings:
  A:
    title: Out
scenes:
  room:
    background: room.png
    script:
      - type: narration
        text: A small room.
`

func TestLoadCatalog_Embedded(t *testing.T) {
	s, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("Failed to load embedded catalog: %v", err)
	}
	if s.FileName != content.DefaultFileName {
		t.Errorf("Expected filename %q, got %q", content.DefaultFileName, s.FileName)
	}
	if s.OpeningScene != "scene1" {
		t.Errorf("Expected opening scene 'scene1', got %q", s.OpeningScene)
	}
}

func TestLoadCatalog_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.yaml")
	if err := os.WriteFile(path, []byte(tinyYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	if s.Name != "Tiny" || s.FileName != "tiny.yaml" {
		t.Errorf("Unexpected catalog %q from %q", s.Name, s.FileName)
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"name":"Bad","opening_scene":"nowhere"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("Expected validation error for broken catalog")
	}

	if _, err := LoadCatalog(filepath.Join(dir, "story.txt")); err == nil {
		t.Error("Expected error for unsupported extension")
	}
	if _, err := LoadCatalog(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestCatalogFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "tiny.yml"), []byte(tinyYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte(`# notes`), 0o644); err != nil {
		t.Fatal(err)
	}

	c := catalogFiles{dir: dir, logger: slog.Default()}
	ctx := context.Background()

	list, err := c.ListCatalogs(ctx)
	if err != nil {
		t.Fatalf("Failed to list catalogs: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 catalogs, got %d: %v", len(list), list)
	}
	if list["Tiny"] != "tiny.yml" {
		t.Errorf("Expected Tiny -> tiny.yml, got %q", list["Tiny"])
	}

	if _, err := c.GetCatalog(ctx, "tiny.yml"); err != nil {
		t.Errorf("Failed to get catalog: %v", err)
	}
	if _, err := c.GetCatalog(ctx, content.DefaultFileName); err != nil {
		t.Errorf("Expected embedded catalog fallback, got %v", err)
	}
	if _, err := c.GetCatalog(ctx, "absent.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := c.GetCatalog(ctx, "../tiny.yml"); err == nil {
		t.Error("Expected error for path outside the catalog directory")
	}
}
