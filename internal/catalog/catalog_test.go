package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "catalog.db")

	c, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer c.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("catalog database file was not created")
	}
}

func TestRecordAndList(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	run := &Run{
		Dataset:     "weather",
		Seed:        42,
		Rows:        365,
		Columns:     3,
		ContentHash: Hash([]byte("csv bytes")),
		OutputPath:  "/tmp/weather.csv",
	}
	if err := c.Record(ctx, run); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if run.ID == 0 {
		t.Error("Record() did not assign an ID")
	}
	if run.CreatedAt.IsZero() {
		t.Error("Record() did not set CreatedAt")
	}

	runs, err := c.List(ctx, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("List() returned %d runs, want 1", len(runs))
	}
	got := runs[0]
	if got.Dataset != "weather" || got.Seed != 42 || got.Rows != 365 || got.Columns != 3 {
		t.Errorf("List() run = %+v", got)
	}
	if got.ContentHash != run.ContentHash {
		t.Errorf("content hash = %q, want %q", got.ContentHash, run.ContentHash)
	}
}

func TestListFiltersByDataset(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	for _, name := range []string{"weather", "sales", "weather"} {
		if err := c.Record(ctx, &Run{Dataset: name, ContentHash: "x", OutputPath: "y"}); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	runs, err := c.List(ctx, "weather")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("List(weather) returned %d runs, want 2", len(runs))
	}
	for _, run := range runs {
		if run.Dataset != "weather" {
			t.Errorf("List(weather) returned run for %q", run.Dataset)
		}
	}
}

func TestLatest(t *testing.T) {
	c := openTestCatalog(t)
	ctx := context.Background()

	if run, err := c.Latest(ctx, "weather"); err != nil || run != nil {
		t.Fatalf("Latest() on empty catalog = %v, %v; want nil, nil", run, err)
	}

	old := &Run{Dataset: "weather", ContentHash: "a", OutputPath: "p", CreatedAt: time.Now().Add(-time.Hour).UTC()}
	recent := &Run{Dataset: "weather", ContentHash: "b", OutputPath: "p"}
	if err := c.Record(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := c.Record(ctx, recent); err != nil {
		t.Fatal(err)
	}

	got, err := c.Latest(ctx, "weather")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if got == nil || got.ContentHash != "b" {
		t.Errorf("Latest() = %+v, want the newer run", got)
	}
}

func TestHashStable(t *testing.T) {
	a := Hash([]byte("data"))
	b := Hash([]byte("data"))
	if a != b {
		t.Errorf("Hash not deterministic: %q != %q", a, b)
	}
	if a == Hash([]byte("other")) {
		t.Error("distinct inputs hashed equal")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
}
