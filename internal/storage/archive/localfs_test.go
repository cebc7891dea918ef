package archive

import (
	"context"
	"errors"
	"testing"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}

	ctx := context.Background()
	data := []byte(`{"name":"golden cross"}`)

	if err := fs.Write(ctx, "strategies/custom_1.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := fs.Read(ctx, "strategies/custom_1.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}

	if _, err := fs.Read(ctx, "strategies/missing.json"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.json")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	fs.Write(ctx, "exists.json", []byte("{}"))
	exists, _ = fs.Exists(ctx, "exists.json")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "strategies/b.json", []byte("b"))
	fs.Write(ctx, "strategies/a.json", []byte("a"))
	fs.Write(ctx, "results/c.json", []byte("c"))

	paths, err := fs.List(ctx, "strategies")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(paths) != 2 || paths[0] != "strategies/a.json" || paths[1] != "strategies/b.json" {
		t.Errorf("unexpected paths %v", paths)
	}

	all, _ := fs.List(ctx, "")
	if len(all) != 3 {
		t.Errorf("expected 3 paths, got %d", len(all))
	}

	none, err := fs.List(ctx, "missing")
	if err != nil || len(none) != 0 {
		t.Errorf("expected empty list for missing prefix, got %v, %v", none, err)
	}
}

func TestLocalFS_Delete(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	ctx := context.Background()

	fs.Write(ctx, "delete.json", []byte("data"))
	if err := fs.Delete(ctx, "delete.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, _ := fs.Exists(ctx, "delete.json")
	if exists {
		t.Error("file should be deleted")
	}
	if err := fs.Delete(ctx, "delete.json"); !errors.Is(err, ErrNotExist) {
		t.Errorf("expected ErrNotExist on second delete, got %v", err)
	}
}

func TestLocalFS_RejectsEscapingPaths(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, p := range []string{"../outside.json", "/etc/passwd", "a/../../b", ""} {
		if err := fs.Write(ctx, p, []byte("x")); err == nil {
			t.Errorf("expected error writing %q", p)
		}
	}
}
