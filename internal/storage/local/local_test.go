package local

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{RootPath: t.TempDir(), CreateDirs: true})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPutGetRoundtrip(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	content := []byte("thumbnail bytes")

	if err := b.PutObject(ctx, "_thumbs/cats/a.jpg.jpg", bytes.NewReader(content), int64(len(content))); err != nil {
		t.Fatalf("PutObject: %v", err)
	}

	r, size, err := b.GetObject(ctx, "_thumbs/cats/a.jpg.jpg")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	defer r.Close()

	if size != int64(len(content)) {
		t.Errorf("size = %d, want %d", size, len(content))
	}
	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Errorf("content mismatch: %q", got)
	}
}

func TestPutLeavesNoTempFiles(t *testing.T) {
	root := t.TempDir()
	b, err := New(Config{RootPath: root, CreateDirs: true})
	if err != nil {
		t.Fatal(err)
	}

	content := []byte("x")
	if err := b.PutObject(context.Background(), "key.jpg", bytes.NewReader(content), 1); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestDeleteMissingIsNotError(t *testing.T) {
	b := newBackend(t)
	if err := b.DeleteObject(context.Background(), "never-existed.jpg"); err != nil {
		t.Errorf("DeleteObject on missing key: %v", err)
	}
}

func TestObjectExists(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	exists, err := b.ObjectExists(ctx, "nope.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if exists {
		t.Error("missing object reported as existing")
	}

	if err := b.PutObject(ctx, "yes.jpg", bytes.NewReader([]byte("x")), 1); err != nil {
		t.Fatal(err)
	}
	exists, err = b.ObjectExists(ctx, "yes.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("stored object reported as missing")
	}
}

func TestNewRejectsFileRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{RootPath: file}); err == nil {
		t.Fatal("expected error for non-directory root")
	}
}

func TestNewRequiresRootPath(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for empty root_path")
	}
}
