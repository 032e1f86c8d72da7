package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/elbowspeak/nas-file-categorizer/internal/catalog"
)

func writeFile(t *testing.T, root, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanCollectsFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cats/a.jpg")
	writeFile(t, root, "dogs/b.PNG")
	writeFile(t, root, "loose.txt")

	s := New(root, 1, 0)
	var got []catalog.FileInfo
	if err := s.Scan(context.Background(), func(fi catalog.FileInfo) {
		got = append(got, fi)
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("scanned %d files, want 3", len(got))
	}

	sort.Slice(got, func(i, j int) bool { return got[i].Path < got[j].Path })
	if got[0].Path != "cats/a.jpg" {
		t.Errorf("path = %q, want slash-separated relative path", got[0].Path)
	}
	if got[1].Extension != ".png" {
		t.Errorf("extension = %q, want lowercased %q", got[1].Extension, ".png")
	}
	if got[0].Name != "a.jpg" {
		t.Errorf("name = %q, want %q", got[0].Name, "a.jpg")
	}
	if got[0].Size != 4 {
		t.Errorf("size = %d, want 4", got[0].Size)
	}
	if got[0].Modified == 0 {
		t.Error("modified timestamp not set")
	}
}

func TestScanProgress(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cats/a.jpg")
	writeFile(t, root, "cats/b.jpg")

	s := New(root, 1, 0)
	if err := s.Scan(context.Background(), func(catalog.FileInfo) {}); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	p := s.Progress()
	if p.ScanningActive {
		t.Error("ScanningActive should be false after scan")
	}
	if p.TotalFiles != 2 || p.ProcessedFiles != 2 {
		t.Errorf("progress = %d/%d, want 2/2", p.ProcessedFiles, p.TotalFiles)
	}
	if p.ErrorCount != 0 {
		t.Errorf("ErrorCount = %d, want 0", p.ErrorCount)
	}
}

func TestScanMissingRoot(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "does-not-exist"), 1, 0)
	if err := s.Scan(context.Background(), func(catalog.FileInfo) {}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestScanCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cats/a.jpg")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(root, 1, 0)
	if err := s.Scan(ctx, func(catalog.FileInfo) {}); err != context.Canceled {
		t.Fatalf("Scan with cancelled context = %v, want context.Canceled", err)
	}
}

func TestScanGuardReleased(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.jpg")

	s := New(root, 1, 0)
	for i := 0; i < 2; i++ {
		if err := s.Scan(context.Background(), func(catalog.FileInfo) {}); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
}

func TestStatFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "cats/a.jpg")

	s := New(root, 1, 0)
	fi, err := s.StatFile(filepath.Join(root, "cats", "a.jpg"))
	if err != nil {
		t.Fatalf("StatFile: %v", err)
	}
	if fi.Path != "cats/a.jpg" {
		t.Errorf("path = %q, want %q", fi.Path, "cats/a.jpg")
	}
	if fi.Extension != ".jpg" {
		t.Errorf("extension = %q, want %q", fi.Extension, ".jpg")
	}
}

func TestStatRetryGivesUp(t *testing.T) {
	root := t.TempDir()
	s := New(root, 2, time.Millisecond)

	start := time.Now()
	_, err := s.StatFile(filepath.Join(root, "missing.jpg"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	// One retry delay between the two attempts.
	if elapsed := time.Since(start); elapsed < time.Millisecond {
		t.Errorf("retry delay not applied, elapsed %v", elapsed)
	}
}
