package catalog

import (
	"reflect"
	"testing"
)

func rec(path string, size int64) ImageRecord {
	return ImageRecord{FileInfo: FileInfo{Path: path, Size: size}}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"cats/a.jpg", "cats"},
		{"cats/kittens/b.jpg", "cats"},
		{"loose.jpg", "loose.jpg"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CategoryOf(tt.path); got != tt.want {
			t.Errorf("CategoryOf(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestStorePutGetRemove(t *testing.T) {
	s := NewStore()

	s.Put(rec("cats/a.jpg", 10))
	got := s.Get("cats/a.jpg")
	if got == nil || got.FileInfo.Size != 10 {
		t.Fatalf("Get returned %+v", got)
	}

	if s.Get("unknown.jpg") != nil {
		t.Error("Get on unknown path should return nil")
	}

	if !s.Remove("cats/a.jpg") {
		t.Error("Remove should report true for existing record")
	}
	if s.Remove("cats/a.jpg") {
		t.Error("Remove should report false for missing record")
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d after remove, want 0", s.Len())
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Put(rec("cats/a.jpg", 10))

	got := s.Get("cats/a.jpg")
	got.Width = 999

	if s.Get("cats/a.jpg").Width != 0 {
		t.Error("mutating a Get result leaked into the store")
	}
}

func TestStoreListInsertionOrder(t *testing.T) {
	s := NewStore()
	s.Put(rec("dogs/b.jpg", 1))
	s.Put(rec("cats/a.jpg", 2))
	s.Put(rec("dogs/c.jpg", 3))

	// Re-putting an existing path must not change its position.
	s.Put(rec("dogs/b.jpg", 9))

	var got []string
	for _, r := range s.List() {
		got = append(got, r.FileInfo.Path)
	}
	want := []string{"dogs/b.jpg", "cats/a.jpg", "dogs/c.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("List order = %v, want %v", got, want)
	}
	if s.Get("dogs/b.jpg").FileInfo.Size != 9 {
		t.Error("re-put did not replace the record")
	}
}

func TestStoreListByCategory(t *testing.T) {
	s := NewStore()
	s.Put(rec("cats/a.jpg", 1))
	s.Put(rec("dogs/b.jpg", 2))
	s.Put(rec("cats/c.jpg", 3))

	got := s.ListByCategory("cats")
	if len(got) != 2 {
		t.Fatalf("ListByCategory returned %d records, want 2", len(got))
	}
	for _, r := range got {
		if CategoryOf(r.FileInfo.Path) != "cats" {
			t.Errorf("record %q does not belong to cats", r.FileInfo.Path)
		}
	}

	if got := s.ListByCategory("birds"); len(got) != 0 {
		t.Errorf("unknown category returned %d records", len(got))
	}
}

func TestStoreCategoriesFirstSeenOrder(t *testing.T) {
	s := NewStore()
	s.Put(rec("dogs/a.jpg", 1))
	s.Put(rec("cats/b.jpg", 2))
	s.Put(rec("dogs/c.jpg", 3))
	s.Put(rec("loose.jpg", 4))

	got := s.Categories()
	want := []CategoryCount{
		{Category: "dogs", Count: 2},
		{Category: "cats", Count: 1},
		{Category: "loose.jpg", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Categories = %v, want %v", got, want)
	}
}

func TestStoreSetEnrichment(t *testing.T) {
	s := NewStore()
	s.Put(rec("cats/a.jpg", 1))

	s.SetEnrichment("cats/a.jpg", Enrichment{
		Width:        800,
		Height:       600,
		CameraMake:   "Canon",
		HasThumbnail: true,
	})

	got := s.Get("cats/a.jpg")
	if got.Width != 800 || got.Height != 600 || got.CameraMake != "Canon" || !got.HasThumbnail {
		t.Errorf("enrichment not applied: %+v", got)
	}

	// Unknown path is a no-op, not a panic.
	s.SetEnrichment("nope.jpg", Enrichment{Width: 1})
}

func TestStoreStats(t *testing.T) {
	s := NewStore()
	s.Put(rec("cats/a.jpg", 100))
	s.Put(rec("cats/b.jpg", 200))
	s.Put(rec("dogs/c.jpg", 300))
	s.SetEnrichment("cats/a.jpg", Enrichment{HasThumbnail: true})

	st := s.Stats()
	if st.TotalImages != 3 {
		t.Errorf("TotalImages = %d, want 3", st.TotalImages)
	}
	if st.TotalSize != 600 {
		t.Errorf("TotalSize = %d, want 600", st.TotalSize)
	}
	if st.WithThumbnail != 1 {
		t.Errorf("WithThumbnail = %d, want 1", st.WithThumbnail)
	}
	if st.Categories != 2 {
		t.Errorf("Categories = %d, want 2", st.Categories)
	}
}
