package gallery

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"cats/a.jpg", true},
		{"cats/a.JPG", true},
		{"b.png", true},
		{"raw/c.cr2", true},
		{"d.heic", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsImageFile(tt.path); got != tt.want {
			t.Errorf("IsImageFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestThumbKey(t *testing.T) {
	if got := ThumbKey("cats/a.jpg"); got != "_thumbs/cats/a.jpg.jpg" {
		t.Errorf("ThumbKey = %q", got)
	}
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGenerateThumbnailBounds(t *testing.T) {
	src := encodePNG(t, 800, 600)

	thumb, w, h, err := GenerateThumbnail(bytes.NewReader(src), 1)
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}
	if len(thumb) == 0 {
		t.Fatal("empty thumbnail")
	}
	if w != 400 || h != 300 {
		t.Errorf("thumbnail = %dx%d, want 400x300 (aspect preserved)", w, h)
	}

	// Output must be decodable JPEG.
	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("thumbnail format = %q, want jpeg", format)
	}
	if cfg.Width != 400 {
		t.Errorf("decoded width = %d, want 400", cfg.Width)
	}
}

func TestGenerateThumbnailSmallImageNotUpscaled(t *testing.T) {
	src := encodePNG(t, 100, 50)

	_, w, h, err := GenerateThumbnail(bytes.NewReader(src), 1)
	if err != nil {
		t.Fatal(err)
	}
	if w > 100 || h > 50 {
		t.Errorf("small image upscaled to %dx%d", w, h)
	}
}

func TestGenerateThumbnailRotatedOrientation(t *testing.T) {
	src := encodePNG(t, 800, 400)

	// Orientation 6 is a 90° rotation, so width and height swap.
	_, w, h, err := GenerateThumbnail(bytes.NewReader(src), 6)
	if err != nil {
		t.Fatal(err)
	}
	if w >= h {
		t.Errorf("orientation 6 should produce portrait thumbnail, got %dx%d", w, h)
	}
}

func TestGenerateThumbnailGarbage(t *testing.T) {
	if _, _, _, err := GenerateThumbnail(bytes.NewReader([]byte("not an image")), 1); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestImageDimensions(t *testing.T) {
	src := encodePNG(t, 320, 240)
	w, h, err := ImageDimensions(bytes.NewReader(src))
	if err != nil {
		t.Fatal(err)
	}
	if w != 320 || h != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", w, h)
	}
}

func TestExtractExifWithoutExif(t *testing.T) {
	src := encodePNG(t, 10, 10)

	d, err := ExtractExif(bytes.NewReader(src))
	if err != nil {
		t.Fatalf("ExtractExif should not fail on EXIF-less images: %v", err)
	}
	if d.Orientation != 1 {
		t.Errorf("default orientation = %d, want 1", d.Orientation)
	}
	if d.CameraMake != "" || d.CameraModel != "" {
		t.Errorf("unexpected camera fields: %+v", d)
	}
}
