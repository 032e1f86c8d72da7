package gallery

import (
	"io"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// ExifData holds the EXIF metadata the gallery cares about.
type ExifData struct {
	Width       int
	Height      int
	CameraMake  string
	CameraModel string
	DateTaken   *time.Time
	Orientation int
}

// ExtractExif reads EXIF data from an image reader. Images without EXIF
// yield a default ExifData (orientation 1), not an error.
func ExtractExif(r io.Reader) (*ExifData, error) {
	d := &ExifData{Orientation: 1}

	x, err := exif.Decode(r)
	if err != nil {
		return d, nil
	}

	d.CameraMake = getTagString(x, exif.Make)
	d.CameraModel = getTagString(x, exif.Model)

	if dt, err := x.DateTime(); err == nil {
		d.DateTaken = &dt
	}

	if orient, err := x.Get(exif.Orientation); err == nil {
		if v, err := orient.Int(0); err == nil && v >= 1 && v <= 8 {
			d.Orientation = v
		}
	}

	// Dimensions from EXIF (PixelXDimension / PixelYDimension)
	if pw, err := x.Get(exif.PixelXDimension); err == nil {
		if v, err := pw.Int(0); err == nil {
			d.Width = v
		}
	}
	if ph, err := x.Get(exif.PixelYDimension); err == nil {
		if v, err := ph.Int(0); err == nil {
			d.Height = v
		}
	}

	return d, nil
}

// getTagString extracts a string value from an EXIF tag.
func getTagString(x *exif.Exif, f exif.FieldName) string {
	tag, err := x.Get(f)
	if err != nil {
		return ""
	}
	if tag.Format() == tiff.StringVal {
		s, _ := tag.StringVal()
		return s
	}
	return tag.String()
}
