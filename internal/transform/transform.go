package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	// Image format decoders
	_ "image/gif"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP format support
)

// ErrDecode indicates the source bytes could not be decoded as an image.
// It wraps the underlying decoder error so callers can branch on it
// without depending on decoder internals.
var ErrDecode = errors.New("image decode failed")

// UnsupportedOrientationError indicates an EXIF orientation value
// outside the standard 1-8 table. It is distinct from a decode failure:
// the image data itself is fine.
type UnsupportedOrientationError struct {
	Value int
}

func (e *UnsupportedOrientationError) Error() string {
	return fmt.Sprintf("unsupported EXIF orientation value %d", e.Value)
}

// Engine is the thumbnail transform pipeline. MaxEdge and quality are
// fixed at construction; callers cannot override them per call.
type Engine struct {
	maxEdge int
	quality int
}

// New creates an Engine producing JPEG thumbnails whose longer edge
// does not exceed maxEdge pixels, encoded at the given quality (1-100).
func New(maxEdge, quality int) *Engine {
	return &Engine{maxEdge: maxEdge, quality: quality}
}

// Thumbnail decodes src, resizes it to fit within maxEdge x maxEdge
// (preserving aspect ratio, never upscaling), applies the EXIF
// orientation transform, and returns the JPEG-encoded result.
//
// The orientation transform is applied after the resize; for the
// rotating orientations (5-8) the output dimensions are therefore the
// swapped fitted dimensions, which still satisfy the maxEdge bound.
func (e *Engine) Thumbnail(src []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	orientation := ReadOrientation(src)

	thumb := imaging.Fit(img, e.maxEdge, e.maxEdge, imaging.Lanczos)

	oriented, err := Orient(thumb, orientation)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, oriented, &jpeg.Options{Quality: e.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadOrientation extracts the EXIF orientation value from raw image
// bytes. Absent or unreadable metadata yields 1 (no transform); a
// present but out-of-range value is returned as-is so Orient can
// reject it.
func ReadOrientation(src []byte) int {
	meta, err := exif.Decode(bytes.NewReader(src))
	if err != nil {
		return 1
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	value, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return value
}

// Orient applies the geometric transform for the standard 8-value EXIF
// orientation table. Values outside 1-8 return an
// UnsupportedOrientationError.
func Orient(img image.Image, orientation int) (image.Image, error) {
	switch orientation {
	case 1:
		return img, nil
	case 2:
		return imaging.FlipH(img), nil
	case 3:
		return imaging.Rotate180(img), nil
	case 4:
		return imaging.FlipV(img), nil
	case 5:
		return imaging.Transpose(img), nil
	case 6:
		return imaging.Rotate270(img), nil
	case 7:
		return imaging.Transverse(img), nil
	case 8:
		return imaging.Rotate90(img), nil
	}
	return nil, &UnsupportedOrientationError{Value: orientation}
}
