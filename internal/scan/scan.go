// Package scan turns barcode images into text. Decoding itself is
// delegated to gozxing; callers see only the Decoder interface.
package scan

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"strings"
)

// Decoder extracts the text of the first barcode found in an image. ok is
// false when no barcode could be read.
type Decoder interface {
	Decode(img image.Image) (text string, ok bool)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(img image.Image) (string, bool)

// Decode calls f.
func (f DecoderFunc) Decode(img image.Image) (string, bool) { return f(img) }

// ErrUnsupportedImage is returned when the input is not a PNG, JPEG or GIF.
var ErrUnsupportedImage = errors.New("unsupported image format")

// DecodeReader reads an image from r and decodes it with d. A decode
// failure of the image itself is an error; an unreadable barcode is not.
func DecodeReader(d Decoder, r io.Reader) (string, bool, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return "", false, ErrUnsupportedImage
		}
		return "", false, fmt.Errorf("reading image: %w", err)
	}
	text, ok := d.Decode(img)
	return strings.TrimSpace(text), ok, nil
}

// DecodeFile opens path and decodes it with d.
func DecodeFile(d Decoder, path string) (string, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()
	return DecodeReader(d, f)
}
