package scan

import (
	"image"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// ZXingDecoder tries a fixed list of symbologies in order: Code 128,
// Code 39, EAN/UPC, then QR. Readers carry per-call state, so a fresh set
// is built for every Decode and the decoder is safe for concurrent use.
type ZXingDecoder struct {
	tryHarder bool
}

// NewZXingDecoder returns a decoder with TRY_HARDER enabled.
func NewZXingDecoder() *ZXingDecoder {
	return &ZXingDecoder{tryHarder: true}
}

func (z *ZXingDecoder) readers() []gozxing.Reader {
	return []gozxing.Reader{
		oned.NewCode128Reader(),
		oned.NewCode39Reader(),
		oned.NewMultiFormatUPCEANReader(nil),
		qrcode.NewQRCodeReader(),
	}
}

// Decode implements Decoder.
func (z *ZXingDecoder) Decode(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}
	hints := map[gozxing.DecodeHintType]interface{}{}
	if z.tryHarder {
		hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}
	for _, r := range z.readers() {
		result, err := r.Decode(bmp, hints)
		if err != nil || result == nil {
			continue
		}
		if text := result.GetText(); text != "" {
			return text, true
		}
	}
	return "", false
}
