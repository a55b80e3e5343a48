package scan

import (
	"image"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/stockparts/internal/metrics"
)

// Scan results recorded by Instrument.
const (
	ResultDecoded  = "decoded"
	ResultNotFound = "not_found"
)

type instrumented struct {
	next    Decoder
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Instrument wraps d so every call is counted and logged.
func Instrument(d Decoder, m *metrics.Metrics, logger *zap.Logger) Decoder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &instrumented{next: d, metrics: m, logger: logger}
}

func (i *instrumented) Decode(img image.Image) (string, bool) {
	text, ok := i.next.Decode(img)
	result := ResultNotFound
	if ok {
		result = ResultDecoded
	}
	if i.metrics != nil {
		i.metrics.ScansTotal.WithLabelValues(result).Inc()
	}
	b := img.Bounds()
	i.logger.Debug("barcode scan",
		zap.String("result", result),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()))
	return text, ok
}
