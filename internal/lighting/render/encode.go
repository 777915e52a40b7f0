package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

var encoder = png.Encoder{CompressionLevel: png.BestSpeed}

// EncodePNG пишет кадр; для потока кадров скорость важнее размера.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := encoder.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
