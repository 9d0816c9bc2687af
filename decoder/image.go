package decoder

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/gogpu/texload/gpu"
)

// imageDecoder implements Decoder on top of a pair of stdlib-style decode
// functions. Open reads the full stream into memory and parses the header;
// Decode parses the pixel data and converts it into the destination region.
//
// Buffering the whole stream costs one extra copy of the compressed bytes
// but lets Open report dimensions without decoding pixels, which is what
// the two-phase load pipeline needs.
type imageDecoder struct {
	key string
	r   io.ReadCloser

	decodeFn func(io.Reader) (image.Image, error)
	configFn func(io.Reader) (image.Config, error)

	data   []byte
	width  int
	height int
	format gpu.PixelFormat
	opened bool
}

func (d *imageDecoder) Open() error {
	if d.r == nil {
		return fmt.Errorf("decoder: %s: no input", d.key)
	}

	data, err := io.ReadAll(d.r)
	if err != nil {
		return fmt.Errorf("decoder: %s: read: %w", d.key, err)
	}

	cfg, err := d.configFn(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("decoder: %s: parse header: %w", d.key, err)
	}

	d.data = data
	d.width = cfg.Width
	d.height = cfg.Height
	d.format = formatFor(cfg.ColorModel)
	d.opened = true
	return nil
}

func (d *imageDecoder) Width() int  { return d.width }
func (d *imageDecoder) Height() int { return d.height }

func (d *imageDecoder) Format() gpu.PixelFormat { return d.format }

func (d *imageDecoder) Decode(dst []byte) error {
	if !d.opened {
		return ErrNotOpened
	}
	if len(dst) != d.format.ImageBytes(d.width, d.height) {
		return fmt.Errorf("%w: got %d bytes, want %d",
			ErrBadRegion, len(dst), d.format.ImageBytes(d.width, d.height))
	}

	img, err := d.decodeFn(bytes.NewReader(d.data))
	if err != nil {
		return fmt.Errorf("decoder: %s: decode: %w", d.key, err)
	}

	bounds := image.Rect(0, 0, d.width, d.height)
	switch d.format {
	case gpu.FormatGray8:
		target := &image.Gray{Pix: dst, Stride: d.width, Rect: bounds}
		draw.Draw(target, bounds, img, img.Bounds().Min, draw.Src)
	default:
		target := &image.RGBA{Pix: dst, Stride: d.width * 4, Rect: bounds}
		draw.Draw(target, bounds, img, img.Bounds().Min, draw.Src)
	}
	return nil
}

func (d *imageDecoder) Close() error {
	d.data = nil
	d.opened = false
	if d.r == nil {
		return nil
	}
	r := d.r
	d.r = nil
	return r.Close()
}

// formatFor picks the upload format for a decoded color model. Grayscale
// sources stay single-channel; everything else is expanded to RGBA8.
func formatFor(m color.Model) gpu.PixelFormat {
	switch m {
	case color.GrayModel, color.Gray16Model:
		return gpu.FormatGray8
	default:
		return gpu.FormatRGBA8
	}
}
