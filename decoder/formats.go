package decoder

import (
	"image/jpeg"
	"image/png"
	"io"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/webp"
)

func init() {
	Default.Register(pngFactory{})
	Default.Register(jpegFactory{})
	Default.Register(bmpFactory{})
	Default.Register(tgaFactory{})
	Default.Register(webpFactory{})
}

// pngFactory decodes PNG via the standard library.
type pngFactory struct{}

func (pngFactory) Description() string { return "PNG decoder (image/png)" }

func (pngFactory) Extensions() []string { return []string{".png"} }

func (pngFactory) New(key string, r io.ReadCloser) Decoder {
	return &imageDecoder{key: key, r: r, decodeFn: png.Decode, configFn: png.DecodeConfig}
}

// jpegFactory decodes JPEG via the standard library.
type jpegFactory struct{}

func (jpegFactory) Description() string { return "JPEG decoder (image/jpeg)" }

func (jpegFactory) Extensions() []string { return []string{".jpg", ".jpeg"} }

func (jpegFactory) New(key string, r io.ReadCloser) Decoder {
	return &imageDecoder{key: key, r: r, decodeFn: jpeg.Decode, configFn: jpeg.DecodeConfig}
}

// bmpFactory decodes BMP via golang.org/x/image/bmp.
type bmpFactory struct{}

func (bmpFactory) Description() string { return "BMP decoder (golang.org/x/image/bmp)" }

func (bmpFactory) Extensions() []string { return []string{".bmp"} }

func (bmpFactory) New(key string, r io.ReadCloser) Decoder {
	return &imageDecoder{key: key, r: r, decodeFn: bmp.Decode, configFn: bmp.DecodeConfig}
}

// tgaFactory decodes Targa images via github.com/ftrvxmtrx/tga.
type tgaFactory struct{}

func (tgaFactory) Description() string { return "TGA decoder (github.com/ftrvxmtrx/tga)" }

func (tgaFactory) Extensions() []string { return []string{".tga"} }

func (tgaFactory) New(key string, r io.ReadCloser) Decoder {
	return &imageDecoder{key: key, r: r, decodeFn: tga.Decode, configFn: tga.DecodeConfig}
}

// webpFactory decodes WebP via golang.org/x/image/webp (decode only; the
// x/image codec has no encoder).
type webpFactory struct{}

func (webpFactory) Description() string { return "WebP decoder (golang.org/x/image/webp)" }

func (webpFactory) Extensions() []string { return []string{".webp"} }

func (webpFactory) New(key string, r io.ReadCloser) Decoder {
	return &imageDecoder{key: key, r: r, decodeFn: webp.Decode, configFn: webp.DecodeConfig}
}
