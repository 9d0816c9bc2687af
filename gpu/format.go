package gpu

// PixelFormat represents the storage format of uploaded pixel data.
type PixelFormat uint8

const (
	// FormatInvalid is the zero value; no format has been determined.
	FormatInvalid PixelFormat = iota

	// FormatRGBA8 is 32-bit RGBA (4 bytes per pixel).
	FormatRGBA8

	// FormatBGRA8 is 32-bit BGRA (4 bytes per pixel). Common surface
	// format on Windows and some GPU backends.
	FormatBGRA8

	// FormatGray8 is 8-bit grayscale (1 byte per pixel).
	FormatGray8

	formatCount
)

// BytesPerPixel returns the number of bytes per pixel for this format,
// or 0 for an invalid format.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case FormatRGBA8, FormatBGRA8:
		return 4
	case FormatGray8:
		return 1
	default:
		return 0
	}
}

// IsValid returns true if the format is a known concrete format.
func (f PixelFormat) IsValid() bool {
	return f > FormatInvalid && f < formatCount
}

// RowBytes calculates the number of bytes in a tightly packed row of the
// given width.
func (f PixelFormat) RowBytes(width int) int {
	return width * f.BytesPerPixel()
}

// ImageBytes calculates the total number of bytes for a tightly packed
// width x height image.
func (f PixelFormat) ImageBytes(width, height int) int {
	return f.RowBytes(width) * height
}

// String returns a string representation of the format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	case FormatGray8:
		return "Gray8"
	default:
		return "Invalid"
	}
}
