package texload

import "errors"

// Manager and texture errors.
var (
	// ErrClosed is returned when operating on a closed Manager.
	ErrClosed = errors.New("texload: manager closed")

	// ErrManagedTexture is returned when a managed texture is mutated
	// through the unmanaged API. Managed textures change only through
	// the load pipeline.
	ErrManagedTexture = errors.New("texload: managed textures cannot be modified directly")

	// ErrInvalidDimensions is returned when width or height is not positive.
	ErrInvalidDimensions = errors.New("texload: invalid texture dimensions")

	// ErrInvalidFormat is returned when the pixel format is unknown.
	ErrInvalidFormat = errors.New("texload: invalid pixel format")

	// ErrBadPixelData is returned when the supplied pixel data does not
	// match width*height*bytesPerPixel.
	ErrBadPixelData = errors.New("texload: pixel data size mismatch")
)
