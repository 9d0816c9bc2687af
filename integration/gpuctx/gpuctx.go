// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gpuctx bridges the texture cache to gogpu windows.
//
// Applications built on gogpu do not hand out a raw HAL device; they expose
// a gpucontext.TextureDrawer per frame. This package wraps that drawer so
// pixel data decoded by the cache (or produced by the caller) can be turned
// into drawable window textures:
//
//	up, _ := gpuctx.NewUploader(dc.AsTextureDrawer())
//	tex, _ := up.CreateRGBA(w, h, pixels)
//	up.Draw(tex, 100, 50)
//
// The textures created here live outside the cache's eviction sweep; the
// caller releases them with Destroy.
package gpuctx

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/texload/gpu"
)

// Uploader errors.
var (
	// ErrNilDrawer is returned when constructing an Uploader without a
	// draw context.
	ErrNilDrawer = errors.New("gpuctx: nil TextureDrawer")

	// ErrNoCreator is returned when the draw context has no texture
	// creator, which happens before the first frame is set up.
	ErrNoCreator = errors.New("gpuctx: draw context has no texture creator")

	// ErrNotDrawable is returned when a texture cannot be drawn through
	// the gpucontext interfaces.
	ErrNotDrawable = errors.New("gpuctx: texture is not drawable")

	// ErrNotUpdatable is returned when a texture does not support
	// in-place pixel updates.
	ErrNotUpdatable = errors.New("gpuctx: texture does not support updates")
)

// Uploader creates and draws window textures through a
// gpucontext.TextureDrawer.
//
// Uploader is not safe for concurrent use; call it from the goroutine that
// owns the draw context, the same one that drives the texture cache.
type Uploader struct {
	dc gpucontext.TextureDrawer
}

// NewUploader wraps a draw context. The drawer is typically obtained from
// the application's per-frame context.
func NewUploader(dc gpucontext.TextureDrawer) (*Uploader, error) {
	if dc == nil {
		return nil, ErrNilDrawer
	}
	return &Uploader{dc: dc}, nil
}

// CreateRGBA creates a window texture from tightly packed RGBA8 rows.
// data must be width*height*4 bytes.
func (u *Uploader) CreateRGBA(width, height int, data []byte) (any, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("gpuctx: invalid dimensions %dx%d", width, height)
	}
	if want := gpu.FormatRGBA8.ImageBytes(width, height); len(data) != want {
		return nil, fmt.Errorf("gpuctx: pixel data size mismatch: got %d bytes, want %d", len(data), want)
	}

	creator := u.dc.TextureCreator()
	if creator == nil {
		return nil, ErrNoCreator
	}
	tex, err := creator.NewTextureFromRGBA(width, height, data)
	if err != nil {
		return nil, fmt.Errorf("gpuctx: create texture: %w", err)
	}

	// gg-style pixel sources hand over premultiplied alpha; mark the
	// texture so the window composites it with the matching blend mode.
	if pt, ok := tex.(interface{ SetPremultiplied(bool) }); ok {
		pt.SetPremultiplied(true)
	}
	return tex, nil
}

// Update replaces the pixel content of a texture created by CreateRGBA.
// data must match the dimensions the texture was created with.
func (u *Uploader) Update(tex any, data []byte) error {
	updater, ok := tex.(gpucontext.TextureUpdater)
	if !ok {
		return ErrNotUpdatable
	}
	if err := updater.UpdateData(data); err != nil {
		return fmt.Errorf("gpuctx: texture update: %w", err)
	}
	return nil
}

// Draw draws a texture at the given window position.
func (u *Uploader) Draw(tex any, x, y float32) error {
	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrNotDrawable
	}
	return u.dc.DrawTexture(gpuTex, x, y)
}

// Destroy releases a texture created by CreateRGBA. Textures that do not
// expose a destroyer are ignored.
func (u *Uploader) Destroy(tex any) {
	if destroyer, ok := tex.(interface{ Destroy() }); ok {
		destroyer.Destroy()
	}
}

// PreferredFormat maps the provider's surface format to the cache pixel
// format that uploads without swizzling. Unknown surface formats default
// to RGBA8.
func PreferredFormat(provider gpucontext.DeviceProvider) gpu.PixelFormat {
	if provider == nil {
		return gpu.FormatRGBA8
	}
	switch provider.SurfaceFormat() {
	case gputypes.TextureFormatBGRA8Unorm:
		return gpu.FormatBGRA8
	default:
		return gpu.FormatRGBA8
	}
}
