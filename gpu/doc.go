// Package gpu defines the graphics-API boundary consumed by texload.
//
// The cache itself never talks to a concrete graphics library. It drives a
// [Device], which hands out opaque resource IDs for textures and staging
// buffers. Backend packages (see backend/native) map these IDs onto real
// driver objects.
//
// All Device methods must be called from the goroutine that owns the GPU
// context. The cache guarantees this: worker goroutines only ever fill
// staging memory, never touch the Device.
package gpu
