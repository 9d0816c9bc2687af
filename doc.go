// Package texload is an asynchronous, idle-evicting cache for GPU-resident
// textures.
//
// A [Manager] hands out [Texture] handles keyed by an opaque resource key
// (typically a path or URL). Textures load lazily: the first Use of an
// unloaded texture starts an asynchronous open/decode pipeline on a worker
// pool and immediately substitutes a placeholder, so the rendering
// goroutine never blocks on I/O or decoding. Decoded pixels are staged
// through package staging and uploaded on the owning goroutine; textures
// that go unused for a configurable number of frames are evicted by a
// bounded per-frame sweep and reload transparently on next use.
//
// The owning goroutine drives everything GPU-facing:
//
//	mgr, _ := texload.NewManager(dev, texload.DefaultConfig())
//	tex := mgr.Acquire("assets/stone.png")
//	for eachFrame {
//		id := tex.Use() // placeholder until resident; starts the load
//		draw(id)
//		mgr.Tick() // drain completions, advance frame, sweep idle textures
//	}
//
// Decode work runs on an [async.Pool] by default; any executor with
// fire-and-forget submission can be plugged in via [Config].
package texload
