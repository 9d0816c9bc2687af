package texload

import (
	"fmt"

	"github.com/gogpu/texload/async"
	"github.com/gogpu/texload/decoder"
	"github.com/gogpu/texload/gpu"
	"github.com/gogpu/texload/staging"
)

// The load pipeline runs in two hops. An openJob reads the image header on
// a worker; its completion callback allocates a staging buffer and maps it
// on the owning goroutine, then submits a decodeJob that fills the region
// on a worker. The decode completion unmaps, creates the texture and
// uploads, again on the owner.
//
// Every completion callback re-checks the texture state under the manager
// lock before touching it. The texture may have been evicted, or the
// manager closed, while the job was on a worker; in that case the callback
// only releases the job's resources.

// openJob opens a decoder for one texture key.
type openJob struct {
	m       *Manager
	t       *Texture
	factory decoder.Factory
}

// run executes on a worker goroutine.
func (j *openJob) run() (decoder.Decoder, error) {
	r, err := j.m.source(j.t.key)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", j.t.key, err)
	}
	dec := j.factory.New(j.t.key, r)
	if err := dec.Open(); err != nil {
		_ = dec.Close()
		return nil, fmt.Errorf("open %q: %w", j.t.key, err)
	}
	return dec, nil
}

// Completed runs on the owning goroutine with an opened decoder.
func (j *openJob) Completed(dec decoder.Decoder) {
	m, t := j.m, j.t

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || t.state != stateOpening {
		_ = dec.Close()
		return
	}

	width, height, format := dec.Width(), dec.Height(), dec.Format()
	buf, err := staging.New(m.dev, format.ImageBytes(width, height))
	if err != nil {
		m.loadFailed(t, dec, nil, err)
		return
	}
	region, err := buf.Map()
	if err != nil {
		m.loadFailed(t, dec, buf, err)
		return
	}

	t.state = stateDecoding
	next := &decodeJob{
		m: m, t: t,
		dec: dec, buf: buf, region: region,
		width: width, height: height, format: format,
	}
	async.Run(m.completion, m.exec, next.run, next)
}

// Failed runs on the owning goroutine; the worker already closed the
// decoder.
func (j *openJob) Failed(err error) {
	m, t := j.m, j.t

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || t.state != stateOpening {
		return
	}
	m.loadFailed(t, nil, nil, err)
}

// decodeJob fills a mapped staging region with the decoded pixels.
type decodeJob struct {
	m   *Manager
	t   *Texture
	dec decoder.Decoder
	buf staging.Buffer

	region        []byte
	width, height int
	format        gpu.PixelFormat
}

// run executes on a worker goroutine. The mapped region is the only piece
// of owner state it touches, and the owner does not read it until the
// completion callback.
func (j *decodeJob) run() (struct{}, error) {
	if err := j.dec.Decode(j.region); err != nil {
		return struct{}{}, fmt.Errorf("decode %q: %w", j.t.key, err)
	}
	return struct{}{}, nil
}

// Completed runs on the owning goroutine with the region fully written.
func (j *decodeJob) Completed(struct{}) {
	m, t := j.m, j.t
	_ = j.dec.Close()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || t.state != stateDecoding {
		_ = j.buf.Dispose()
		return
	}

	if err := j.buf.Unmap(); err != nil {
		m.loadFailed(t, nil, j.buf, err)
		return
	}
	id, err := m.dev.CreateTexture(j.width, j.height, j.format)
	if err != nil {
		m.loadFailed(t, nil, j.buf, err)
		return
	}
	m.uploadStaged(id, 0, 0, j.width, j.height, j.format, j.buf)
	if m.dev.Caps().Mipmaps {
		m.dev.GenerateMipmaps(id)
	}
	_ = j.buf.Dispose()

	t.id = id
	t.width, t.height = j.width, j.height
	t.format = j.format
	t.state = stateResident
	m.active = append(m.active, t)

	Logger().Info("texture resident", "key", t.key,
		"width", j.width, "height", j.height, "format", j.format)
}

// Failed runs on the owning goroutine when decoding returned an error or
// panicked.
func (j *decodeJob) Failed(err error) {
	m, t := j.m, j.t

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || t.state != stateDecoding {
		_ = j.dec.Close()
		_ = j.buf.Dispose()
		return
	}
	m.loadFailed(t, j.dec, j.buf, err)
}

// loadFailed releases the pipeline resources of a failed load and returns
// the texture to the unloaded state so a later Use retries it. The
// placeholder stays bound in the meantime. Caller must hold m.mu.
func (m *Manager) loadFailed(t *Texture, dec decoder.Decoder, buf staging.Buffer, err error) {
	if dec != nil {
		_ = dec.Close()
	}
	if buf != nil {
		_ = buf.Dispose()
	}
	t.state = stateUnloaded
	Logger().Error("loading texture failed", "key", t.key, "error", err)
}
