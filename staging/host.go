package staging

import "sync"

// blockGranularity rounds host block sizes up so slightly different image
// sizes can share a recycled block.
const blockGranularity = 8192

// HostPool recycles host memory blocks for staging buffers on devices
// without mappable buffer support.
//
// The pool is intentionally lossy: it retains at most one free block, and
// an incoming block replaces the slot only when it is at least as large as
// the one already held. Callers must always be prepared for a miss; the
// slot may also be dropped at any time via Evict, e.g. under memory
// pressure.
//
// HostPool is safe for concurrent use.
type HostPool struct {
	mu   sync.Mutex
	slot []byte
}

// defaultHostPool serves buffers created through New.
var defaultHostPool = &HostPool{}

// NewHostPool creates an empty host memory pool.
func NewHostPool() *HostPool {
	return &HostPool{}
}

// Acquire returns a host-backed staging buffer of the given size, reusing
// the pooled block when it is large enough.
func (p *HostPool) Acquire(size int) Buffer {
	rounded := (size + blockGranularity - 1) &^ (blockGranularity - 1)

	p.mu.Lock()
	block := p.slot
	if block != nil && cap(block) >= size {
		p.slot = nil
	} else {
		block = nil
	}
	p.mu.Unlock()

	if block == nil {
		block = make([]byte, rounded)
	}
	return &hostBuffer{pool: p, block: block[:cap(block)], size: size}
}

// release offers a block back to the pool. A smaller block never replaces
// a larger pooled one.
func (p *HostPool) release(block []byte) {
	p.mu.Lock()
	if p.slot == nil || cap(p.slot) < cap(block) {
		p.slot = block
	}
	p.mu.Unlock()
}

// Evict drops the pooled block, if any. The next Acquire will allocate.
func (p *HostPool) Evict() {
	p.mu.Lock()
	p.slot = nil
	p.mu.Unlock()
}

// hostBuffer is a Buffer backed by pooled host memory. Map hands out the
// block directly and Unmap is a no-op: host memory needs no driver
// finalization before upload.
type hostBuffer struct {
	pool     *HostPool
	block    []byte
	size     int
	disposed bool
}

func (b *hostBuffer) Size() int { return b.size }

func (b *hostBuffer) Map() ([]byte, error) {
	if b.disposed {
		return nil, ErrDisposed
	}
	return b.block[:b.size], nil
}

func (b *hostBuffer) Unmap() error {
	if b.disposed {
		return ErrDisposed
	}
	return nil
}

func (b *hostBuffer) Dispose() error {
	if b.disposed {
		return ErrDisposed
	}
	b.pool.release(b.block)
	b.block = nil
	b.disposed = true
	return nil
}

func (b *hostBuffer) UploadSource() (Source, error) {
	if b.disposed {
		return Source{}, ErrDisposed
	}
	return Source{Bytes: b.block[:b.size]}, nil
}
