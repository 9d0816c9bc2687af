package staging

import (
	"errors"
	"testing"

	"github.com/gogpu/texload/gpu"
)

// fakeDevice implements gpu.Device with in-memory buffers and records
// which mapping path was used.
type fakeDevice struct {
	caps gpu.Caps

	nextID     gpu.BufferID
	buffers    map[gpu.BufferID][]byte
	mapCalls   int
	rangeCalls int
	unmaps     int
	deletes    int
}

func newFakeDevice(caps gpu.Caps) *fakeDevice {
	return &fakeDevice{caps: caps, nextID: 1, buffers: make(map[gpu.BufferID][]byte)}
}

func (d *fakeDevice) Caps() gpu.Caps { return d.caps }

func (d *fakeDevice) CreateTexture(width, height int, format gpu.PixelFormat) (gpu.TextureID, error) {
	return gpu.InvalidID, errors.New("fake: not implemented")
}
func (d *fakeDevice) UploadTexture(gpu.TextureID, int, int, int, int, gpu.PixelFormat, []byte) {}
func (d *fakeDevice) UploadTextureFromBuffer(gpu.TextureID, int, int, int, int, gpu.PixelFormat, gpu.BufferID) {
}
func (d *fakeDevice) GenerateMipmaps(gpu.TextureID) {}
func (d *fakeDevice) DeleteTexture(gpu.TextureID)   {}

func (d *fakeDevice) CreateBuffer(size int) (gpu.BufferID, error) {
	id := d.nextID
	d.nextID++
	d.buffers[id] = make([]byte, size)
	return id, nil
}

func (d *fakeDevice) MapBuffer(id gpu.BufferID) ([]byte, error) {
	d.mapCalls++
	return d.buffers[id], nil
}

func (d *fakeDevice) MapBufferRange(id gpu.BufferID, offset, size int) ([]byte, error) {
	d.rangeCalls++
	return d.buffers[id][offset : offset+size], nil
}

func (d *fakeDevice) UnmapBuffer(id gpu.BufferID) error {
	d.unmaps++
	return nil
}

func (d *fakeDevice) DeleteBuffer(id gpu.BufferID) {
	d.deletes++
	delete(d.buffers, id)
}

func TestNewSelectsStrategy(t *testing.T) {
	tests := []struct {
		name       string
		caps       gpu.Caps
		wantDevice bool
		wantRange  bool
	}{
		{"mapped range", gpu.Caps{MappableBuffers: true, MapRange: true}, true, true},
		{"mapped", gpu.Caps{MappableBuffers: true}, true, false},
		{"host fallback", gpu.Caps{}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice(tt.caps)
			buf, err := New(dev, 64)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer func() { _ = buf.Dispose() }()

			if _, err := buf.Map(); err != nil {
				t.Fatalf("Map: %v", err)
			}

			gotDevice := dev.mapCalls+dev.rangeCalls > 0
			if gotDevice != tt.wantDevice {
				t.Errorf("device-backed = %v, want %v", gotDevice, tt.wantDevice)
			}
			if tt.wantDevice {
				gotRange := dev.rangeCalls > 0
				if gotRange != tt.wantRange {
					t.Errorf("range mapping = %v, want %v", gotRange, tt.wantRange)
				}
			}
		})
	}
}

func TestNewRejectsInvalidSize(t *testing.T) {
	dev := newFakeDevice(gpu.Caps{})
	for _, size := range []int{0, -1} {
		if _, err := New(dev, size); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(size=%d) err = %v, want ErrInvalidSize", size, err)
		}
	}
}

func TestDeviceBufferMapIdempotent(t *testing.T) {
	dev := newFakeDevice(gpu.Caps{MappableBuffers: true})
	buf, err := New(dev, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	r1, err := buf.Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	r2, err := buf.Map()
	if err != nil {
		t.Fatalf("second Map: %v", err)
	}
	if &r1[0] != &r2[0] {
		t.Error("second Map returned a different region")
	}
	if dev.mapCalls != 1 {
		t.Errorf("driver map calls = %d, want 1", dev.mapCalls)
	}
}

func TestDeviceBufferUploadWhileMappedPanics(t *testing.T) {
	dev := newFakeDevice(gpu.Caps{MappableBuffers: true})
	buf, err := New(dev, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := buf.Map(); err != nil {
		t.Fatalf("Map: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("UploadSource on a mapped buffer did not panic")
		}
	}()
	_, _ = buf.UploadSource()
}

func TestDeviceBufferUploadSource(t *testing.T) {
	dev := newFakeDevice(gpu.Caps{MappableBuffers: true})
	buf, err := New(dev, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	region, _ := buf.Map()
	region[0] = 0xAB
	if err := buf.Unmap(); err != nil {
		t.Fatalf("Unmap: %v", err)
	}

	src, err := buf.UploadSource()
	if err != nil {
		t.Fatalf("UploadSource: %v", err)
	}
	if src.Buffer == gpu.InvalidID {
		t.Error("device-backed source has no buffer ID")
	}
	if src.Bytes != nil {
		t.Error("device-backed source exposes host bytes")
	}
}

func TestDeviceBufferDispose(t *testing.T) {
	dev := newFakeDevice(gpu.Caps{MappableBuffers: true})
	buf, err := New(dev, 32)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Dispose while mapped must unmap first.
	if _, err := buf.Map(); err != nil {
		t.Fatalf("Map: %v", err)
	}
	if err := buf.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}
	if dev.unmaps != 1 {
		t.Errorf("unmaps = %d, want 1", dev.unmaps)
	}
	if dev.deletes != 1 {
		t.Errorf("deletes = %d, want 1", dev.deletes)
	}

	if _, err := buf.Map(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Map after Dispose err = %v, want ErrDisposed", err)
	}
	if err := buf.Unmap(); !errors.Is(err, ErrDisposed) {
		t.Errorf("Unmap after Dispose err = %v, want ErrDisposed", err)
	}
	if err := buf.Dispose(); !errors.Is(err, ErrDisposed) {
		t.Errorf("second Dispose err = %v, want ErrDisposed", err)
	}
	if _, err := buf.UploadSource(); !errors.Is(err, ErrDisposed) {
		t.Errorf("UploadSource after Dispose err = %v, want ErrDisposed", err)
	}
}

func TestHostPoolReuse(t *testing.T) {
	pool := NewHostPool()

	b1 := pool.Acquire(100)
	r1, err := b1.Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(r1) != 100 {
		t.Errorf("region len = %d, want 100", len(r1))
	}
	backing := &r1[:cap(r1)][0]
	if err := b1.Dispose(); err != nil {
		t.Fatalf("Dispose: %v", err)
	}

	b2 := pool.Acquire(50)
	r2, err := b2.Map()
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if &r2[:cap(r2)][0] != backing {
		t.Error("pool did not reuse the released block")
	}
}

func TestHostPoolRounding(t *testing.T) {
	pool := NewHostPool()

	b := pool.Acquire(1)
	r, _ := b.Map()
	if cap(r) != blockGranularity {
		t.Errorf("block cap = %d, want %d", cap(r), blockGranularity)
	}

	b2 := pool.Acquire(blockGranularity + 1)
	r2, _ := b2.Map()
	if cap(r2) != 2*blockGranularity {
		t.Errorf("block cap = %d, want %d", cap(r2), 2*blockGranularity)
	}
}

func TestHostPoolKeepsLargerBlock(t *testing.T) {
	pool := NewHostPool()

	big := pool.Acquire(3 * blockGranularity)
	small := pool.Acquire(1)
	_ = big.Dispose()
	_ = small.Dispose() // must not replace the larger pooled block

	b := pool.Acquire(2 * blockGranularity)
	r, _ := b.Map()
	if cap(r) != 3*blockGranularity {
		t.Errorf("reacquired block cap = %d, want %d (the larger pooled block)", cap(r), 3*blockGranularity)
	}
}

func TestHostPoolEvict(t *testing.T) {
	pool := NewHostPool()

	b := pool.Acquire(10)
	r, _ := b.Map()
	backing := &r[:cap(r)][0]
	_ = b.Dispose()

	pool.Evict()

	b2 := pool.Acquire(10)
	r2, _ := b2.Map()
	if &r2[:cap(r2)][0] == backing {
		t.Error("Evict did not drop the pooled block")
	}
}

func TestHostBufferUnmapNoop(t *testing.T) {
	b := NewHostPool().Acquire(16)
	if err := b.Unmap(); err != nil {
		t.Errorf("Unmap: %v", err)
	}

	src, err := b.UploadSource()
	if err != nil {
		t.Fatalf("UploadSource: %v", err)
	}
	if src.Bytes == nil || src.Buffer != gpu.InvalidID {
		t.Error("host-backed source should expose bytes, not a buffer ID")
	}
	if len(src.Bytes) != 16 {
		t.Errorf("source len = %d, want 16", len(src.Bytes))
	}
}
