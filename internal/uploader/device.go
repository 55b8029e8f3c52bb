package uploader

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// GpuBuffer is an opaque handle to a device buffer, minted by a GpuDevice.
type GpuBuffer struct{ id uuid.UUID }

// GpuAllocation is an opaque handle to the memory backing a GpuBuffer.
type GpuAllocation struct{ id uuid.UUID }

func (b GpuBuffer) String() string     { return b.id.String() }
func (a GpuAllocation) String() string { return a.id.String() }

// GpuDevice is the abstract boundary between the core and a real graphics
// backend: buffer create/destroy, map/unmap, and a synchronous
// transfer-queue copy for upload fallback paths. The renderer provides an
// implementation; the core only calls it.
type GpuDevice interface {
	CreateBuffer(ctx context.Context, sizeBytes int) (GpuBuffer, GpuAllocation, error)
	Map(alloc GpuAllocation) ([]byte, error)
	Unmap(alloc GpuAllocation) error
	DestroyBuffer(buf GpuBuffer, alloc GpuAllocation) error
	SubmitTransfer(ctx context.Context, src, dst GpuAllocation, sizeBytes int) error
}

// MemoryDevice is a reference GpuDevice backed by plain host memory. It
// lets the uploader and engine run end-to-end without a real graphics
// backend, and is what the test suite exercises against.
type MemoryDevice struct {
	mu          sync.Mutex
	allocations map[uuid.UUID][]byte
}

// NewMemoryDevice creates an empty in-memory device.
func NewMemoryDevice() *MemoryDevice {
	return &MemoryDevice{allocations: make(map[uuid.UUID][]byte)}
}

func (d *MemoryDevice) CreateBuffer(_ context.Context, sizeBytes int) (GpuBuffer, GpuAllocation, error) {
	if sizeBytes < 0 {
		return GpuBuffer{}, GpuAllocation{}, fmt.Errorf("uploader: negative buffer size %d", sizeBytes)
	}
	id := uuid.New()
	d.mu.Lock()
	d.allocations[id] = make([]byte, sizeBytes)
	d.mu.Unlock()
	return GpuBuffer{id: id}, GpuAllocation{id: id}, nil
}

func (d *MemoryDevice) Map(alloc GpuAllocation) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.allocations[alloc.id]
	if !ok {
		return nil, fmt.Errorf("uploader: map of unknown allocation %s", alloc.id)
	}
	return data, nil
}

func (d *MemoryDevice) Unmap(GpuAllocation) error { return nil }

func (d *MemoryDevice) DestroyBuffer(_ GpuBuffer, alloc GpuAllocation) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.allocations[alloc.id]; !ok {
		return fmt.Errorf("uploader: destroy of unknown allocation %s", alloc.id)
	}
	delete(d.allocations, alloc.id)
	return nil
}

func (d *MemoryDevice) SubmitTransfer(_ context.Context, src, dst GpuAllocation, sizeBytes int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	srcData, ok := d.allocations[src.id]
	if !ok {
		return fmt.Errorf("uploader: transfer from unknown allocation %s", src.id)
	}
	dstData, ok := d.allocations[dst.id]
	if !ok {
		return fmt.Errorf("uploader: transfer to unknown allocation %s", dst.id)
	}
	if sizeBytes > len(srcData) || sizeBytes > len(dstData) {
		return fmt.Errorf("uploader: transfer size %d exceeds allocation bounds", sizeBytes)
	}
	copy(dstData[:sizeBytes], srcData[:sizeBytes])
	return nil
}
