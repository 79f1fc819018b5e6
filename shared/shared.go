// Package shared places a bounded MPMC ring inside a memory-mapped file,
// so that unrelated OS processes — not just goroutines within one process —
// can attach as producers or consumers of the same queue. The wire layout
// is a fixed header (signature, element size, capacity, queue extent,
// best-effort producer/consumer bookkeeping) followed immediately by the
// queue's own sequence counters and slot array, all written directly into
// the mapped bytes so every attached process reads and writes the same
// memory.
package shared

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ErrIncompatible is returned by Open when an existing file's header does
// not match the signature, element size, or capacity the caller requested.
var ErrIncompatible = errors.New("shared: existing file has an incompatible layout")

// ErrInvalidCapacity is returned by Open when capacity is not a power of
// two, or is zero.
var ErrInvalidCapacity = errors.New("shared: capacity must be a power of two >= 1")

const cacheLinePad = 64

// queueCountersSize reserves one padded cache line each for the write and
// read sequence counters, ahead of the slot array.
const queueCountersSize = 2 * cacheLinePad

// sharedSlot is the on-disk layout of one ring cell, byte-identical across
// every process that maps the file. Its index field carries the same
// EMPTY/FULL parity encoding as the in-process ring's slot type; it is
// reimplemented here, rather than reused from package ring, because its
// memory must live inside the mapped file instead of a normal Go slice.
type sharedSlot[T any] struct {
	index uint64
	_     [cacheLinePad - 8]byte
	value T
}

// Ring is a handle onto a shared-memory MPMC ring backed by an open,
// memory-mapped file. Multiple Ring handles — in the same process or
// across processes — may safely attach to the same file concurrently.
type Ring[T any] struct {
	file     *os.File
	data     []byte
	capacity uint64
	mask     uint64

	writeSeq *uint64
	readSeq  *uint64
	slots    []sharedSlot[T]

	log *zap.Logger
}

// Open attaches to the shared ring backed by path, creating and
// initializing the file if it does not already exist or is shorter than
// the header. capacity must be a power of two >= 1 and must match the
// capacity an existing file was created with. logger may be nil, in which
// case a no-op logger is used. T must be a fixed-size value type that
// contains no pointers, since its bytes are shared with other processes;
// this is not checked.
func Open[T any](path string, capacity uint64, logger *zap.Logger) (*Ring[T], error) {
	if capacity == 0 || capacity&(capacity-1) != 0 {
		return nil, ErrInvalidCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	elemSize := uint64(unsafe.Sizeof(*new(T)))
	slotSize := uint64(unsafe.Sizeof(sharedSlot[T]{}))
	queueBytes := queueCountersSize + capacity*slotSize
	totalSize := int64(headerSize + queueBytes)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shared: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("shared: lock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shared: stat %s: %w", path, err)
	}

	fresh := info.Size() < headerSize
	if fresh {
		if err := f.Truncate(totalSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("shared: truncate %s: %w", path, err)
		}
	} else if info.Size() != totalSize {
		f.Close()
		return nil, fmt.Errorf("%w: file is %d bytes, want %d", ErrIncompatible, info.Size(), totalSize)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(totalSize), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shared: mmap %s: %w", path, err)
	}

	r := &Ring[T]{
		file:     f,
		data:     data,
		capacity: capacity,
		mask:     capacity - 1,
		log:      logger,
	}
	r.writeSeq = (*uint64)(unsafe.Pointer(&data[headerSize]))
	r.readSeq = (*uint64)(unsafe.Pointer(&data[headerSize+cacheLinePad]))
	r.slots = unsafe.Slice((*sharedSlot[T])(unsafe.Pointer(&data[headerSize+queueCountersSize])), capacity)

	if fresh {
		h := header{
			Signature:   signature,
			HeaderSize:  headerSize,
			ElemSize:    elemSize,
			Capacity:    capacity,
			QueueOffset: headerSize,
			QueueBytes:  queueBytes,
		}
		encodeHeader(data[:headerSize], &h)
		for i := range r.slots {
			atomic.StoreUint64(&r.slots[i].index, 2*uint64(i))
		}
		logger.Info("shared ring created",
			zap.String("path", path),
			zap.Uint64("capacity", capacity),
			zap.Uint64("elem_size", elemSize),
		)
	} else {
		h := decodeHeader(data[:headerSize])
		if h.Signature != signature || h.HeaderSize != headerSize || h.ElemSize != elemSize ||
			h.Capacity != capacity || h.QueueOffset != headerSize || h.QueueBytes != queueBytes {
			unix.Munmap(data)
			f.Close()
			return nil, fmt.Errorf(
				"%w: got signature=%#x header_size=%d elem_size=%d capacity=%d queue_offset=%d queue_bytes=%d, "+
					"want signature=%#x header_size=%d elem_size=%d capacity=%d queue_offset=%d queue_bytes=%d",
				ErrIncompatible,
				h.Signature, h.HeaderSize, h.ElemSize, h.Capacity, h.QueueOffset, h.QueueBytes,
				signature, uint64(headerSize), elemSize, capacity, uint64(headerSize), queueBytes)
		}
		logger.Info("shared ring attached", zap.String("path", path), zap.Uint64("capacity", capacity))
	}

	return r, nil
}

// Capacity returns the ring's fixed capacity.
func (r *Ring[T]) Capacity() uint64 { return r.capacity }

// AttachProducer records this process (by PID) as a producer of the ring,
// for diagnostics only; it has no effect on push/pop correctness. Call the
// returned release function when this process stops producing.
func (r *Ring[T]) AttachProducer() (release func()) {
	atomic.AddUint64((*uint64)(unsafe.Pointer(&r.data[offProducerCount])), 1)
	r.recordPID(offProducerPIDs, uint64(os.Getpid()))
	r.log.Debug("producer attached", zap.Int("pid", os.Getpid()))
	return func() {
		atomic.AddUint64((*uint64)(unsafe.Pointer(&r.data[offProducerCount])), ^uint64(0))
		r.log.Debug("producer detached", zap.Int("pid", os.Getpid()))
	}
}

// AttachConsumer records this process as a consumer, mirroring
// AttachProducer.
func (r *Ring[T]) AttachConsumer() (release func()) {
	atomic.AddUint64((*uint64)(unsafe.Pointer(&r.data[offConsumerCount])), 1)
	r.recordPID(offConsumerPIDs, uint64(os.Getpid()))
	r.log.Debug("consumer attached", zap.Int("pid", os.Getpid()))
	return func() {
		atomic.AddUint64((*uint64)(unsafe.Pointer(&r.data[offConsumerCount])), ^uint64(0))
		r.log.Debug("consumer detached", zap.Int("pid", os.Getpid()))
	}
}

// recordPID best-effort claims the first free (zero) slot in a
// maxRefHolders-sized PID array starting at byte offset base. Saturating
// past maxRefHolders silently drops the diagnostic record without
// affecting queue correctness.
func (r *Ring[T]) recordPID(base int, pid uint64) {
	for i := 0; i < maxRefHolders; i++ {
		slot := (*uint64)(unsafe.Pointer(&r.data[base+i*8]))
		if atomic.CompareAndSwapUint64(slot, 0, pid) {
			return
		}
	}
}

// Close unmaps the file and closes the underlying descriptor. It does not
// remove the file from disk.
func (r *Ring[T]) Close() error {
	if err := unix.Munmap(r.data); err != nil {
		return fmt.Errorf("shared: munmap: %w", err)
	}
	return r.file.Close()
}

// TryPush attempts to enqueue v. It returns false if the ring is
// conclusively full.
func (r *Ring[T]) TryPush(v T) bool {
	for {
		ws := atomic.LoadUint64(r.writeSeq)
		p := ws & r.mask
		s := &r.slots[p]
		idx := atomic.LoadUint64(&s.index)

		switch {
		case idx == 2*ws:
			if atomic.CompareAndSwapUint64(r.writeSeq, ws, ws+1) {
				s.value = v
				atomic.StoreUint64(&s.index, 2*ws+1)
				return true
			}
		case idx < 2*ws:
			return false
		default:
		}
	}
}

// TryPop attempts to dequeue into *v. It returns false if the ring is
// conclusively empty.
func (r *Ring[T]) TryPop(v *T) bool {
	for {
		rs := atomic.LoadUint64(r.readSeq)
		p := rs & r.mask
		s := &r.slots[p]
		idx := atomic.LoadUint64(&s.index)

		switch {
		case idx == 2*rs+1:
			if atomic.CompareAndSwapUint64(r.readSeq, rs, rs+1) {
				*v = s.value
				atomic.StoreUint64(&s.index, 2*(rs+r.capacity))
				return true
			}
		case idx < 2*rs+1:
			return false
		default:
		}
	}
}
