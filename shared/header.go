package shared

import "encoding/binary"

// headerSize is the fixed size, in bytes, reserved for the shared-ring
// header at the start of the mapped file. The actual queue (its sequence
// counters and slot array) begins immediately after it.
const headerSize = 4096

// signature identifies a file as holding a shared ring of this layout
// version. A process attaching to an existing file must refuse to proceed
// if this does not match, since any other value means either a foreign
// file or an incompatible layout from a different build.
const signature uint64 = 0x0BadBadB

// maxRefHolders bounds how many producer/consumer PIDs the header can
// record for diagnostics. It is a fixed-size reserved array, not a hard
// cap on the number of attached processes: ProducerCount/ConsumerCount
// keep counting past maxRefHolders, only the PID log saturates.
const maxRefHolders = 16

// byte offsets within the first headerSize bytes of the mapped file.
const (
	offSignature     = 0
	offHeaderSize    = 8
	offElemSize      = 16
	offCapacity      = 24
	offQueueOffset   = 32
	offQueueBytes    = 40
	offProducerCount = 48
	offConsumerCount = 56
	offProducerPIDs  = 64                                // maxRefHolders * 8 bytes
	offConsumerPIDs  = offProducerPIDs + maxRefHolders*8 // maxRefHolders * 8 bytes
)

// header is a decoded view over the first headerSize bytes of a mapped
// shared-ring file. Fields mirror the original implementation's
// shared_file_header: a signature and header size for layout validation,
// the element size and capacity the file was created with, where the
// queue region starts and how big it is, and best-effort producer/consumer
// bookkeeping used only for diagnostics, never for correctness.
type header struct {
	Signature     uint64
	HeaderSize    uint64
	ElemSize      uint64
	Capacity      uint64
	QueueOffset   uint64
	QueueBytes    uint64
	ProducerCount uint64
	ConsumerCount uint64
	ProducerPIDs  [maxRefHolders]uint64
	ConsumerPIDs  [maxRefHolders]uint64
}

// encodeHeader writes h into the first headerSize bytes of buf.
func encodeHeader(buf []byte, h *header) {
	binary.LittleEndian.PutUint64(buf[offSignature:], h.Signature)
	binary.LittleEndian.PutUint64(buf[offHeaderSize:], h.HeaderSize)
	binary.LittleEndian.PutUint64(buf[offElemSize:], h.ElemSize)
	binary.LittleEndian.PutUint64(buf[offCapacity:], h.Capacity)
	binary.LittleEndian.PutUint64(buf[offQueueOffset:], h.QueueOffset)
	binary.LittleEndian.PutUint64(buf[offQueueBytes:], h.QueueBytes)
	binary.LittleEndian.PutUint64(buf[offProducerCount:], h.ProducerCount)
	binary.LittleEndian.PutUint64(buf[offConsumerCount:], h.ConsumerCount)
	for i, pid := range h.ProducerPIDs {
		binary.LittleEndian.PutUint64(buf[offProducerPIDs+i*8:], pid)
	}
	for i, pid := range h.ConsumerPIDs {
		binary.LittleEndian.PutUint64(buf[offConsumerPIDs+i*8:], pid)
	}
}

// decodeHeader reads a header out of the first headerSize bytes of buf.
func decodeHeader(buf []byte) header {
	var h header
	h.Signature = binary.LittleEndian.Uint64(buf[offSignature:])
	h.HeaderSize = binary.LittleEndian.Uint64(buf[offHeaderSize:])
	h.ElemSize = binary.LittleEndian.Uint64(buf[offElemSize:])
	h.Capacity = binary.LittleEndian.Uint64(buf[offCapacity:])
	h.QueueOffset = binary.LittleEndian.Uint64(buf[offQueueOffset:])
	h.QueueBytes = binary.LittleEndian.Uint64(buf[offQueueBytes:])
	h.ProducerCount = binary.LittleEndian.Uint64(buf[offProducerCount:])
	h.ConsumerCount = binary.LittleEndian.Uint64(buf[offConsumerCount:])
	for i := range h.ProducerPIDs {
		h.ProducerPIDs[i] = binary.LittleEndian.Uint64(buf[offProducerPIDs+i*8:])
	}
	for i := range h.ConsumerPIDs {
		h.ConsumerPIDs[i] = binary.LittleEndian.Uint64(buf[offConsumerPIDs+i*8:])
	}
	return h
}
