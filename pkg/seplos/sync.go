// SPDX-License-Identifier: MIT
// Copyright (c) 2025 DpunktS

package seplos

// compactThreshold is how far the read cursor may run ahead of the buffer
// start before the unconsumed tail is copied down. Resynchronization advances
// the cursor instead of shifting bytes, so long noise runs stay linear.
const compactThreshold = 512

// Synchronizer reconstructs frame boundaries from an unframed byte stream.
// It owns a working buffer with a read cursor: an invalid header drops
// exactly one byte (byte-at-a-time resynchronization), a recognized header
// declares the total frame length, and a complete candidate is CRC-checked.
// The buffer restarts from empty after every candidate, valid or not, so no
// partial frame ever survives a discard.
//
// A Synchronizer is owned by a single processing context; it does no locking.
type Synchronizer struct {
	buf   []byte
	start int // read cursor into buf

	droppedBytes   uint64
	crcErrors      uint64
	bufferDiscards uint64
}

// NewSynchronizer creates an empty synchronizer
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{
		buf: make([]byte, 0, FrameLenCellDetail*2),
	}
}

// Reset discards all buffered bytes. Call it when a transport is torn down
// so stale partial frames are never merged with bytes from after a
// reconnect. Counters are preserved.
func (s *Synchronizer) Reset() {
	s.buf = s.buf[:0]
	s.start = 0
}

// DroppedBytes returns the total number of bytes skipped during
// resynchronization.
func (s *Synchronizer) DroppedBytes() uint64 {
	return s.droppedBytes
}

// CRCErrors returns the total number of complete candidates rejected by the
// CRC check.
func (s *Synchronizer) CRCErrors() uint64 {
	return s.crcErrors
}

// BufferDiscards returns the number of whole-buffer discards caused by an
// undecodable declared length.
func (s *Synchronizer) BufferDiscards() uint64 {
	return s.bufferDiscards
}

// Pending returns the number of unconsumed buffered bytes
func (s *Synchronizer) Pending() int {
	return len(s.buf) - s.start
}

// Feed appends a chunk of input and returns every CRC-valid frame it
// completes, in arrival order. Chunks are processed byte by byte, so chunk
// boundaries carry no meaning. Malformed input never produces an error:
// misaligned bytes are skipped and corrupt candidates are dropped.
func (s *Synchronizer) Feed(p []byte) []*Frame {
	var frames []*Frame
	for _, b := range p {
		if f := s.feedByte(b); f != nil {
			frames = append(frames, f)
		}
	}
	return frames
}

// feedByte appends one byte and advances the synchronizer as far as the
// buffered input allows.
func (s *Synchronizer) feedByte(b byte) *Frame {
	s.buf = append(s.buf, b)

	for s.Pending() >= minHeaderBytes {
		if !validHeader(s.buf[s.start], s.buf[s.start+1], s.buf[s.start+2]) {
			// Drop exactly one byte and re-check. This is how alignment is
			// recovered after corruption or after attaching mid-stream.
			s.start++
			s.droppedBytes++
			s.compact()
			continue
		}

		expected := frameLength(s.buf[s.start+1], s.buf[s.start+2])
		if expected == 0 {
			// Undecodable declared length: the fill condition below would be
			// trivially true forever, so discard the whole buffer instead of
			// growing it unboundedly.
			s.bufferDiscards++
			s.Reset()
			return nil
		}

		if s.Pending() < expected {
			// Header is valid but the frame is still arriving.
			return nil
		}

		candidate := s.buf[s.start : s.start+expected]
		var frame *Frame
		if ValidFrame(candidate) {
			frame = NewFrame(append([]byte(nil), candidate...))
		} else {
			s.crcErrors++
		}

		// Synchronization restarts from empty regardless of the CRC outcome.
		s.Reset()
		return frame
	}

	return nil
}

// compact copies the unconsumed tail to the buffer start once the cursor has
// run far enough ahead. Keeps resync cost linear without reallocating on
// every dropped byte.
func (s *Synchronizer) compact() {
	if s.start < compactThreshold {
		return
	}
	n := copy(s.buf, s.buf[s.start:])
	s.buf = s.buf[:n]
	s.start = 0
}
