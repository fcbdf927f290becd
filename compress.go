package csnappy

import "math/bits"

// Compress compresses src into dst and returns the number of bytes written.
// dst must be at least MaxCompressedLength(len(src)) bytes, otherwise
// ErrOutputOverrun is returned before anything is written.
//
// This is a greedy single-pass compressor optimized for speed over
// compression ratio.
func Compress(src, dst []byte) (int, error) {
	var table [ScratchBytes / 2]uint16
	return CompressWithScratch(src, dst, table[:], MaxScratchBits)
}

// CompressWithScratch is Compress with a caller-provided scratch table, for
// callers that compress many blocks and want to reuse the working memory.
// table must have at least 1<<(w-1) cells and MinScratchBits <= w <=
// MaxScratchBits; the table contents need not be zeroed between calls.
//
// The scratch table must not be shared by concurrent calls.
func CompressWithScratch(src, dst []byte, table []uint16, w int) (int, error) {
	checkScratch(table, w)
	n := MaxCompressedLength(len(src))
	if n < 0 {
		return 0, ErrTooLarge
	}
	if len(dst) < n {
		return 0, ErrOutputOverrun
	}

	d := putUvarint32(dst, uint32(len(src)))
	for len(src) > 0 {
		frag := src
		if len(frag) > maxFragmentSize {
			frag = frag[:maxFragmentSize]
		}
		// A short final fragment needs fewer table cells; shrinking w
		// avoids re-zeroing scratch the fragment cannot address.
		fw := w
		if len(frag) < maxFragmentSize {
			for fw = MinScratchBits; fw < w; fw++ {
				if 1<<(fw-1) >= len(frag) {
					break
				}
			}
		}
		d += CompressFragment(frag, dst[d:], table, fw)
		src = src[len(frag):]
	}
	return d, nil
}

// CompressFragment compresses a single fragment of at most 32 KiB into dst
// and returns the number of bytes written. It emits the tag stream only, no
// length header.
//
// It assumes that:
//
//	len(src) <= 1<<15
//	len(dst) >= MaxCompressedLength(len(src))
//
// table and w are as for CompressWithScratch; the offsets stored in the
// table are relative to the fragment start, so back-references never reach
// outside src.
func CompressFragment(src, dst []byte, table []uint16, w int) int {
	checkScratch(table, w)
	d := 0
	if len(src) < inputMargin {
		// Too short to find a match the main loop could use. No table
		// access, so no zeroing either.
		if len(src) > 0 {
			d = emitLiteral(dst, src)
		}
		return d
	}

	// shift keeps the top w-1 bits of the 32-bit hash, indexing exactly
	// the 1<<(w-1) cells that fit in 1<<w bytes of working memory.
	shift := uint(33 - w)
	t := table[:1<<(uint(w)-1)]
	for i := range t {
		t[i] = 0
	}

	// sLimit is when to stop looking for copies: past it the margin no
	// longer covers the unchecked loads below.
	sLimit := len(src) - inputMargin

	// Bytes in [nextEmit, s) are pending literals.
	nextEmit := 0

	// The output must start with a literal, so scanning starts at s == 1.
	s := 1
	nextHash := hash(load32(src, s), shift)

	for {
		// Scan for a 4-byte match. If 32 positions are probed without
		// one, start skipping every other byte, then every third, and
		// so on: incompressible input is detected geometrically while
		// compressible input is still scanned byte by byte.
		skip := 32

		nextS := s
		candidate := 0
		for {
			s = nextS
			h := nextHash
			nextS = s + skip>>5
			skip++
			if nextS > sLimit {
				goto emitRemainder
			}
			nextHash = hash(load32(src, nextS), shift)
			candidate = int(t[h])
			t[h] = uint16(s)
			if load32(src, s) == load32(src, candidate) {
				break
			}
		}

		d += emitLiteral(dst[d:], src[nextEmit:s])

		// Emit copies as long as the position right after one copy
		// immediately matches again, without going back through the
		// literal scanner.
		for {
			base := s
			matched := 4 + matchLength(src, candidate+4, s+4)
			s += matched
			d += emitCopy(dst[d:], base-candidate, matched)
			nextEmit = s
			if s >= sLimit {
				goto emitRemainder
			}

			// One load covers the hash insert at s-1 (the position
			// the scan loop never saw), the lookup at s, and the
			// seed for the next scan at s+1.
			x := load64(src, s-1)
			prevHash := hash(uint32(x), shift)
			t[prevHash] = uint16(s - 1)
			currHash := hash(uint32(x>>8), shift)
			candidate = int(t[currHash])
			t[currHash] = uint16(s)
			if uint32(x>>8) != load32(src, candidate) {
				nextHash = hash(uint32(x>>16), shift)
				s++
				break
			}
		}
	}

emitRemainder:
	if nextEmit < len(src) {
		d += emitLiteral(dst[d:], src[nextEmit:])
	}
	return d
}

// Any hash distributes into a valid stream; this multiply-shift constant is
// the one the ratio and throughput figures were measured with.
func hash(u uint32, shift uint) uint32 {
	return (u * 0x1e35a7bd) >> shift
}

// matchLength returns how many bytes src[i:] and src[s:] have in common,
// reading no further than len(src). Compares 8 bytes at a time and locates
// the first differing byte through the XOR's trailing zero count.
func matchLength(src []byte, i, s int) int {
	matched := 0
	for s+8 <= len(src) {
		a, b := load64(src, s), load64(src, i+matched)
		if a != b {
			return matched + bits.TrailingZeros64(a^b)>>3
		}
		s += 8
		matched += 8
	}
	for s < len(src) && src[i+matched] == src[s] {
		s++
		matched++
	}
	return matched
}

// emitLiteral writes a literal element and returns the number of bytes
// written. len(lit) must be at least 1: zero-length literals have no
// encoding.
func emitLiteral(dst, lit []byte) int {
	i := 0
	if n := len(lit) - 1; n < 60 {
		dst[0] = byte(n)<<2 | tagLiteral
		i = 1
	} else {
		i = 1
		for ; n > 0; n >>= 8 {
			dst[i] = byte(n)
			i++
		}
		dst[0] = byte(58+i)<<2 | tagLiteral
	}
	return i + copy(dst[i:], lit)
}

// emitCopy writes one or more copy elements for a match of the given offset
// and length, and returns the number of bytes written.
//
// A single element holds at most 64 bytes, so longer matches are split. The
// split keeps every element at length 4 or more: lengths 1-3 only exist in
// the 3-byte form, which would waste a byte, and the 2-byte form cannot
// express them at all. Hence full 64-byte elements are peeled off only while
// at least 68 remain, and a 65-67 tail goes out as 60 plus 5-7.
func emitCopy(dst []byte, offset, length int) int {
	i := 0
	for length >= 68 {
		i += emitCopyChunk(dst[i:], offset, 64)
		length -= 64
	}
	if length > 64 {
		i += emitCopyChunk(dst[i:], offset, 60)
		length -= 60
	}
	return i + emitCopyChunk(dst[i:], offset, length)
}

// emitCopyChunk writes a single copy element.
//
// It assumes that:
//
//	4 <= length && length <= 64
//	1 <= offset && offset < 65536
func emitCopyChunk(dst []byte, offset, length int) int {
	if length < 12 && offset < 2048 {
		dst[0] = byte(offset>>8)<<5 | byte(length-4)<<2 | tagCopy1
		dst[1] = byte(offset)
		return 2
	}
	dst[0] = byte(length-1)<<2 | tagCopy2
	dst[1] = byte(offset)
	dst[2] = byte(offset >> 8)
	return 3
}

func checkScratch(table []uint16, w int) {
	if w < MinScratchBits || w > MaxScratchBits || len(table) < 1<<(uint(w)-1) {
		panic("csnappy: scratch table smaller than 1<<(w-1) cells or w out of range")
	}
}
