package csnappy

// Decompress decompresses a complete Snappy block (length header plus tag
// stream) from src into dst. Returns the number of bytes written to dst.
//
// dst must be at least as large as the length declared by the header; use
// GetUncompressedLength to size it. Every element of the stream is validated
// before it is applied: no input, however malformed, makes Decompress write
// past len(dst). On error the prefix of dst already produced is left in
// place and its length returned.
func Decompress(src, dst []byte) (int, error) {
	declared, hdr, ok := uvarint32(src)
	if !ok {
		return 0, ErrHeaderBad
	}
	if uint64(declared) > uint64(len(dst)) {
		return 0, ErrOutputInsufficient
	}

	ip := hdr            // input position
	op := 0              // output position
	end := int(declared) // output bound the stream promised

	for ip < len(src) {
		if op == end {
			return op, ErrInputNotConsumed
		}
		tag := src[ip]
		ip++

		var length, offset int
		switch tag & 3 {
		case tagLiteral:
			field := int(tag >> 2)
			if field < 60 {
				length = field + 1
			} else {
				// 1-4 trailing bytes hold length-1 little-endian.
				extra := field - 59
				if ip+extra > len(src) {
					return op, ErrDataMalformed
				}
				var n uint32
				for i := 0; i < extra; i++ {
					n |= uint32(src[ip+i]) << (8 * uint(i))
				}
				ip += extra
				if uint64(n)+1 > uint64(end-op) {
					return op, ErrOutputOverrun
				}
				length = int(n) + 1
			}
			if length > end-op {
				return op, ErrOutputOverrun
			}
			if length > len(src)-ip {
				return op, ErrDataMalformed
			}
			copy(dst[op:], src[ip:ip+length])
			op += length
			ip += length
			continue

		case tagCopy1:
			if ip >= len(src) {
				return op, ErrDataMalformed
			}
			length = 4 + int(tag>>2)&0x7
			offset = int(tag>>5)<<8 | int(src[ip])
			ip++

		case tagCopy2:
			if ip+2 > len(src) {
				return op, ErrDataMalformed
			}
			length = 1 + int(tag>>2)
			offset = int(src[ip]) | int(src[ip+1])<<8
			ip += 2

		case tagCopy4:
			// Never produced by this compressor; other encoders may
			// emit it.
			if ip+4 > len(src) {
				return op, ErrDataMalformed
			}
			length = 1 + int(tag>>2)
			o := uint32(src[ip]) | uint32(src[ip+1])<<8 |
				uint32(src[ip+2])<<16 | uint32(src[ip+3])<<24
			ip += 4
			if uint64(o) > uint64(op) {
				return op, ErrDataMalformed
			}
			offset = int(o)
		}

		if offset == 0 || offset > op {
			return op, ErrDataMalformed
		}
		if length > end-op {
			return op, ErrOutputOverrun
		}
		// Byte-wise forward copy: with offset < length the source
		// overlaps the destination and each byte just written feeds a
		// later one, which is what makes short-period runs work.
		mPos := op - offset
		for i := 0; i < length; i++ {
			dst[op] = dst[mPos]
			op++
			mPos++
		}
	}

	if op != end {
		return op, ErrUnexpectedOutputLen
	}
	return op, nil
}
