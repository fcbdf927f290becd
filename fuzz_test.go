package csnappy

import (
	"bytes"
	"testing"
)

// FuzzRoundtrip tests that any input can be compressed and decompressed
// back to the original.
func FuzzRoundtrip(f *testing.F) {
	f.Add([]byte{})
	f.Add([]byte{0})
	f.Add([]byte{0, 0, 0, 0})
	f.Add([]byte("Hello, World!"))
	f.Add([]byte("AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"))
	f.Add([]byte("ABCDABCDABCDABCDABCDABCDABCDABCDABCDABCD"))
	f.Add(bytes.Repeat([]byte{0xff}, 100))
	f.Add(bytes.Repeat([]byte("The quick brown fox. "), 10))
	f.Add(bytes.Repeat([]byte("boundary"), 4097)) // spans two fragments

	seq := make([]byte, 256)
	for i := range seq {
		seq[i] = byte(i)
	}
	f.Add(seq)

	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > 256*1024 {
			return
		}

		compBuf := make([]byte, MaxCompressedLength(len(input)))
		compLen, err := Compress(input, compBuf)
		if err != nil {
			t.Fatalf("Compress failed: %v", err)
		}
		if compLen > MaxCompressedLength(len(input)) {
			t.Fatalf("compressed size %d above bound", compLen)
		}

		decompBuf := make([]byte, len(input))
		decompLen, err := Decompress(compBuf[:compLen], decompBuf)
		if err != nil {
			t.Fatalf("Decompress failed: %v", err)
		}

		if !bytes.Equal(input, decompBuf[:decompLen]) {
			t.Errorf("Roundtrip mismatch: input len=%d, output len=%d", len(input), decompLen)
		}
	})
}

// FuzzDecompress tests that the decompressor survives arbitrary input
// without panicking and never writes past the capacity it was given.
func FuzzDecompress(f *testing.F) {
	// Valid streams
	f.Add([]byte{0x00})
	f.Add([]byte{0x01, 0x00, 0x41})
	f.Add([]byte{0x0c, 0x00, 0x61, 0x2a, 0x01, 0x00})

	// Malformed streams
	f.Add([]byte{})
	f.Add([]byte{0x80})
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0xff})
	f.Add([]byte{0x0a, 0x00, 'q'})
	f.Add([]byte{0x04, 0x0e, 0xe8, 0x03}) // copy2 offset 1000 before any output
	f.Add([]byte{0xff, 0xff, 0xff, 0xff, 0x0f, 0x00, 0x00})

	f.Fuzz(func(t *testing.T, input []byte) {
		const capacity = 64 * 1024
		buf := make([]byte, capacity+64)
		for i := range buf {
			buf[i] = 0xa5
		}

		n, err := Decompress(input, buf[:capacity])
		if n > capacity {
			t.Fatalf("reported %d bytes written into a %d byte buffer", n, capacity)
		}
		// Nothing beyond the reported write may be touched, errors
		// included.
		for i := n; i < len(buf); i++ {
			if buf[i] != 0xa5 {
				t.Fatalf("byte %d clobbered after writing %d bytes (err=%v)", i, n, err)
			}
		}
	})
}
