// Package kaitaistream implements the binary stream reader (component A):
// typed integer/float/bit/string reads, positioning, and substreams over an
// immutable byte region.
package kaitaistream

import (
	"math"
	"math/big"
	"math/bits"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// Stream reads typed values out of an immutable byte slice. Multiple Streams
// (a parent and its substreams) may share the same underlying region; none
// of them ever mutate it.
type Stream struct {
	data []byte
	pos  int64

	bitAcc    big.Int
	bitCount  uint
	bitLE     bool // true once the accumulator has committed to LE bit order
	bitActive bool // false until the first bit read picks an order
}

// New wraps data in a Stream positioned at offset 0.
func New(data []byte) *Stream {
	return &Stream{data: data}
}

// Size returns the logical length of the region.
func (s *Stream) Size() int64 { return int64(len(s.data)) }

// Pos returns the current absolute byte position.
func (s *Stream) Pos() int64 { return s.pos }

// IsEOF reports whether the current position is at or past the end.
func (s *Stream) IsEOF() bool { return s.pos >= int64(len(s.data)) }

// Seek moves the position to p, discarding any partial bit accumulator.
func (s *Stream) Seek(p int64) error {
	if p < 0 || p > int64(len(s.data)) {
		return kaitaierr.NewParseError("seek out of bounds: %d (size %d)", p, len(s.data)).WithPos(p)
	}
	s.pos = p
	s.AlignToByte()
	return nil
}

// Substream returns a new Stream over the same underlying region sliced to
// [offset, offset+length), with its own position (starting at 0) and its own
// independent bit accumulator.
func (s *Stream) Substream(offset, length int64) (*Stream, error) {
	if offset < 0 || length < 0 || offset+length > int64(len(s.data)) {
		return nil, kaitaierr.NewParseError("substream out of bounds: offset=%d length=%d size=%d", offset, length, len(s.data)).WithPos(offset)
	}
	return New(s.data[offset : offset+length]), nil
}

// AlignToByte discards any partially-consumed bit accumulator.
func (s *Stream) AlignToByte() {
	s.bitAcc.SetInt64(0)
	s.bitCount = 0
	s.bitActive = false
}

func (s *Stream) eof(n int64) *kaitaierr.Error {
	return kaitaierr.NewEndOfStream(s.pos, "attempted to read %d byte(s) past end of stream (size %d)", n, len(s.data)).WithContext(s.data)
}

// ReadBytes reads exactly n raw bytes, discarding any bit accumulator first.
func (s *Stream) ReadBytes(n int64) ([]byte, error) {
	if n < 0 {
		return nil, kaitaierr.NewParseError("negative read length: %d", n)
	}
	s.AlignToByte()
	if s.pos+n > int64(len(s.data)) {
		return nil, s.eof(n)
	}
	out := s.data[s.pos : s.pos+n]
	s.pos += n
	return out, nil
}

// ReadBytesFull reads every remaining byte to end-of-stream.
func (s *Stream) ReadBytesFull() ([]byte, error) {
	s.AlignToByte()
	out := s.data[s.pos:]
	s.pos = int64(len(s.data))
	return out, nil
}

// ReadBytesTerm reads up to (and depending on flags, including/consuming) a
// terminator byte. If eosError is true and the terminator is not found
// before EOF, an EndOfStream error is returned; otherwise the bytes read up
// to EOF are returned with no terminator consumed.
func (s *Stream) ReadBytesTerm(term byte, include, consume, eosError bool) ([]byte, error) {
	s.AlignToByte()
	start := s.pos
	i := start
	for i < int64(len(s.data)) && s.data[i] != term {
		i++
	}
	if i >= int64(len(s.data)) {
		// terminator not found
		if eosError {
			s.pos = int64(len(s.data))
			return nil, s.eof(1)
		}
		out := s.data[start:]
		s.pos = int64(len(s.data))
		return out, nil
	}
	var out []byte
	if include {
		out = s.data[start : i+1]
	} else {
		out = s.data[start:i]
	}
	if consume {
		s.pos = i + 1
	} else {
		s.pos = i
	}
	return out, nil
}

func readFixed(s *Stream, n int64) ([]byte, error) {
	return s.ReadBytes(n)
}

// ReadU1 reads an unsigned 8-bit integer.
func (s *Stream) ReadU1() (uint64, error) {
	b, err := readFixed(s, 1)
	if err != nil {
		return 0, err
	}
	return uint64(b[0]), nil
}

// ReadU2le reads an unsigned 16-bit little-endian integer.
func (s *Stream) ReadU2le() (uint64, error) { return s.readUint(2, false) }

// ReadU2be reads an unsigned 16-bit big-endian integer.
func (s *Stream) ReadU2be() (uint64, error) { return s.readUint(2, true) }

// ReadU4le reads an unsigned 32-bit little-endian integer.
func (s *Stream) ReadU4le() (uint64, error) { return s.readUint(4, false) }

// ReadU4be reads an unsigned 32-bit big-endian integer.
func (s *Stream) ReadU4be() (uint64, error) { return s.readUint(4, true) }

// ReadU8le reads an unsigned 64-bit little-endian integer.
func (s *Stream) ReadU8le() (uint64, error) { return s.readUint(8, false) }

// ReadU8be reads an unsigned 64-bit big-endian integer.
func (s *Stream) ReadU8be() (uint64, error) { return s.readUint(8, true) }

func (s *Stream) readUint(n int64, be bool) (uint64, error) {
	b, err := readFixed(s, n)
	if err != nil {
		return 0, err
	}
	var v uint64
	if be {
		for i := int64(0); i < n; i++ {
			v = v<<8 | uint64(b[i])
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	}
	return v, nil
}

// signExtend applies value ≥ 2^(N-1) ⇒ value − 2^N for an N-bit width.
func signExtend(v uint64, width int) int64 {
	bit := uint64(1) << (width - 1)
	full := uint64(1) << width
	if v&bit != 0 {
		return int64(v) - int64(full)
	}
	return int64(v)
}

// ReadS1 reads a signed 8-bit integer.
func (s *Stream) ReadS1() (int64, error) {
	v, err := s.ReadU1()
	if err != nil {
		return 0, err
	}
	return signExtend(v, 8), nil
}

// ReadS2le reads a signed 16-bit little-endian integer.
func (s *Stream) ReadS2le() (int64, error) { v, err := s.ReadU2le(); return signExtend(v, 16), err }

// ReadS2be reads a signed 16-bit big-endian integer.
func (s *Stream) ReadS2be() (int64, error) { v, err := s.ReadU2be(); return signExtend(v, 16), err }

// ReadS4le reads a signed 32-bit little-endian integer.
func (s *Stream) ReadS4le() (int64, error) { v, err := s.ReadU4le(); return signExtend(v, 32), err }

// ReadS4be reads a signed 32-bit big-endian integer.
func (s *Stream) ReadS4be() (int64, error) { v, err := s.ReadU4be(); return signExtend(v, 32), err }

// ReadS8le reads a signed 64-bit little-endian integer (no sign-extension
// needed: the native width already matches int64's two's complement form).
func (s *Stream) ReadS8le() (int64, error) { v, err := s.ReadU8le(); return int64(v), err }

// ReadS8be reads a signed 64-bit big-endian integer.
func (s *Stream) ReadS8be() (int64, error) { v, err := s.ReadU8be(); return int64(v), err }

// ReadF4le reads an IEEE-754 single-precision little-endian float.
func (s *Stream) ReadF4le() (float64, error) {
	v, err := s.ReadU4le()
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(uint32(v))), nil
}

// ReadF4be reads an IEEE-754 single-precision big-endian float.
func (s *Stream) ReadF4be() (float64, error) {
	v, err := s.ReadU4be()
	if err != nil {
		return 0, err
	}
	return float64(math.Float32frombits(uint32(v))), nil
}

// ReadF8le reads an IEEE-754 double-precision little-endian float.
func (s *Stream) ReadF8le() (float64, error) {
	v, err := s.ReadU8le()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadF8be reads an IEEE-754 double-precision big-endian float.
func (s *Stream) ReadF8be() (float64, error) {
	v, err := s.ReadU8be()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadBitsIntBe reads n bits (1 ≤ n ≤ 64) big-endian, maintaining the bit
// accumulator across adjacent calls. Switching bit endianness mid-field
// resets the accumulator, per §4.1.
func (s *Stream) ReadBitsIntBe(n int) (uint64, error) {
	return s.readBits(n, true)
}

// ReadBitsIntLe reads n bits (1 ≤ n ≤ 64) little-endian.
func (s *Stream) ReadBitsIntLe(n int) (uint64, error) {
	return s.readBits(n, false)
}

// readBits extracts n bits from the accumulator, topping it up a byte at a
// time as needed. The accumulator is kept as a big.Int rather than a fixed
// 64-bit word: a 64-bit extraction started mid-byte transiently needs up to
// 71 bits of headroom (64 requested + up to 7 leftover from the previous
// call) before it is trimmed back down, which does not fit in a uint64.
func (s *Stream) readBits(n int, be bool) (uint64, error) {
	if n < 1 || n > 64 {
		return 0, kaitaierr.NewParseError("bit read width out of range: %d", n)
	}
	if s.bitActive && s.bitLE != !be {
		// bitLE tracks "is little-endian"; mismatched order resets
		s.bitAcc.SetInt64(0)
		s.bitCount = 0
	}
	s.bitLE = !be
	s.bitActive = true

	for int(s.bitCount) < n {
		if s.pos >= int64(len(s.data)) {
			return 0, s.eof(1)
		}
		b := int64(s.data[s.pos])
		s.pos++
		if be {
			s.bitAcc.Lsh(&s.bitAcc, 8)
			s.bitAcc.Or(&s.bitAcc, big.NewInt(b))
		} else {
			shifted := new(big.Int).Lsh(big.NewInt(b), s.bitCount)
			s.bitAcc.Or(&s.bitAcc, shifted)
		}
		s.bitCount += 8
	}

	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(n)), big.NewInt(1))
	var result big.Int
	if be {
		shift := s.bitCount - uint(n)
		result.Rsh(&s.bitAcc, shift)
		result.And(&result, mask)
		remMask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), shift), big.NewInt(1))
		s.bitAcc.And(&s.bitAcc, remMask)
	} else {
		result.And(&s.bitAcc, mask)
		s.bitAcc.Rsh(&s.bitAcc, uint(n))
	}
	s.bitCount -= uint(n)
	if s.bitCount == 0 {
		s.bitActive = false
	}
	return result.Uint64(), nil
}

// BitsRemainingInByte reports how many unconsumed bits remain in the
// accumulator (0 when byte-aligned).
func (s *Stream) BitsRemainingInByte() int { return int(s.bitCount) }

// ReverseBits64 is a small helper exposed for codecs/tests that need
// bit-order reversal independent of the accumulator (e.g. verifying
// round-trip identities in property tests).
func ReverseBits64(v uint64, width int) uint64 {
	return bits.Reverse64(v) >> (64 - width)
}
