// Package kaitaicodec implements the byte-level transformations (component
// C) that can be applied to raw bytes before they are re-wrapped as a
// substream and decoded: zlib inflation, xor, rotate-left/right, and
// byte-swap. The registry pattern mirrors the teacher's
// pkg/kaitaistruct/process.go ProcessRegistry, generalized to the codec set
// named in §4.3.
package kaitaicodec

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// Func transforms raw bytes into processed bytes.
type Func func(data []byte, params []int64) ([]byte, error)

// Registry holds named codec functions, open to registering custom ones.
type Registry struct {
	funcs map[string]Func
}

// NewRegistry builds a registry with the five built-in algorithms of §4.3
// pre-registered.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func)}
	r.Register("zlib", Zlib)
	r.Register("xor", Xor)
	r.Register("rol", Rol)
	r.Register("ror", Ror)
	r.Register("bswap2", bswapN(2))
	r.Register("bswap4", bswapN(4))
	r.Register("bswap8", bswapN(8))
	r.Register("bswap16", bswapN(16))
	return r
}

// Register adds or overrides a named codec function.
func (r *Registry) Register(name string, fn Func) { r.funcs[name] = fn }

// Apply looks up name in the registry and applies it to data with params.
func (r *Registry) Apply(name string, data []byte, params []int64) ([]byte, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, kaitaierr.NewNotImplemented("unknown process algorithm: %s", name)
	}
	return fn(data, params)
}

// Zlib inflates RFC 1950/1951 zlib-compressed data.
func Zlib(data []byte, _ []int64) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, kaitaierr.NewParseError("zlib: bad header: %v", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, kaitaierr.NewParseError("zlib: inflate failed: %v", err)
	}
	return out, nil
}

// Xor XORs each byte of data with a repeating key. The key is the param
// list interpreted as a byte sequence; an empty key is a ParseError.
func Xor(data []byte, params []int64) ([]byte, error) {
	if len(params) == 0 {
		return nil, kaitaierr.NewParseError("xor: empty key")
	}
	key := make([]byte, len(params))
	for i, p := range params {
		key[i] = byte(p)
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%len(key)]
	}
	return out, nil
}

// Rol rotates each `group`-byte group of data left by `amount` bits.
// len(data) must be a multiple of group.
func Rol(data []byte, params []int64) ([]byte, error) {
	amount, group, err := rotateParams(params)
	if err != nil {
		return nil, err
	}
	return rotateGroups(data, amount, group, true)
}

// Ror rotates each `group`-byte group of data right by `amount` bits.
func Ror(data []byte, params []int64) ([]byte, error) {
	amount, group, err := rotateParams(params)
	if err != nil {
		return nil, err
	}
	return rotateGroups(data, amount, group, false)
}

func rotateParams(params []int64) (amount int, group int, err error) {
	if len(params) != 2 {
		return 0, 0, kaitaierr.NewParseError("rol/ror: expected (amount, group) parameters, got %d", len(params))
	}
	amount = int(params[0])
	group = int(params[1])
	if amount < 0 {
		return 0, 0, kaitaierr.NewParseError("rol/ror: amount must be >= 0, got %d", amount)
	}
	if group < 1 {
		return 0, 0, kaitaierr.NewParseError("rol/ror: group must be >= 1, got %d", group)
	}
	return amount, group, nil
}

func rotateGroups(data []byte, amount, group int, left bool) ([]byte, error) {
	if len(data)%group != 0 {
		return nil, kaitaierr.NewParseError("rol/ror: input length %d is not a multiple of group %d", len(data), group)
	}
	bits := amount % (group * 8)
	if !left {
		bits = (group*8 - bits) % (group * 8)
	}
	out := make([]byte, len(data))
	for start := 0; start < len(data); start += group {
		rotateOneGroup(data[start:start+group], out[start:start+group], bits)
	}
	return out, nil
}

// rotateOneGroup rotates a single group of bytes left by bits bits, treating
// the group as one little-endian integer (src[0] is the least significant
// byte, so bits carry from src[i] into dst[i+1] and wrap from the last byte
// into the first).
func rotateOneGroup(src, dst []byte, bits int) {
	n := len(src)
	totalBits := n * 8
	bits = ((bits % totalBits) + totalBits) % totalBits
	if bits == 0 {
		copy(dst, src)
		return
	}
	byteShift := bits / 8
	bitShift := bits % 8
	for i := 0; i < n; i++ {
		srcIdx := (i - byteShift + n) % n
		prevIdx := (srcIdx - 1 + n) % n
		if bitShift == 0 {
			dst[i] = src[srcIdx]
			continue
		}
		dst[i] = src[srcIdx]<<bitShift | src[prevIdx]>>(8-bitShift)
	}
}

// bswapN returns a Func that reverses the bytes within each n-byte group.
// len(data) must be a multiple of n.
func bswapN(n int) Func {
	return func(data []byte, _ []int64) ([]byte, error) {
		if len(data)%n != 0 {
			return nil, kaitaierr.NewParseError("bswap%d: input length %d is not a multiple of %d", n, len(data), n)
		}
		out := make([]byte, len(data))
		for start := 0; start < len(data); start += n {
			group := data[start : start+n]
			for i := 0; i < n; i++ {
				out[start+i] = group[n-1-i]
			}
		}
		return out, nil
	}
}
