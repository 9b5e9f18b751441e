package kaitaicodec

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXorRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	key := []int64{0xAB, 0xCD}
	enc, err := Xor(data, key)
	require.NoError(t, err)
	dec, err := Xor(enc, key)
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestXorEmptyKey(t *testing.T) {
	_, err := Xor([]byte{1, 2, 3}, nil)
	require.Error(t, err)
}

func TestRolRorRoundTrip(t *testing.T) {
	data := []byte{0xAB, 0xCD, 0x12, 0x34}
	params := []int64{5, 2}
	rolled, err := Rol(data, params)
	require.NoError(t, err)
	back, err := Ror(rolled, params)
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestRolMisalignedGroup(t *testing.T) {
	_, err := Rol([]byte{1, 2, 3}, []int64{3, 2})
	require.Error(t, err)
}

func TestBswapTwiceIdentity(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"bswap2", "bswap4", "bswap8", "bswap16"} {
		n := map[string]int{"bswap2": 2, "bswap4": 4, "bswap8": 8, "bswap16": 16}[name]
		data := make([]byte, n*3)
		for i := range data {
			data[i] = byte(i + 1)
		}
		once, err := reg.Apply(name, data, nil)
		require.NoError(t, err)
		twice, err := reg.Apply(name, once, nil)
		require.NoError(t, err)
		assert.Equal(t, data, twice, name)
	}
}

func TestBswapMisaligned(t *testing.T) {
	_, err := bswapN(4)([]byte{1, 2, 3}, nil)
	require.Error(t, err)
}

func TestZlibInflate(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, _ = w.Write([]byte("Hello"))
	_ = w.Close()

	out, err := Zlib(buf.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(out))
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Apply("rot13", []byte("x"), nil)
	require.Error(t, err)
}
