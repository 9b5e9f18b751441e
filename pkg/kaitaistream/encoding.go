package kaitaistream

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"

	"github.com/kbinterp/kbin/pkg/kaitaierr"
)

// resolveEncoding maps a Kaitai `encoding:` name to a golang.org/x/text
// decoder, following the same family of names the teacher's kaitaicel
// package supports (pkg/kaitaicel/kaitai-cel-core-types.go): the ISO-8859
// family via charmap, CJK encodings, and the UTF-16/UTF-32 family via the
// unicode subpackages. ASCII and UTF-8 need no transformation.
func resolveEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "UTF-8", "UTF8", "ASCII", "ASCII-8BIT", "US-ASCII":
		return nil, nil
	case "UTF-16LE", "UTF16LE":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), nil
	case "UTF-16BE", "UTF16BE":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), nil
	case "UTF-32LE", "UTF32LE":
		return utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), nil
	case "UTF-32BE", "UTF32BE":
		return utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), nil
	case "SHIFT_JIS", "SHIFT-JIS", "SJIS", "SHIFT-JIS-2004":
		return japanese.ShiftJIS, nil
	case "EUC-JP", "EUCJP":
		return japanese.EUCJP, nil
	case "ISO-2022-JP":
		return japanese.ISO2022JP, nil
	case "EUC-KR", "EUCKR":
		return korean.EUCKR, nil
	case "GB2312", "GBK":
		return simplifiedchinese.GBK, nil
	case "GB18030":
		return simplifiedchinese.GB18030, nil
	case "BIG5", "BIG-5":
		return traditionalchinese.Big5, nil
	case "ISO-8859-1", "LATIN1", "ISO8859-1":
		return charmap.ISO8859_1, nil
	case "ISO-8859-2":
		return charmap.ISO8859_2, nil
	case "ISO-8859-5":
		return charmap.ISO8859_5, nil
	case "ISO-8859-15":
		return charmap.ISO8859_15, nil
	case "WINDOWS-1251", "CP1251":
		return charmap.Windows1251, nil
	case "WINDOWS-1252", "CP1252":
		return charmap.Windows1252, nil
	default:
		return nil, kaitaierr.NewParseError("unsupported string encoding: %s", name)
	}
}

// DecodeString converts raw bytes already in hand (e.g. after a `process:`
// transform) to a Go (UTF-8) string in the named encoding, without reading
// from a Stream.
func DecodeString(raw []byte, encName string) (string, error) {
	return decodeString(raw, encName)
}

// decodeString converts raw bytes in the named encoding to a Go (UTF-8)
// string.
func decodeString(raw []byte, encName string) (string, error) {
	enc, err := resolveEncoding(encName)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", kaitaierr.NewParseError("failed to decode string as %s: %v", encName, err)
	}
	return string(out), nil
}

// ReadStr reads n raw bytes and decodes them in the given encoding.
func (s *Stream) ReadStr(n int64, encName string) (string, error) {
	raw, err := s.ReadBytes(n)
	if err != nil {
		return "", err
	}
	return decodeString(raw, encName)
}

// ReadStrz reads bytes up to a terminator (per the same semantics as
// ReadBytesTerm) and decodes them in the given encoding.
func (s *Stream) ReadStrz(encName string, term byte, include, consume, eosError bool) (string, error) {
	raw, err := s.ReadBytesTerm(term, include, consume, eosError)
	if err != nil {
		return "", err
	}
	return decodeString(raw, encName)
}
