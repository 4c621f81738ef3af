package tabular

// utf8.go provides a streaming reader that rejects invalid UTF-8.
//
// Uploads are not repaired: a file that does not decode cleanly is refused
// as a whole, so a user never ends up with accounts created from mangled
// names. Multi-byte sequences split across reads are carried over to the
// next call before validation.

import (
	"fmt"
	"io"
	"unicode/utf8"
)

type utf8Reader struct {
	reader io.Reader

	// Leading bytes of a multi-byte sequence cut off by the previous read
	carry  [utf8.UTFMax]byte
	carryN int

	offset int64
	err    error
}

func newUTF8Reader(r io.Reader) *utf8Reader {
	return &utf8Reader{reader: r}
}

// Read implements io.Reader.
func (u *utf8Reader) Read(p []byte) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	if len(p) < utf8.UTFMax {
		return 0, io.ErrShortBuffer
	}

	n := copy(p, u.carry[:u.carryN])
	u.carryN = 0

	m, err := u.reader.Read(p[n:])
	n += m

	end := n
	if err == nil {
		if t := incompleteTrailingBytes(p[:n]); t > 0 {
			end = n - t
			u.carryN = copy(u.carry[:], p[end:n])
		}
	}

	if !utf8.Valid(p[:end]) {
		u.err = fmt.Errorf("%w (byte offset %d)", ErrInvalidEncoding, u.offset+int64(firstInvalid(p[:end])))
		return 0, u.err
	}

	u.offset += int64(end)
	return end, err
}

// firstInvalid returns the index of the first byte that does not start a valid rune.
func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// incompleteTrailingBytes returns the number of bytes at the end of data
// that start a multi-byte sequence not yet complete.
func incompleteTrailingBytes(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b&0xC0 == 0x80 {
			continue
		}
		if b >= 0xC0 && runeLen(b) > i {
			return i
		}
		return 0
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with b.
func runeLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xC0:
		return 0
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}
