package csv

// reader.go provides io.Reader wrappers applied to uploaded files before
// parsing:
//
//   - bomSkippingReader: removes a leading UTF-8 BOM (0xEF 0xBB 0xBF),
//     commonly added by Windows spreadsheet tools (and by our own exporter).
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?' on the fly so a
//     mis-encoded file still imports instead of corrupting cell text.
//
// WrapImport applies both in the correct order.

import (
	"io"
	"unicode/utf8"
)

// WrapImport wraps an uploaded file reader with BOM skipping and UTF-8
// sanitization. BOM stripping must come first, before any byte inspection.
func WrapImport(r io.Reader) io.Reader {
	return newUTF8Sanitizer(newBOMSkippingReader(r))
}

// bomSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type bomSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte // buffer for BOM detection
	bufData    []byte  // remaining data after BOM check
	bufOffset  int     // current read position in bufData
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read it checks for and skips the BOM.
func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if n == 0 {
			return 0, err
		}

		if n >= 3 && r.buf[0] == 0xEF && r.buf[1] == 0xBB && r.buf[2] == 0xBF {
			r.bufData = nil
		} else {
			// No BOM - preserve the bytes we read
			r.bufData = r.buf[:n]
			r.bufOffset = 0
		}

		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}

		if len(r.bufData) > 0 {
			copied := copy(p, r.bufData[r.bufOffset:])
			r.bufOffset += copied
			if r.bufOffset >= len(r.bufData) {
				r.bufData = nil
			}
			if copied < len(p) && err != io.EOF {
				n, err2 := r.reader.Read(p[copied:])
				return copied + n, err2
			}
			return copied, err
		}
	}

	// Return any remaining buffered data first
	if len(r.bufData) > r.bufOffset {
		copied := copy(p, r.bufData[r.bufOffset:])
		r.bufOffset += copied
		if r.bufOffset >= len(r.bufData) {
			r.bufData = nil
		}
		return copied, nil
	}

	return r.reader.Read(p)
}

// utf8Sanitizer wraps an io.Reader and replaces invalid UTF-8 bytes with
// '?' on the fly, using O(buffer) memory regardless of file size.
type utf8Sanitizer struct {
	reader io.Reader

	// Leftover bytes from the previous read that may form a multi-byte sequence
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader, sanitizing invalid sequences in place.
func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	// Prepend pending bytes from an incomplete sequence
	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset

	if n == 0 {
		return 0, err
	}

	// Fast path: most CSV data is pure ASCII
	if isAllASCII(p[:n]) {
		return n, err
	}

	sanitized := s.sanitize(p[:n], err == io.EOF)
	return sanitized, err
}

func isAllASCII(data []byte) bool {
	for _, b := range data {
		if b >= 0x80 {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place, replacing invalid bytes with '?'.
// Returns the number of valid bytes. If atEOF is false, an incomplete
// sequence at the end is saved to pending for the next read.
func (s *utf8Sanitizer) sanitize(data []byte, atEOF bool) int {
	if utf8.Valid(data) {
		if !atEOF {
			trailing := incompleteTrailingBytes(data)
			if trailing > 0 {
				s.pending = append(s.pending, data[len(data)-trailing:]...)
				return len(data) - trailing
			}
		}
		return len(data)
	}

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])

		if !atEOF && read+size >= len(data) && isIncompleteRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		if r == utf8.RuneError && size == 1 {
			// Replace with '?' (1 byte) rather than U+FFFD (3 bytes)
			// so in-place rewriting never expands the buffer.
			data[write] = '?'
			write++
			read++
		} else {
			copy(data[write:], data[read:read+size])
			write += size
			read += size
		}
	}

	return write
}

// incompleteTrailingBytes returns how many bytes at the end of data could be
// the start of an incomplete multi-byte UTF-8 sequence.
func incompleteTrailingBytes(data []byte) int {
	if len(data) == 0 {
		return 0
	}

	for i := 1; i <= 3 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b >= 0xC0 {
			// This byte starts a sequence - check if complete
			if i < runeLen(b) {
				return i
			}
			return 0
		}
		// Continuation byte (10xxxxxx) - keep checking
		if b&0xC0 != 0x80 {
			return 0
		}
	}
	return 0
}

// runeLen returns the expected length of a UTF-8 sequence starting with byte b.
func runeLen(b byte) int {
	if b < 0x80 {
		return 1
	}
	if b < 0xC0 {
		return 0 // continuation byte
	}
	if b < 0xE0 {
		return 2
	}
	if b < 0xF0 {
		return 3
	}
	return 4
}

// isIncompleteRune reports whether data could be an incomplete multi-byte sequence.
func isIncompleteRune(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	return runeLen(data[0]) > len(data)
}
