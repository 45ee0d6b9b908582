// Package media reads H.264 access units out of an Annex B byte-stream file,
// stripping start-code prefixes as it goes.
package media

import (
	"errors"
	"io"
	"os"
)

// AccessUnit is one coded video unit, with its start-code prefix already
// removed.
type AccessUnit struct {
	Data  []byte
	Valid bool
}

// Reader scans a byte-stream file for successive access units. It holds no
// state beyond the file's read cursor, so correctness depends only on cursor
// position: callers may freely interleave Reader calls with other reads of
// the same *os.File as long as nothing else moves the cursor.
type Reader struct {
	file *os.File
}

// Open opens path for reading and returns a Reader positioned at the start
// of the file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}

// Next returns the next access unit in the file. Data is nil and Valid is
// false once the file is exhausted.
func (r *Reader) Next() (AccessUnit, error) {
	if r.file == nil {
		return AccessUnit{}, nil
	}

	if err := r.skipStartCode(); err != nil {
		if errors.Is(err, io.EOF) {
			return AccessUnit{}, nil
		}
		return AccessUnit{}, err
	}

	return r.readUntilNextStartCode()
}

// skipStartCode consumes the 3- or 4-byte start code at the current cursor
// position. If the bytes at the cursor are not a recognized start code, the
// cursor is rewound so the caller treats them as payload instead — the same
// tolerant recovery the original scanner uses.
func (r *Reader) skipStartCode() error {
	var buf [3]byte
	n, err := io.ReadFull(r.file, buf[:])
	if err != nil {
		if n > 0 && (errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF)) {
			if _, seekErr := r.file.Seek(-int64(n), io.SeekCurrent); seekErr != nil {
				return seekErr
			}
		}
		return io.EOF
	}

	switch {
	case buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0x01:
		return nil // 3-byte start code consumed
	case buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0x00:
		var fourth [1]byte
		n, err := io.ReadFull(r.file, fourth[:])
		if err == nil && fourth[0] == 0x01 {
			return nil // 4-byte start code consumed
		}
		// Not a 4-byte start code after all: rewind whatever extra byte we read.
		if n > 0 {
			if _, seekErr := r.file.Seek(-int64(n), io.SeekCurrent); seekErr != nil {
				return seekErr
			}
		}
		return nil
	default:
		// Not a recognized prefix; rewind and let the scan loop treat these
		// bytes as payload.
		if _, seekErr := r.file.Seek(-3, io.SeekCurrent); seekErr != nil {
			return seekErr
		}
		return nil
	}
}

// readUntilNextStartCode reads one byte at a time, accumulating payload,
// until it finds the start of the next access unit's start code (two or
// more zero bytes followed by 0x01) or reaches end of file.
func (r *Reader) readUntilNextStartCode() (AccessUnit, error) {
	var out []byte
	zeroRun := 0
	var b [1]byte

	for {
		n, err := r.file.Read(b[:])
		if n == 0 {
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return AccessUnit{}, err
			}
			continue
		}

		out = append(out, b[0])

		switch b[0] {
		case 0x00:
			zeroRun++
		case 0x01:
			if zeroRun >= 2 {
				startCodeLen := 3
				if zeroRun >= 3 {
					startCodeLen = 4
				}
				out = out[:len(out)-startCodeLen]
				if _, seekErr := r.file.Seek(-int64(startCodeLen), io.SeekCurrent); seekErr != nil {
					return AccessUnit{}, seekErr
				}
				return AccessUnit{Data: out, Valid: true}, nil
			}
			zeroRun = 0
		default:
			zeroRun = 0
		}
	}

	if len(out) == 0 {
		return AccessUnit{}, nil
	}
	return AccessUnit{Data: out, Valid: true}, nil
}
