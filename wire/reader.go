package wire

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader decodes a stream of records, such as a capture file.
type Reader struct {
	r   *bufio.Reader
	hdr [HeaderSize]byte
	n   int
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Count returns the number of records read so far.
func (r *Reader) Count() int { return r.n }

// Next returns the next record. It returns io.EOF when the stream ends on a
// record boundary and ErrShortRecord when it ends inside one.
func (r *Reader) Next() (*Record, error) {
	if _, err := io.ReadFull(r.r, r.hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record %d header", ErrShortRecord, r.n)
		}
		return nil, err
	}
	var rec Record
	if err := binary.Read(bytes.NewReader(r.hdr[:]), binary.LittleEndian, &rec.Header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if rec.PayloadLen > MaxPayload {
		return nil, fmt.Errorf("%w: record %d has %d bytes", ErrPayloadTooLarge, r.n, rec.PayloadLen)
	}
	rec.Payload = make([]byte, rec.PayloadLen)
	if _, err := io.ReadFull(r.r, rec.Payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: record %d payload", ErrShortRecord, r.n)
		}
		return nil, err
	}
	r.n++
	return &rec, nil
}

// Writer encodes records to a stream.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) Write(r *Record) error { return Encode(w.w, r) }

func (w *Writer) Flush() error { return w.w.Flush() }
