// Package shadow keeps the last known contents of device buffers as seen in
// host transfers. It serves buffer contents to the tracker when the device
// itself cannot be queried, for example when replaying a capture.
package shadow

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

// ErrNoContent is returned when some of the requested bytes were never
// transferred.
var ErrNoContent = errors.New("no content recorded")

// ErrOutOfRange is returned for ranges that cannot be addressed.
var ErrOutOfRange = errors.New("range out of bounds")

// DefaultMaxRegion bounds the bytes kept for one root buffer.
const DefaultMaxRegion = 256 << 20

type region struct {
	data  []byte
	known []bool
}

func (r *region) grow(n uint64) {
	if uint64(len(r.data)) >= n {
		return
	}
	r.data = append(r.data, make([]byte, n-uint64(len(r.data)))...)
	r.known = append(r.known, make([]bool, n-uint64(len(r.known)))...)
}

// Store maps root buffer handles to their recorded bytes. Sub-buffers share
// the region of their parent.
type Store struct {
	mu        sync.Mutex
	regions   map[tracker.Handle]*region
	maxRegion uint64
}

func NewStore() *Store {
	return &Store{
		regions:   make(map[tracker.Handle]*region),
		maxRegion: DefaultMaxRegion,
	}
}

// SetMaxRegion changes the per-buffer bound. Copies ending past it are
// dropped.
func (s *Store) SetMaxRegion(n uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxRegion = n
}

// span maps [offset, offset+n) of b onto its root buffer.
func span(b *tracker.Buffer, offset, n uint64) (h tracker.Handle, off, end uint64, err error) {
	h, off = b.Handle, offset
	if b.IsSub {
		if offset > math.MaxUint64-b.Offset {
			return 0, 0, 0, fmt.Errorf("buffer %s offset %d+%d: %w", b.Handle, b.Offset, offset, ErrOutOfRange)
		}
		h, off = b.Parent, b.Offset+offset
	}
	if off > math.MaxUint64-n {
		return 0, 0, 0, fmt.Errorf("buffer %s offset %d len %d: %w", b.Handle, off, n, ErrOutOfRange)
	}
	return h, off, off + n, nil
}

// Record stores data as the contents of b starting at offset.
func (s *Store) Record(b *tracker.Buffer, offset uint64, data []byte) {
	if len(data) == 0 {
		return
	}
	h, off, end, err := span(b, offset, uint64(len(data)))
	if err != nil {
		slog.Warn("dropping copy", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if end > s.maxRegion {
		slog.Warn("dropping copy beyond shadow bound", "handle", h, "end", end, "max", s.maxRegion)
		return
	}
	r, ok := s.regions[h]
	if !ok {
		r = &region{}
		s.regions[h] = r
	}
	r.grow(end)
	copy(r.data[off:end], data)
	for i := off; i < end; i++ {
		r.known[i] = true
	}
}

// Fetch implements tracker.Fetcher.
func (s *Store) Fetch(b *tracker.Buffer, dst []byte, offset uint64) error {
	h, off, end, err := span(b, offset, uint64(len(dst)))
	if err != nil {
		slog.Warn("refusing fetch", "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.regions[h]
	if !ok {
		return fmt.Errorf("buffer %s: %w", h, ErrNoContent)
	}
	if end > uint64(len(r.data)) {
		return fmt.Errorf("buffer %s [%d, %d): %w", h, off, end, ErrNoContent)
	}
	for i := off; i < end; i++ {
		if !r.known[i] {
			return fmt.Errorf("buffer %s byte %d: %w", h, i, ErrNoContent)
		}
	}
	copy(dst, r.data[off:end])
	return nil
}

// Forget drops what was recorded for h. Called when a handle is handed out
// again for a new buffer.
func (s *Store) Forget(h tracker.Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.regions[h]; ok {
		slog.Debug("dropping shadow contents", "handle", h)
		delete(s.regions, h)
	}
}

// Len returns the number of root buffers with recorded contents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regions)
}

// Bytes returns the number of recorded bytes across all buffers.
func (s *Store) Bytes() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n uint64
	for _, r := range s.regions {
		for _, k := range r.known {
			if k {
				n++
			}
		}
	}
	return n
}
