package shadow

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vuvietnguyenit/gpu-kernel-trace/tracker"
)

func TestStoreRecordFetch(t *testing.T) {
	s := NewStore()
	b := &tracker.Buffer{Handle: 0x10, Size: 16}

	// 1. Nothing recorded yet
	dst := make([]byte, 4)
	require.ErrorIs(t, s.Fetch(b, dst, 0), ErrNoContent)

	// 2. Write then read back
	s.Record(b, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	require.NoError(t, s.Fetch(b, dst, 2))
	require.Equal(t, []byte{3, 4, 5, 6}, dst)

	// 3. Past the recorded bytes
	require.ErrorIs(t, s.Fetch(b, dst, 6), ErrNoContent)

	// 4. A later copy overwrites
	s.Record(b, 4, []byte{9, 9})
	require.NoError(t, s.Fetch(b, dst, 2))
	require.Equal(t, []byte{3, 4, 9, 9}, dst)
}

func TestStoreGap(t *testing.T) {
	s := NewStore()
	b := &tracker.Buffer{Handle: 0x10, Size: 32}

	s.Record(b, 0, []byte{1, 1})
	s.Record(b, 4, []byte{2, 2})

	require.ErrorIs(t, s.Fetch(b, make([]byte, 6), 0), ErrNoContent)
	require.NoError(t, s.Fetch(b, make([]byte, 2), 4))
	require.Equal(t, uint64(4), s.Bytes())
}

func TestStoreSubBuffer(t *testing.T) {
	s := NewStore()
	parent := &tracker.Buffer{Handle: 0x10, Size: 16}
	sub := &tracker.Buffer{Handle: 0x11, Size: 8, IsSub: true, Parent: 0x10, Offset: 8}

	s.Record(parent, 0, []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11})

	dst := make([]byte, 4)
	require.NoError(t, s.Fetch(sub, dst, 0))
	require.Equal(t, []byte{8, 9, 10, 11}, dst)

	// writes through the sub-buffer land in the parent
	s.Record(sub, 4, []byte{12, 13})
	dst = make([]byte, 2)
	require.NoError(t, s.Fetch(parent, dst, 12))
	require.Equal(t, []byte{12, 13}, dst)
	require.Equal(t, 1, s.Len())
}

func TestStoreForget(t *testing.T) {
	s := NewStore()
	b := &tracker.Buffer{Handle: 0x10, Size: 4}
	s.Record(b, 0, []byte{1, 2, 3, 4})
	s.Record(b, 0, nil)

	s.Forget(0x10)
	s.Forget(0x99)
	require.Equal(t, 0, s.Len())
	require.ErrorIs(t, s.Fetch(b, make([]byte, 1), 0), ErrNoContent)
}

func TestStoreConcurrent(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(h tracker.Handle) {
			defer wg.Done()
			b := &tracker.Buffer{Handle: h, Size: 64}
			for off := uint64(0); off < 64; off += 8 {
				s.Record(b, off, make([]byte, 8))
			}
		}(tracker.Handle(i + 1))
	}
	wg.Wait()
	require.Equal(t, 8, s.Len())
	require.Equal(t, uint64(8*64), s.Bytes())
}

func TestStoreIsFetcher(t *testing.T) {
	var _ tracker.Fetcher = NewStore()
}

func TestStoreOffsetOverflow(t *testing.T) {
	s := NewStore()
	b := &tracker.Buffer{Handle: 0x10, Size: 16}
	sub := &tracker.Buffer{Handle: 0x11, Size: 8, IsSub: true, Parent: 0x10, Offset: math.MaxUint64 - 2}

	require.NotPanics(t, func() {
		s.Record(b, math.MaxUint64-1, []byte{1, 2, 3, 4})
		s.Record(sub, 4, []byte{1})
	})
	require.Equal(t, 0, s.Len())

	require.ErrorIs(t, s.Fetch(b, make([]byte, 4), math.MaxUint64-1), ErrOutOfRange)
	require.ErrorIs(t, s.Fetch(sub, make([]byte, 1), 4), ErrOutOfRange)
}

func TestStoreMaxRegion(t *testing.T) {
	s := NewStore()
	s.SetMaxRegion(8)
	b := &tracker.Buffer{Handle: 0x10, Size: 1 << 40}

	s.Record(b, 1<<39, []byte{1, 2})
	s.Record(b, 6, []byte{1, 2, 3})
	require.Equal(t, 0, s.Len())

	s.Record(b, 6, []byte{1, 2})
	require.Equal(t, uint64(2), s.Bytes())
}
