package block

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srunixre/srunix/kernel"
)

// clearBits counts the free blocks by scanning the bitmap.
func clearBits(s *Store) uint32 {
	var used int
	for _, word := range s.usedBitmap {
		used += bits.OnesCount64(word)
	}
	return uint32(Count - used)
}

func TestAllocFirstFit(t *testing.T) {
	s := NewStore()
	require.Equal(t, uint32(Count), s.FreeCount())

	for exp := uint32(0); exp < 70; exp++ {
		index, err := s.Alloc()
		require.Nil(t, err)
		require.Equal(t, exp, index)
	}

	s.Free(3)
	s.Free(65)

	index, err := s.Alloc()
	require.Nil(t, err)
	assert.Equal(t, uint32(3), index)

	index, err = s.Alloc()
	require.Nil(t, err)
	assert.Equal(t, uint32(65), index)

	index, err = s.Alloc()
	require.Nil(t, err)
	assert.Equal(t, uint32(70), index)
}

func TestAllocExhausted(t *testing.T) {
	s := NewStore()
	for i := 0; i < Count; i++ {
		_, err := s.Alloc()
		require.Nil(t, err)
	}

	_, err := s.Alloc()
	require.Equal(t, errExhausted, err)
	assert.True(t, err.Is(kernel.AllocationExhausted))
	assert.Zero(t, s.FreeCount())
}

func TestFreeIsIdempotent(t *testing.T) {
	s := NewStore()
	index, err := s.Alloc()
	require.Nil(t, err)

	s.Free(index)
	s.Free(index)
	s.Free(Count + 10)

	assert.Equal(t, uint32(Count), s.FreeCount())
	assert.Equal(t, clearBits(s), s.FreeCount())
}

func TestClaim(t *testing.T) {
	s := NewStore()

	require.Nil(t, s.Claim(42))
	assert.True(t, s.IsUsed(42))
	assert.Equal(t, uint32(Count-1), s.FreeCount())

	assert.Equal(t, errInUse, s.Claim(42))
	assert.Equal(t, errOutOfRange, s.Claim(Count))
	assert.Equal(t, uint32(Count-1), s.FreeCount())

	index, err := s.Alloc()
	require.Nil(t, err)
	assert.Zero(t, index)
}

func TestData(t *testing.T) {
	s := NewStore()
	index, err := s.Alloc()
	require.Nil(t, err)

	data := s.Data(index)
	require.Len(t, data, Size)
	copy(data, "hello")
	assert.Equal(t, []byte("hello"), s.Data(index)[:5])

	assert.Nil(t, s.Data(Count))
	assert.False(t, s.IsUsed(Count))
}

func TestFreeCounterMatchesBitmap(t *testing.T) {
	var (
		s     = NewStore()
		rng   = rand.New(rand.NewSource(1))
		owned []uint32
	)

	for step := 0; step < 20000; step++ {
		switch op := rng.Intn(10); {
		case op < 6:
			index, err := s.Alloc()
			if len(owned) == Count {
				require.Equal(t, errExhausted, err)
				break
			}
			require.Nil(t, err)
			owned = append(owned, index)
		case op < 9 && len(owned) != 0:
			i := rng.Intn(len(owned))
			s.Free(owned[i])
			owned = append(owned[:i], owned[i+1:]...)
		default:
			// double free or free of a never allocated block
			s.Free(uint32(rng.Intn(Count + 8)))
			owned = owned[:0]
			for i := uint32(0); i < Count; i++ {
				if s.IsUsed(i) {
					owned = append(owned, i)
				}
			}
		}

		require.Equal(t, clearBits(s), s.FreeCount(), "step %d", step)
		require.Equal(t, uint32(Count-len(owned)), s.FreeCount(), "step %d", step)
	}
}
