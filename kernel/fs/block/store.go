// Package block implements a fixed arena of equally sized storage blocks with
// a used/free bitmap.
package block

import "github.com/srunixre/srunix/kernel"

const (
	// Size is the size of each block in bytes.
	Size = 1024

	// Count is the number of blocks in the arena.
	Count = 1024
)

var (
	errExhausted  = &kernel.Error{Module: "block", Message: "no free blocks", Kind: kernel.AllocationExhausted}
	errOutOfRange = &kernel.Error{Module: "block", Message: "block index out of range", Kind: kernel.InvalidArgument}
	errInUse      = &kernel.Error{Module: "block", Message: "block already in use", Kind: kernel.InvalidArgument}
)

// Store is the block arena. Block i is in use when bit (i % 64) of
// usedBitmap[i / 64] is set.
type Store struct {
	data [Count][Size]byte

	usedBitmap [Count / 64]uint64

	// freeCount is maintained incrementally and always equals the number
	// of clear bits in usedBitmap.
	freeCount uint32
}

// NewStore returns a store with every block free.
func NewStore() *Store {
	return &Store{freeCount: Count}
}

// Alloc reserves the first free block and returns its index.
func (s *Store) Alloc() (uint32, *kernel.Error) {
	if s.freeCount == 0 {
		return 0, errExhausted
	}

	for blockIndex, word := range s.usedBitmap {
		if word == ^uint64(0) {
			continue
		}

		for bit := uint32(0); bit < 64; bit++ {
			if word&(1<<bit) == 0 {
				index := uint32(blockIndex)*64 + bit
				s.mark(index, true)
				return index, nil
			}
		}
	}

	return 0, errExhausted
}

// Claim reserves a specific block. It fails if the block is already in use.
func (s *Store) Claim(index uint32) *kernel.Error {
	if index >= Count {
		return errOutOfRange
	}

	if s.IsUsed(index) {
		return errInUse
	}

	s.mark(index, true)
	return nil
}

// Free releases a block. Freeing a block that is not in use or an out of
// range index is a no-op.
func (s *Store) Free(index uint32) {
	if index >= Count || !s.IsUsed(index) {
		return
	}

	s.mark(index, false)
}

// IsUsed returns true if the block at index is reserved.
func (s *Store) IsUsed(index uint32) bool {
	if index >= Count {
		return false
	}
	return s.usedBitmap[index>>6]&(1<<(index&63)) != 0
}

// FreeCount returns the number of free blocks.
func (s *Store) FreeCount() uint32 {
	return s.freeCount
}

// Data returns the contents of the block at index or nil if the index is out
// of range.
func (s *Store) Data(index uint32) []byte {
	if index >= Count {
		return nil
	}
	return s.data[index][:]
}

func (s *Store) mark(index uint32, used bool) {
	mask := uint64(1) << (index & 63)
	if used {
		s.usedBitmap[index>>6] |= mask
		s.freeCount--
		return
	}

	s.usedBitmap[index>>6] &^= mask
	s.freeCount++
}
