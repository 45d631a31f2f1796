// Package bitmap is a growable bitset over non-negative integer IDs. The
// verifier uses it to find sequence numbers that occur more than once.
package bitmap

// Bitmap is a bitset backed by 64-bit words. The zero value is an empty set
// ready for use.
type Bitmap struct {
	data  []uint64
	limit uint64
	count uint64
}

// New returns a bitmap presized for IDs in [0, hint] that grows on demand up
// to and including limit. IDs above limit are never stored.
func New(hint, limit uint64) *Bitmap {
	b := &Bitmap{limit: limit}
	if hint > 0 {
		b.data = make([]uint64, min(hint, limit)/64+1)
	}
	return b
}

// Add sets id and reports whether it was already set. IDs above the limit
// are ignored and report false.
func (b *Bitmap) Add(id uint64) (existed bool) {
	if id > b.limit {
		return false
	}
	word := id / 64
	if word >= uint64(len(b.data)) {
		b.grow(word)
	}
	mask := uint64(1) << (id % 64)
	if b.data[word]&mask != 0 {
		return true
	}
	b.data[word] |= mask
	b.count++
	return false
}

// Has reports whether id is set.
func (b *Bitmap) Has(id uint64) bool {
	word := id / 64
	if word >= uint64(len(b.data)) {
		return false
	}
	return b.data[word]&(uint64(1)<<(id%64)) != 0
}

// Len is the number of distinct IDs set.
func (b *Bitmap) Len() uint64 { return b.count }

// Limit is the largest ID the bitmap stores.
func (b *Bitmap) Limit() uint64 { return b.limit }

func (b *Bitmap) grow(word uint64) {
	n := max(word+1, uint64(len(b.data))*2)
	n = min(n, b.limit/64+1)
	data := make([]uint64, n)
	copy(data, b.data)
	b.data = data
}
