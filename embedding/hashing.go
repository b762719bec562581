package embedding

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// DefaultHashingDimensions is the bucket count of the hashing embedder.
const DefaultHashingDimensions = 256

// Hashing is a local bag-of-words embedder. Each term is hashed into one of
// a fixed number of buckets and the counts are L2-normalized. It needs no
// network and is deterministic, which makes it the default.
type Hashing struct {
	dims int
}

// NewHashing creates a hashing embedder with dims buckets.
func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Dimensions() int { return h.dims }

func (h *Hashing) Model() string { return fmt.Sprintf("hashing-%d", h.dims) }

// Embed never fails; text without any word characters yields a zero vector.
func (h *Hashing) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.dims)
	for _, term := range Terms(text) {
		vec[xxhash.Sum64String(term)%uint64(h.dims)]++
	}
	return Normalize(vec), nil
}
