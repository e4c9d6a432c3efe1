// Package content supplies the word pairs a round is built from. The
// session draws one pair uniformly at random; everyone but the impostor
// gets the normal subject, the impostor gets the divergent one.
package content

import "math/rand"

// WordPair is one drawable subject pair with illustration references
type WordPair struct {
	Normal        string
	Impostor      string
	NormalImage   string
	ImpostorImage string
}

// Source supplies word pairs for new rounds
type Source interface {
	RandomPair() WordPair
}

// StaticSource draws uniformly from a fixed in-memory pair list
type StaticSource struct {
	pairs []WordPair
}

// NewStaticSource creates a source over the given pairs. It panics on an
// empty list since a lobby could never start a round.
func NewStaticSource(pairs []WordPair) *StaticSource {
	if len(pairs) == 0 {
		panic("content: empty word pair list")
	}
	return &StaticSource{pairs: pairs}
}

// DefaultSource returns a source over the built-in pair list
func DefaultSource() *StaticSource {
	return NewStaticSource(defaultPairs)
}

// RandomPair returns one pair chosen uniformly at random
func (s *StaticSource) RandomPair() WordPair {
	return s.pairs[rand.Intn(len(s.pairs))]
}

var defaultPairs = []WordPair{
	{
		Normal:        "dog",
		Impostor:      "cat",
		NormalImage:   "https://images.unsplash.com/photo-1561037404-61cd46aa615b",
		ImpostorImage: "https://images.unsplash.com/photo-1514888286974-6c03e2ca1dba",
	},
	{
		Normal:        "apple",
		Impostor:      "orange",
		NormalImage:   "https://images.unsplash.com/photo-1567306226416-28f0ef17a324",
		ImpostorImage: "https://images.unsplash.com/photo-1547517023-055a254de5e0",
	},
	{
		Normal:        "car",
		Impostor:      "bicycle",
		NormalImage:   "https://images.unsplash.com/photo-1492144534655-ae79c964c9d7",
		ImpostorImage: "https://images.unsplash.com/photo-1485965127657-8c6a82fed280",
	},
	{
		Normal:        "tree",
		Impostor:      "flower",
		NormalImage:   "https://images.unsplash.com/photo-1518495973543-1e286b83f072",
		ImpostorImage: "https://images.unsplash.com/photo-1503152394-8434d8a1c027",
	},
	{
		Normal:        "beach",
		Impostor:      "mountain",
		NormalImage:   "https://images.unsplash.com/photo-1507525428034-b723cf961d3e",
		ImpostorImage: "https://images.unsplash.com/photo-1464822759023-fed622ff2c3b",
	},
}
