package textproc

import "errors"

// Segment is one chunk of a split text. Start and End are rune offsets into
// the source; Index counts segments in production order from zero.
type Segment struct {
	Index int
	Text  string
	Start int
	End   int
}

// Chunker splits normalized text into overlapping fixed-size segments.
// Sizes are expressed in runes so multi-byte Bengali text chunks the same
// way Latin text does.
type Chunker struct {
	size    int
	overlap int
}

// NewChunker creates a Chunker. size must be positive and overlap must
// satisfy 0 <= overlap < size.
func NewChunker(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be > 0")
	}
	if overlap < 0 || overlap >= size {
		return nil, errors.New("chunk overlap must be >= 0 and < chunk size")
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Split returns the ordered segments covering text. Consecutive segments
// share overlap trailing/leading runes; the final segment may be shorter.
// Empty text yields no segments, text shorter than the chunk size yields
// exactly one.
func (c *Chunker) Split(text string) []Segment {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	var segments []Segment
	for start := 0; ; start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, Segment{
			Index: len(segments),
			Text:  string(runes[start:end]),
			Start: start,
			End:   end,
		})
		if end == len(runes) {
			break
		}
	}
	return segments
}
