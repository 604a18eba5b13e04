package textproc

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunker_Validation(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		wantErr bool
	}{
		{"valid", 500, 50, false},
		{"zero overlap", 100, 0, false},
		{"zero size", 0, 0, true},
		{"negative overlap", 100, -1, true},
		{"overlap equals size", 100, 100, true},
		{"overlap above size", 100, 150, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewChunker(tt.size, tt.overlap)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChunker_Split_EmptyText(t *testing.T) {
	c, err := NewChunker(500, 50)
	require.NoError(t, err)
	assert.Empty(t, c.Split(""))
}

func TestChunker_Split_ShortText(t *testing.T) {
	c, err := NewChunker(500, 50)
	require.NoError(t, err)

	segments := c.Split("short text")
	require.Len(t, segments, 1)
	assert.Equal(t, 0, segments[0].Index)
	assert.Equal(t, "short text", segments[0].Text)
}

func TestChunker_Split_ExactScenario(t *testing.T) {
	// 1200 characters with size 500 and overlap 50 must produce exactly
	// three chunks whose neighbours share 50 characters.
	c, err := NewChunker(500, 50)
	require.NoError(t, err)

	text := strings.Repeat("abcdefghij", 120)
	require.Len(t, []rune(text), 1200)

	segments := c.Split(text)
	require.Len(t, segments, 3)

	first := []rune(segments[0].Text)
	second := []rune(segments[1].Text)
	assert.Equal(t, string(first[len(first)-50:]), string(second[:50]))
	assert.Equal(t, 500, len(first))
	assert.Equal(t, 500, len(second))
	assert.Equal(t, 300, len([]rune(segments[2].Text)))
}

func TestChunker_Split_Reconstruction(t *testing.T) {
	// Concatenating chunks with the overlap removed must reconstruct the
	// original text for a variety of lengths.
	tests := []struct {
		name    string
		size    int
		overlap int
		length  int
	}{
		{"no overlap", 100, 0, 950},
		{"small overlap", 64, 16, 1000},
		{"length below size", 500, 50, 120},
		{"length equals size", 500, 50, 500},
		{"large overlap", 10, 9, 57},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewChunker(tt.size, tt.overlap)
			require.NoError(t, err)

			text := strings.Repeat("অআকখগঘab", tt.length/8+1)
			text = string([]rune(text)[:tt.length])

			segments := c.Split(text)
			require.NotEmpty(t, segments)

			var b strings.Builder
			for i, seg := range segments {
				runes := []rune(seg.Text)
				if i == 0 {
					b.WriteString(seg.Text)
					continue
				}
				b.WriteString(string(runes[tt.overlap:]))
			}
			assert.Equal(t, text, b.String())

			// Expected chunk count from the sliding-window recurrence.
			n := tt.length
			want := 1
			if n > tt.size {
				step := tt.size - tt.overlap
				want = (n - tt.overlap + step - 1) / step
			}
			assert.Equal(t, want, len(segments))
		})
	}
}

func TestChunker_Split_MonotonicIndexes(t *testing.T) {
	c, err := NewChunker(50, 10)
	require.NoError(t, err)

	segments := c.Split(strings.Repeat("x", 333))
	for i, seg := range segments {
		assert.Equal(t, i, seg.Index)
		if i > 0 {
			assert.Greater(t, seg.Start, segments[i-1].Start)
		}
	}
}
