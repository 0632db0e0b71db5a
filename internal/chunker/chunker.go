package chunker

import (
	"fmt"
	"strings"

	"toolkitrag/internal/domain"
)

// Default character budgets for chunk assembly.
const (
	DefaultTargetMin = 800
	DefaultTargetMax = 1200
	DefaultOverlap   = 150
)

// BlockChunker accumulates content blocks into overlapping character-budgeted
// chunks. Budgets count characters (runes), not bytes, so multi-byte text is
// never split mid-rune. Chunks close at block boundaries once the buffer
// holds at least targetMin characters and adding the next block would push it
// past targetMax. The trailing overlap characters of every closed chunk seed
// the next one so local context survives the boundary.
type BlockChunker struct {
	targetMin int
	targetMax int
	overlap   int
}

// New creates a chunker with the given character budgets. Out-of-range
// values fall back to defaults.
func New(targetMin, targetMax, overlap int) *BlockChunker {
	if targetMin <= 0 {
		targetMin = DefaultTargetMin
	}
	if targetMax <= targetMin {
		targetMax = targetMin + (DefaultTargetMax - DefaultTargetMin)
	}
	if overlap < 0 || overlap >= targetMin {
		overlap = DefaultOverlap
	}
	return &BlockChunker{targetMin: targetMin, targetMax: targetMax, overlap: overlap}
}

// Chunk splits an ordered block sequence into chunks. Each chunk records the
// most recent heading seen before or within it, and chunk indices are
// gap-free starting at 0. Whitespace-only blocks are skipped. Returns
// ErrInvalidInput for an empty block sequence; a sequence with no extractable
// text yields an empty result for the caller to reject.
func (c *BlockChunker) Chunk(blocks []domain.ContentBlock) ([]domain.Chunk, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: empty content block sequence", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	var buf []rune
	heading := ""
	seeded := false // buffer holds only carried overlap, no new content yet

	emit := func(text []rune) {
		chunks = append(chunks, domain.Chunk{
			Heading:    heading,
			Text:       string(text),
			Index:      len(chunks),
			CharLength: len(text),
		})
	}

	for _, b := range blocks {
		if b.Heading != "" {
			heading = b.Heading
		}
		text := []rune(strings.TrimSpace(b.Text))
		if len(text) == 0 {
			continue
		}

		joined := text
		if len(buf) > 0 {
			// A block that cannot fit closes the current chunk first,
			// provided the buffer already meets the minimum.
			if !seeded && len(buf) >= c.targetMin && len(buf)+1+len(text) > c.targetMax {
				emit(buf)
				if c.overlap > 0 && len(buf) > c.overlap {
					buf = append([]rune(nil), buf[len(buf)-c.overlap:]...)
					seeded = true
				} else {
					buf = nil
					seeded = false
				}
			}
			if len(buf) > 0 {
				joined = make([]rune, 0, len(buf)+1+len(text))
				joined = append(joined, buf...)
				joined = append(joined, ' ')
				joined = append(joined, text...)
			}
		}

		if len(joined) > c.targetMax {
			// Oversized accumulation: emit full-width windows and keep the
			// remainder (with its natural leading overlap) buffering.
			start := 0
			for len(joined)-start > c.targetMax {
				emit(joined[start : start+c.targetMax])
				start += c.targetMax - c.overlap
			}
			buf = append([]rune(nil), joined[start:]...)
			seeded = false
			continue
		}

		buf = append([]rune(nil), joined...)
		seeded = false
	}

	if len(buf) > 0 && !seeded {
		emit(buf)
	}
	return chunks, nil
}
