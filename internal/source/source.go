package source

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"toolkitrag/internal/domain"
)

var headingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// ReadFile loads a plaintext or markdown file and returns its ordered
// content blocks. Binary formats are out of scope; upstream parsers feed
// the same block shape.
func ReadFile(path string) ([]domain.ContentBlock, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	blocks := Blocks(string(data))
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: no extractable content in %s", domain.ErrInvalidInput, path)
	}
	return blocks, nil
}

// Blocks splits text into paragraph blocks labeled with the most recent
// markdown heading. Blank paragraphs are dropped; block order follows the
// document.
func Blocks(text string) []domain.ContentBlock {
	paragraphs := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")

	var blocks []domain.ContentBlock
	heading := ""
	order := 0
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A paragraph may still contain heading lines; split them out so a
		// heading always labels the text that follows it.
		var body []string
		flush := func() {
			if len(body) == 0 {
				return
			}
			text := strings.TrimSpace(strings.Join(body, "\n"))
			body = body[:0]
			if text == "" {
				return
			}
			blocks = append(blocks, domain.ContentBlock{Text: text, Heading: heading, Order: order})
			order++
		}
		for _, line := range strings.Split(para, "\n") {
			if m := headingRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
				flush()
				heading = strings.TrimSpace(m[2])
				continue
			}
			body = append(body, line)
		}
		flush()
	}
	return blocks
}
