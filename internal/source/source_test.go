package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolkitrag/internal/domain"
)

func TestBlocks_PlainParagraphs(t *testing.T) {
	blocks := Blocks("First paragraph.\n\nSecond paragraph.\n\n\n\nThird.")
	require.Len(t, blocks, 3)
	assert.Equal(t, "First paragraph.", blocks[0].Text)
	assert.Equal(t, "Second paragraph.", blocks[1].Text)
	assert.Equal(t, "Third.", blocks[2].Text)
	for i, b := range blocks {
		assert.Equal(t, i, b.Order)
		assert.Equal(t, "", b.Heading)
	}
}

func TestBlocks_MarkdownHeadings(t *testing.T) {
	text := "# Installation\n\nRun the installer.\n\n## Linux\n\nUse the package manager.\n\nThen verify."
	blocks := Blocks(text)
	require.Len(t, blocks, 3)

	assert.Equal(t, "Run the installer.", blocks[0].Text)
	assert.Equal(t, "Installation", blocks[0].Heading)
	assert.Equal(t, "Use the package manager.", blocks[1].Text)
	assert.Equal(t, "Linux", blocks[1].Heading)
	assert.Equal(t, "Then verify.", blocks[2].Text)
	assert.Equal(t, "Linux", blocks[2].Heading)
}

func TestBlocks_HeadingInsideParagraph(t *testing.T) {
	// no blank line between the heading and its body
	blocks := Blocks("## Config\nSet the flag.")
	require.Len(t, blocks, 1)
	assert.Equal(t, "Set the flag.", blocks[0].Text)
	assert.Equal(t, "Config", blocks[0].Heading)
}

func TestBlocks_CRLFNormalized(t *testing.T) {
	blocks := Blocks("one\r\n\r\ntwo")
	require.Len(t, blocks, 2)
	assert.Equal(t, "one", blocks[0].Text)
	assert.Equal(t, "two", blocks[1].Text)
}

func TestBlocks_Empty(t *testing.T) {
	assert.Empty(t, Blocks(""))
	assert.Empty(t, Blocks("   \n\n  \n\n"))
	assert.Empty(t, Blocks("# Only A Heading"))
}

func TestReadFile_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nBody text."), 0o644))

	blocks, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "Body text.", blocks[0].Text)
	assert.Equal(t, "Title", blocks[0].Heading)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}

func TestReadFile_NoContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	require.NoError(t, os.WriteFile(path, []byte("  \n\n  "), 0o644))

	_, err := ReadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
