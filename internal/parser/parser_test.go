package parser

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paper-rag/internal/models"
)

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestParse_Text(t *testing.T) {
	docs, err := Parse("notes.txt", []byte("  Transformers use attention.  \n"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, models.Document{
		ID:     "notes.txt#p1",
		Source: "notes.txt",
		Page:   1,
		Text:   "Transformers use attention.",
	}, docs[0])
}

func TestParse_EmptyTextYieldsNoDocuments(t *testing.T) {
	docs, err := Parse("empty.txt", []byte(" \n\t"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse("image.png", []byte{0x89, 0x50})
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}

func TestParse_ExtensionIsCaseInsensitive(t *testing.T) {
	docs, err := Parse("README.TXT", []byte("hello"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestParse_Markdown(t *testing.T) {
	src := "# Results\n\nThe model reaches **28.4** BLEU.\n\n```\ncode line\n```\n"
	docs, err := Parse("paper.md", []byte(src))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Text, "Results")
	assert.Contains(t, docs[0].Text, "The model reaches 28.4 BLEU.")
	assert.Contains(t, docs[0].Text, "code line")
	assert.NotContains(t, docs[0].Text, "**")
	assert.NotContains(t, docs[0].Text, "#")
}

func TestParse_PPTXOnePagePerSlide(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"ppt/slides/slide2.xml":            `<p:sld><a:t>Second</a:t><a:t>slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml":            `<p:sld><a:t>Intro &amp; motivation</a:t></p:sld>`,
		"ppt/slides/_rels/slide1.xml.rels": `<a:t>ignored</a:t>`,
		"ppt/slides/slide3.xml":            `<p:sld></p:sld>`,
	})
	docs, err := Parse("talk.pptx", data)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Intro & motivation", docs[0].Text)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, "Second slide", docs[1].Text)
	assert.Equal(t, 2, docs[1].Page)
	assert.Equal(t, "talk.pptx#p2", docs[1].ID)
}

func TestParse_PPTXHugeSlideNumber(t *testing.T) {
	data := zipBytes(t, map[string]string{
		"ppt/slides/slide999999999999.xml": `<p:sld><a:t>Appendix</a:t></p:sld>`,
		"ppt/slides/slide7.xml":            `<p:sld><a:t>Results</a:t></p:sld>`,
	})
	docs, err := Parse("deck.pptx", data)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Results", docs[0].Text)
	assert.Equal(t, 1, docs[0].Page)
	assert.Equal(t, "Appendix", docs[1].Text)
	assert.Equal(t, 2, docs[1].Page)
}

func TestParse_InvalidPDF(t *testing.T) {
	_, err := Parse("broken.pdf", []byte("not a pdf"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInvalidArgument)
}

func TestParseFile_UsesBaseName(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "abstract.txt")
	require.NoError(t, os.WriteFile(path, []byte("We propose a new architecture."), 0o600))

	docs, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "abstract.txt", docs[0].Source)
}

func TestSupportedExtensions(t *testing.T) {
	assert.Contains(t, SupportedExtensions(), ".pdf")
	assert.Contains(t, SupportedExtensions(), ".md")
}
