package library

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pevans/newsdocs/docx"
	"github.com/pevans/newsdocs/errs"
	"github.com/pevans/newsdocs/fsutil"
	"github.com/pevans/newsdocs/paper"
)

var record = paper.Record{
	Category:    "政策",
	Title:       "关于印发方案的通知",
	PublishTime: "2024-01-01 10:00",
	SourceURL:   "https://example.com/a.shtml",
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "hubeigov")

	lib, err := New(dir, fsutil.NoOwner, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, lib.Dir())
}

func TestRender(t *testing.T) {
	doc, err := Render(record, []paper.Paragraph{
		paper.PlainParagraph("第一段"),
		paper.PlainParagraph("   "),
		{Runs: []paper.Run{{Text: "一、"}, {Text: "重点", Bold: true}}},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, doc.Len())
	assert.Equal(t, []string{
		"政策",
		"关于印发方案的通知",
		"2024-01-01 10:00",
		"第一段",
		"一、重点",
	}, doc.Paragraphs())
}

func TestRenderEmptyBody(t *testing.T) {
	_, err := Render(record, []paper.Paragraph{paper.PlainParagraph("")})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.RenderFailure))
}

func TestSaveAndIndex(t *testing.T) {
	lib, err := New(t.TempDir(), fsutil.NoOwner, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	name := paper.FileName(record)
	path, err := lib.Save(name, record, []paper.Paragraph{paper.PlainParagraph("正文")})
	require.NoError(t, err)

	doc, err := docx.Open(path)
	require.NoError(t, err)
	assert.Contains(t, doc.Text(), "正文")

	// Archived copies count as present.
	archived := filepath.Join(lib.Dir(), "已读的文件", "2024-01-01")
	require.NoError(t, os.MkdirAll(archived, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(archived, "old.docx"), nil, 0o644))

	idx, err := lib.Index()
	require.NoError(t, err)
	assert.True(t, idx.Has(name))
	assert.True(t, idx.Has("old.docx"))
	assert.False(t, idx.Has("other.docx"))
}

func TestDocuments(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.docx", "a.docx", "~$a.docx", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.docx"), 0o755))

	names, err := Documents(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.docx", "b.docx"}, names)
}
