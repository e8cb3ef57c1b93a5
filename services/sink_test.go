package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	sink := FileSink{Dir: dir}

	require.NoError(t, sink.Save("Laporan_Opname_dan_RAB_TZ01.pdf", []byte("%PDF-1.3 test")))

	data, err := os.ReadFile(filepath.Join(dir, "Laporan_Opname_dan_RAB_TZ01.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestFileSink_StripsDirectories(t *testing.T) {
	dir := t.TempDir()
	sink := FileSink{Dir: dir}

	require.NoError(t, sink.Save("../../escape.pdf", []byte("x")))
	_, err := os.Stat(filepath.Join(dir, "escape.pdf"))
	assert.NoError(t, err)
}

func TestFileSink_InvalidName(t *testing.T) {
	sink := FileSink{Dir: t.TempDir()}
	assert.Error(t, sink.Save("", []byte("x")))
}

func TestMemorySink(t *testing.T) {
	var sink MemorySink
	require.NoError(t, sink.Save("a.pdf", []byte("1")))
	require.NoError(t, sink.Save("b.pdf", []byte("2")))
	require.NoError(t, sink.Save("a.pdf", []byte("3")))

	assert.Equal(t, []string{"a.pdf", "b.pdf"}, sink.Names())
	data, ok := sink.Get("a.pdf")
	assert.True(t, ok)
	assert.Equal(t, "3", string(data))
}
