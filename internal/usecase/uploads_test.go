package usecase

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadsSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u := NewUploads(dir, 1024, []string{".csv", ".parquet"}, nil)

	info, err := u.Save("../../Prices.CSV", strings.NewReader("Date,Symbol,Px\n"))
	require.NoError(t, err)
	assert.Equal(t, "Prices.CSV", info.Name)
	assert.Equal(t, int64(15), info.Size)
	assert.True(t, strings.HasSuffix(info.Path, ".csv"))
	assert.NotContains(t, info.Path, string(filepath.Separator))

	b, err := os.ReadFile(filepath.Join(dir, info.Path))
	require.NoError(t, err)
	assert.Equal(t, "Date,Symbol,Px\n", string(b))
}

func TestUploadsRejectsExtension(t *testing.T) {
	u := NewUploads(t.TempDir(), 0, []string{".csv"}, nil)
	_, err := u.Save("prices.exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrExtensionNotAllowed)
}

func TestUploadsSizeLimit(t *testing.T) {
	dir := t.TempDir()
	u := NewUploads(dir, 4, []string{".csv"}, nil)

	_, err := u.Save("big.csv", strings.NewReader("0123456789"))
	assert.ErrorIs(t, err, ErrUploadTooLarge)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
