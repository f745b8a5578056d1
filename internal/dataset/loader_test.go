package dataset_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhatpushp/backtesting/internal/core"
	"github.com/prabhatpushp/backtesting/internal/dataset"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "AAPL.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2024-01-02,100,105,99,102,10000\n"+
			"2024-01-03,102,108,101,107,12000\n")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	series, err := loader.LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "AAPL", series.Symbol())
	assert.Equal(t, 2, series.Len())

	bar, err := series.At(0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bar.Time)
	assert.Equal(t, 100.0, bar.Open)
	assert.Equal(t, 102.0, bar.Close)
	assert.Equal(t, 10000.0, bar.Volume)
}

func TestLoader_LoadFile_UnixTimestamps(t *testing.T) {
	dir := t.TempDir()
	// 1704153600 = 2024-01-02T00:00:00Z
	path := writeCSV(t, dir, "BTC.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"1704153600,100,105,99,102,10000\n")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	series, err := loader.LoadFile(path)
	require.NoError(t, err)

	bar, err := series.At(0)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), bar.Time)
}

func TestLoader_LoadFile_SortsRows(t *testing.T) {
	dir := t.TempDir()
	// Newest-first files are common vendor exports.
	path := writeCSV(t, dir, "MSFT.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2024-01-03,102,108,101,107,12000\n"+
			"2024-01-02,100,105,99,102,10000\n")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	series, err := loader.LoadFile(path)
	require.NoError(t, err)

	first, err := series.At(0)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Time.Day())
}

func TestLoader_LoadFile_CustomColumns(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "tsla.csv",
		"timestamp,o,h,l,c,vol\n"+
			"2024-01-02,100,105,99,102,10000\n")

	cols := dataset.Columns{Date: "timestamp", Open: "o", High: "h", Low: "l", Close: "c", Volume: "vol"}
	loader := dataset.NewLoader(cols, nil)
	series, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "tsla", series.Symbol())
}

func TestLoader_LoadFile_MissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "BAD.csv",
		"Date,Open,High,Low,Close\n"+
			"2024-01-02,100,105,99,102\n")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	_, err := loader.LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDataInvalid), "expected ErrDataInvalid, got %v", err)
}

func TestLoader_LoadFile_MalformedRow(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "BAD.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2024-01-02,not-a-price,105,99,102,10000\n")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	_, err := loader.LoadFile(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDataInvalid))
}

func TestLoader_LoadDir_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "GOOD.csv",
		"Date,Open,High,Low,Close,Volume\n"+
			"2024-01-02,100,105,99,102,10000\n")
	writeCSV(t, dir, "BROKEN.csv", "not,a,price,file\nat,all,really,no\n")
	writeCSV(t, dir, "notes.txt", "not csv at all")

	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	all, err := loader.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "GOOD", all[0].Symbol())
}

func TestLoader_LoadDir_Empty(t *testing.T) {
	loader := dataset.NewLoader(dataset.DefaultColumns(), nil)
	_, err := loader.LoadDir(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrNoData))
}
