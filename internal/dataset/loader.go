// Package dataset loads OHLCV price history from CSV files and selects
// random test universes from a data directory.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// Columns names the CSV columns holding each bar field. Data vendors
// disagree on header naming, so the mapping is configurable.
type Columns struct {
	Date   string `mapstructure:"date"`
	Open   string `mapstructure:"open"`
	High   string `mapstructure:"high"`
	Low    string `mapstructure:"low"`
	Close  string `mapstructure:"close"`
	Volume string `mapstructure:"volume"`
}

// DefaultColumns returns the standard header mapping.
func DefaultColumns() Columns {
	return Columns{
		Date:   "Date",
		Open:   "Open",
		High:   "High",
		Low:    "Low",
		Close:  "Close",
		Volume: "Volume",
	}
}

// Loader reads CSV files into validated price series.
type Loader struct {
	cols Columns
	log  *zap.Logger
}

// NewLoader creates a Loader with the given column mapping. A nil logger
// disables logging.
func NewLoader(cols Columns, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{cols: cols, log: log}
}

// LoadFile reads one CSV file into a series. The symbol is the file name
// without its extension. Rows are sorted by timestamp before validation, so
// files stored newest-first load fine; duplicate timestamps still fail.
func (l *Loader) LoadFile(path string) (*core.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrDataInvalid,
			fmt.Errorf("%s: reading header: %w", path, err))
	}
	idx, err := l.columnIndex(header)
	if err != nil {
		return nil, core.WrapError(core.ErrDataInvalid,
			fmt.Errorf("%s: %w", path, err))
	}

	var bars []core.Bar
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrDataInvalid,
				fmt.Errorf("%s: reading rows: %w", path, err))
		}
		line++

		bar, err := parseBar(record, idx)
		if err != nil {
			return nil, core.WrapError(core.ErrDataInvalid,
				fmt.Errorf("%s line %d: %w", path, line, err))
		}
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	symbol := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	series, err := core.NewSeries(symbol, bars)
	if err != nil {
		return nil, err
	}

	l.log.Debug("loaded series",
		zap.String("symbol", symbol),
		zap.Int("bars", series.Len()))
	return series, nil
}

// LoadDir reads every CSV file in a directory. Files that fail to load are
// logged and skipped; the result is sorted by symbol.
func (l *Loader) LoadDir(dir string) ([]*core.Series, error) {
	files, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}

	var all []*core.Series
	for _, path := range files {
		series, err := l.LoadFile(path)
		if err != nil {
			l.log.Warn("skipping file",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		all = append(all, series)
	}
	if len(all) == 0 {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("no loadable CSV files in %s", dir))
	}
	return all, nil
}

// columnIndex maps the configured column names to their header positions.
func (l *Loader) columnIndex(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(name)] = i
	}

	idx := make(map[string]int, 6)
	for field, name := range map[string]string{
		"date":   l.cols.Date,
		"open":   l.cols.Open,
		"high":   l.cols.High,
		"low":    l.cols.Low,
		"close":  l.cols.Close,
		"volume": l.cols.Volume,
	} {
		i, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
		idx[field] = i
	}
	return idx, nil
}

func parseBar(record []string, idx map[string]int) (core.Bar, error) {
	var bar core.Bar

	ts, err := parseTime(record[idx["date"]])
	if err != nil {
		return bar, err
	}
	bar.Time = ts

	for field, dst := range map[string]*float64{
		"open":   &bar.Open,
		"high":   &bar.High,
		"low":    &bar.Low,
		"close":  &bar.Close,
		"volume": &bar.Volume,
	} {
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx[field]]), 64)
		if err != nil {
			return bar, fmt.Errorf("parsing %s: %w", field, err)
		}
		*dst = v
	}

	if err := bar.Validate(); err != nil {
		return bar, err
	}
	return bar, nil
}

// parseTime accepts unix seconds, RFC3339 timestamps or plain dates.
func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02", s); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
