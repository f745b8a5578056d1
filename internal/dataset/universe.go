package dataset

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/prabhatpushp/backtesting/internal/core"
)

// ListFiles returns the CSV files in a directory, sorted by name so callers
// see a stable ordering.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, core.WrapError(core.ErrNoData,
			fmt.Errorf("reading data directory: %w", err))
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Sample picks n files from the list without replacement using the given
// source of randomness. The caller owns the seed, which is what makes a
// sampled universe reproducible. When n meets or exceeds the list length
// the whole list is returned in shuffled order.
func Sample(files []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(files) == 0 {
		return nil
	}

	shuffled := make([]string, len(files))
	copy(shuffled, files)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
