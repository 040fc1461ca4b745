package synth

import (
	"context"

	"github.com/okian/footelo/internal/adapters/dataset"
)

// Write saves every season and division as a results file through store
// and returns the written paths.
func Write(ctx context.Context, store *dataset.Store, seasons []Season, divisions []string) ([]string, error) {
	var paths []string
	for _, s := range seasons {
		for _, div := range divisions {
			matches, ok := s.Matches[div]
			if !ok {
				continue
			}
			path, err := store.SaveSeason(ctx, s.Code, div, matches)
			if err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}
