package fit

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/avollmer/starpipe/internal/types"
)

// SaveChains serializes a posterior sample set to a msgpack file so a
// later run can reuse the chains without resampling.
func SaveChains(path string, set *types.PosteriorSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chain cache %s: %w", path, err)
	}
	defer f.Close()

	if err := msgpack.NewEncoder(f).Encode(set); err != nil {
		return fmt.Errorf("failed to encode chains: %w", err)
	}
	return nil
}

// LoadChains reads a posterior sample set saved by SaveChains.
func LoadChains(path string) (*types.PosteriorSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var set types.PosteriorSet
	if err := msgpack.NewDecoder(f).Decode(&set); err != nil {
		return nil, fmt.Errorf("failed to decode chain cache %s: %w", path, err)
	}
	if len(set.Params) == 0 || len(set.Chains) == 0 {
		return nil, fmt.Errorf("chain cache %s is empty", path)
	}
	return &set, nil
}
