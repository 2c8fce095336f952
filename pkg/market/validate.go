package market

import (
	"fmt"
	"strings"
)

// ValidateAssets enforces the per-snapshot invariants: every asset carries an
// identifier and a coin id, and neither repeats.
func ValidateAssets(assets []Asset) error {
	keys := make(map[string]int, len(assets))
	ids := make(map[string]int, len(assets))
	for i, asset := range assets {
		key := asset.Key()
		if key == "" {
			return fmt.Errorf("%w: asset %d has no symbol", ErrMalformedResponse, i)
		}
		id := strings.TrimSpace(asset.ID)
		if id == "" {
			return fmt.Errorf("%w: asset %q has no id", ErrMalformedResponse, key)
		}
		if prev, ok := keys[key]; ok {
			return fmt.Errorf("%w: duplicate symbol %q at %d and %d", ErrMalformedResponse, key, prev, i)
		}
		if prev, ok := ids[id]; ok {
			return fmt.Errorf("%w: duplicate id %q at %d and %d", ErrMalformedResponse, id, prev, i)
		}
		keys[key] = i
		ids[id] = i
	}
	return nil
}
