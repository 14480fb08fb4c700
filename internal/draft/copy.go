package draft

import (
	"context"
	"errors"
	"fmt"
)

// Copy writes the draft held by src into dst. It reports false, and leaves dst
// untouched, when src is empty. SavedAt is restamped by dst.
func Copy(ctx context.Context, src, dst Store) (bool, error) {
	r, err := src.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error reading source draft: %w", err)
	}

	if err := dst.Put(ctx, NewRecord(r.Content, r.Fields)); err != nil {
		return false, fmt.Errorf("error writing destination draft: %w", err)
	}
	return true, nil
}
