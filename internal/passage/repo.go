package passage

import (
	"context"
	"errors"

	"github.com/mind-engage/ielts-studio/internal/zones"
)

var (
	ErrNotFound     = errors.New("passage not found")
	ErrNotListening = errors.New("audio is only allowed on listening tasks")
	ErrInvalid      = errors.New("invalid passage")
)

type ListOpts struct {
	Q      string // title substring
	Kind   Kind   // empty = any
	Limit  int
	Offset int
}

type Store interface {
	Put(ctx context.Context, p Passage) (Passage, error)
	Get(ctx context.Context, id string) (Passage, error)
	List(ctx context.Context, opts ListOpts) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	SetAudio(ctx context.Context, id, key string) error
	// SetText replaces both texts of an existing passage and leaves every
	// other field alone.
	SetText(ctx context.Context, id string, dt zones.DualText) (Passage, error)
}

func normalizeLimit(n int) int {
	if n <= 0 || n > 200 {
		return 50
	}
	return n
}
