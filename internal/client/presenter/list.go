package presenter

import (
	"strconv"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/client/cache"
)

// ListState is the screen state of any cached list.
type ListState[T any, F any] struct {
	Items       []T
	Filter      F
	LastUpdated time.Time
	Stale       bool
	Loaded      bool
}

func fromCollection[T any, F any](s ListState[T, F], c cache.Collection[T]) ListState[T, F] {
	s.Items = c.Items
	s.LastUpdated = c.LastUpdated
	s.Stale = c.IsStale
	s.Loaded = true
	return s
}

// batchSummary words the outcome of a partial batch for a toast.
func batchSummary(what string, ok, failed int) string {
	if failed == 0 {
		return plural(ok, what) + " added"
	}
	return plural(ok, what) + " added, " + plural(failed, what) + " failed"
}

func plural(n int, what string) string {
	if n == 1 {
		return "1 " + what
	}
	return strconv.Itoa(n) + " " + what + "s"
}
