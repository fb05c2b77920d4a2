package data

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"factorportfolio/internal/domain"
	"factorportfolio/internal/logger"

	"github.com/patrickmn/go-cache"
)

// CachedPriceSource memoizes fetches by (symbols, start, end) so batch
// runs over the same window hit the provider once.
type CachedPriceSource struct {
	Source PriceDataSource
	cache  *cache.Cache
	ttl    time.Duration
}

func NewCachedPriceSource(source PriceDataSource, ttl time.Duration) *CachedPriceSource {
	return &CachedPriceSource{
		Source: source,
		cache:  cache.New(ttl, ttl*2),
		ttl:    ttl,
	}
}

func priceCacheKey(symbols []string, start, end time.Time) string {
	sorted := append([]string{}, symbols...)
	sort.Strings(sorted)
	return fmt.Sprintf(
		"%s|%s|%s",
		strings.Join(sorted, ","),
		start.Format(time.DateOnly),
		end.Format(time.DateOnly),
	)
}

func (s *CachedPriceSource) Fetch(ctx context.Context, symbols []string, start, end time.Time) (*domain.PriceHistory, error) {
	key := priceCacheKey(symbols, start, end)
	if cached, found := s.cache.Get(key); found {
		logger.FromContext(ctx).Debugw("price cache hit", "key", key)
		return copyHistory(cached.(*domain.PriceHistory))
	}

	history, err := s.Source.Fetch(ctx, symbols, start, end)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, history, s.ttl)
	return copyHistory(history)
}

func (s *CachedPriceSource) Len() int {
	return s.cache.ItemCount()
}

func (s *CachedPriceSource) Flush() {
	s.cache.Flush()
}

// callers own the returned history, so the cached copy is never shared
func copyHistory(h *domain.PriceHistory) (*domain.PriceHistory, error) {
	return domain.NewPriceHistory(h.Dates, h.Prices)
}
