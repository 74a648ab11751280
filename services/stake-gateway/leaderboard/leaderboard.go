// Package leaderboard ranks every user by a score blending XP with aggregate
// active stake. Rankings are rebuilt from storage on demand and memoised in a
// short-TTL cache so a burst of reads does not hammer the database; writes
// never touch the cache, so a rank can lag a claim by at most the TTL.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"gorm.io/gorm"

	"boopstake/native/rewards"
	"boopstake/observability"
)

// Window selects which XP total feeds the score.
type Window string

const (
	// WindowAllTime scores on lifetime XP.
	WindowAllTime Window = "alltime"
	// WindowMonthly scores on XP earned during the current UTC calendar month.
	WindowMonthly Window = "monthly"
)

// ParseWindow maps the query-string form onto a Window, defaulting to
// all-time.
func ParseWindow(raw string) (Window, error) {
	switch raw {
	case "", string(WindowAllTime):
		return WindowAllTime, nil
	case string(WindowMonthly):
		return WindowMonthly, nil
	default:
		return "", fmt.Errorf("unknown leaderboard window %q", raw)
	}
}

// Entry is one ranked row.
type Entry struct {
	Rank   int     `json:"rank"`
	Handle string  `json:"handle"`
	XP     int64   `json:"xp"`
	Level  int     `json:"level"`
	Staked float64 `json:"staked"`
	Score  int64   `json:"score"`
}

// Page is one slice of the ranking plus enough metadata to paginate.
type Page struct {
	Window  Window  `json:"window"`
	Total   int     `json:"total"`
	Page    int     `json:"page"`
	Limit   int     `json:"limit"`
	Entries []Entry `json:"entries"`
}

// Standing is a single user's rank with the rows immediately around them.
type Standing struct {
	Window    Window  `json:"window"`
	Entry     Entry   `json:"entry"`
	Neighbors []Entry `json:"neighbors"`
}

const (
	defaultLimit = 25
	maxLimit     = 100
)

// Service computes and caches leaderboard snapshots.
type Service struct {
	db    *gorm.DB
	cache *expirable.LRU[Window, []Entry]
	log   *slog.Logger

	// Now is swappable in tests.
	Now func() time.Time
}

// New builds a Service whose snapshots live for ttl before a read rebuilds
// them.
func New(db *gorm.DB, ttl time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:    db,
		cache: expirable.NewLRU[Window, []Entry](2, nil, ttl),
		log:   log,
		Now:   time.Now,
	}
}

// TopN returns one page of the ranking. Pages are 1-based; limits are clamped
// to [1, 100] with a default of 25.
func (s *Service) TopN(ctx context.Context, window Window, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	entries, err := s.snapshot(ctx, window)
	if err != nil {
		return Page{}, err
	}
	start := (page - 1) * limit
	end := start + limit
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}
	return Page{
		Window:  window,
		Total:   len(entries),
		Page:    page,
		Limit:   limit,
		Entries: entries[start:end],
	}, nil
}

// Lookup returns the user's own rank together with the two rows above and the
// two rows below it. A user absent from the ranking yields gorm.ErrRecordNotFound.
func (s *Service) Lookup(ctx context.Context, window Window, handle string) (Standing, error) {
	entries, err := s.snapshot(ctx, window)
	if err != nil {
		return Standing{}, err
	}
	idx := -1
	for i := range entries {
		if entries[i].Handle == handle {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Standing{}, gorm.ErrRecordNotFound
	}
	lo := idx - 2
	if lo < 0 {
		lo = 0
	}
	hi := idx + 3
	if hi > len(entries) {
		hi = len(entries)
	}
	neighbors := make([]Entry, hi-lo)
	copy(neighbors, entries[lo:hi])
	return Standing{Window: window, Entry: entries[idx], Neighbors: neighbors}, nil
}

// Invalidate drops any cached snapshots. Tests use it to observe a write
// immediately.
func (s *Service) Invalidate() {
	s.cache.Purge()
}

func (s *Service) snapshot(ctx context.Context, window Window) ([]Entry, error) {
	if entries, ok := s.cache.Get(window); ok {
		observability.Leaderboard().CacheHits.Inc()
		return entries, nil
	}
	observability.Leaderboard().CacheMisses.Inc()

	started := time.Now()
	entries, err := s.rebuild(ctx, window)
	if err != nil {
		return nil, err
	}
	observability.Leaderboard().Rebuilds.Observe(time.Since(started).Seconds())

	s.cache.Add(window, entries)
	s.log.Debug("leaderboard rebuilt", "window", window, "entries", len(entries))
	return entries, nil
}

type scoreRow struct {
	Handle string
	XP     int64
	Level  int
	Staked float64
}

func (s *Service) rebuild(ctx context.Context, window Window) ([]Entry, error) {
	var rows []scoreRow
	q := s.db.WithContext(ctx).Table("users").
		Select("users.handle AS handle, users.xp AS xp, users.level AS level, COALESCE(SUM(sp.principal), 0) AS staked").
		Joins("LEFT JOIN stake_positions sp ON sp.user_id = users.id AND sp.status = ?", "active").
		Group("users.id, users.handle, users.xp, users.level")
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load leaderboard rows: %w", err)
	}

	xpByHandle := make(map[string]int64, len(rows))
	for _, row := range rows {
		xpByHandle[row.Handle] = row.XP
	}
	if window == WindowMonthly {
		monthly, err := s.monthlyXP(ctx)
		if err != nil {
			return nil, err
		}
		for handle := range xpByHandle {
			xpByHandle[handle] = 0
		}
		for handle, xp := range monthly {
			xpByHandle[handle] = xp
		}
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		xp := xpByHandle[row.Handle]
		entries = append(entries, Entry{
			Handle: row.Handle,
			XP:     xp,
			Level:  row.Level,
			Staked: row.Staked,
			Score:  rewards.Score(xp, row.Staked),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		if entries[i].XP != entries[j].XP {
			return entries[i].XP > entries[j].XP
		}
		return entries[i].Handle < entries[j].Handle
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

// monthlyXP sums XP grants since the start of the current UTC month, keyed by
// handle.
func (s *Service) monthlyXP(ctx context.Context) (map[string]int64, error) {
	now := s.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	var rows []struct {
		Handle string
		XP     int64
	}
	q := s.db.WithContext(ctx).Table("xp_logs").
		Select("users.handle AS handle, COALESCE(SUM(xp_logs.amount), 0) AS xp").
		Joins("JOIN users ON users.id = xp_logs.user_id").
		Where("xp_logs.created_at >= ?", monthStart).
		Group("users.handle")
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load monthly xp: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Handle] = row.XP
	}
	return out, nil
}
