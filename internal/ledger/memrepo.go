package ledger

import (
    "context"
    "fmt"
    "sort"
    "sync"
    "time"

    "github.com/Ademileke12/xo-base-mini-app/internal/domain"
)

// memrepo is an in-memory Repository used when no DATABASE_URL is configured.
type memrepo struct {
    mu sync.RWMutex

    profiles map[string]*domain.Profile
    matches  []*domain.Match
    matchIDs map[string]struct{}
    now      func() time.Time
}

func NewMemoryRepository() Repository {
    return &memrepo{
        profiles: make(map[string]*domain.Profile),
        matchIDs: make(map[string]struct{}),
        now:      time.Now,
    }
}

func (m *memrepo) GetProfile(ctx context.Context, wallet string) (*domain.Profile, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if p, ok := m.profiles[wallet]; ok {
        cp := *p
        return &cp, nil
    }
    return nil, nil
}

func (m *memrepo) UpsertProfile(ctx context.Context, p *domain.Profile) error {
    if p == nil {
        return fmt.Errorf("nil xo profile payload")
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    m.store(p)
    return nil
}

// store must be called with mu held.
func (m *memrepo) store(p *domain.Profile) {
    cp := *p
    now := m.now()
    if prev, ok := m.profiles[cp.Wallet]; ok {
        cp.CreatedAt = prev.CreatedAt
    } else {
        cp.CreatedAt = now
    }
    cp.UpdatedAt = now
    m.profiles[cp.Wallet] = &cp
}

func (m *memrepo) UpdateProfiles(ctx context.Context, wallets []string, fn func(ps []*domain.Profile) error) error {
    m.mu.Lock()
    defer m.mu.Unlock()

    working := make(map[string]*domain.Profile, len(wallets))
    ps := make([]*domain.Profile, len(wallets))
    for i, w := range wallets {
        p, ok := working[w]
        if !ok {
            stored, exists := m.profiles[w]
            if !exists {
                return fmt.Errorf("%w: %s", ErrProfileNotFound, w)
            }
            cp := *stored
            p = &cp
            working[w] = p
        }
        ps[i] = p
    }
    if err := fn(ps); err != nil {
        return err
    }
    for _, p := range working {
        m.store(p)
    }
    return nil
}

func (m *memrepo) InsertMatch(ctx context.Context, match *domain.Match) error {
    if match == nil {
        return fmt.Errorf("nil xo match payload")
    }
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, dup := m.matchIDs[match.ID]; dup {
        return ErrDuplicateMatch
    }
    cp := *match
    m.matchIDs[cp.ID] = struct{}{}
    m.matches = append(m.matches, &cp)
    return nil
}

func (m *memrepo) RecentMatches(ctx context.Context, wallet string, limit int) ([]*domain.Match, error) {
    if limit <= 0 {
        limit = 5
    }
    m.mu.RLock()
    var items []*domain.Match
    for _, match := range m.matches {
        if match.PlayerX == wallet || match.PlayerO == wallet {
            cp := *match
            items = append(items, &cp)
        }
    }
    m.mu.RUnlock()

    sort.SliceStable(items, func(i, j int) bool {
        return items[i].CreatedAt.After(items[j].CreatedAt)
    })
    if len(items) > limit {
        items = items[:limit]
    }
    return items, nil
}

func (m *memrepo) TopByOnlineWins(ctx context.Context, limit int) ([]*domain.Profile, error) {
    return m.top(limit, func(p *domain.Profile) int { return p.Stats.OnlineWins }), nil
}

func (m *memrepo) TopByPoints(ctx context.Context, limit int) ([]*domain.Profile, error) {
    return m.top(limit, func(p *domain.Profile) int { return p.XOPoints }), nil
}

func (m *memrepo) top(limit int, key func(*domain.Profile) int) []*domain.Profile {
    if limit <= 0 {
        limit = 50
    }
    m.mu.RLock()
    items := make([]*domain.Profile, 0, len(m.profiles))
    for _, p := range m.profiles {
        cp := *p
        items = append(items, &cp)
    }
    m.mu.RUnlock()

    sort.Slice(items, func(i, j int) bool {
        ki, kj := key(items[i]), key(items[j])
        if ki != kj {
            return ki > kj
        }
        return items[i].Wallet < items[j].Wallet
    })
    if len(items) > limit {
        items = items[:limit]
    }
    return items
}
