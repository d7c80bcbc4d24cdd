package online

import (
    "context"
    "crypto/rand"
    "encoding/json"
    "errors"
    "io"
    "sync"
    "time"

    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"
)

const (
    DefaultTTL   = 24 * time.Hour
    codeLength   = 8
    maxTxRetries = 5
)

// Store persists games and fans out every committed change to subscribers.
type Store interface {
    // Create stores g under g.Code. It returns false if the code is taken.
    Create(ctx context.Context, g *Game) (bool, error)
    // Load returns nil, nil when the code is unknown.
    Load(ctx context.Context, code string) (*Game, error)
    // Update runs fn on the current game and commits the result atomically.
    // fn may run more than once under contention.
    Update(ctx context.Context, code string, fn func(g *Game) error) (*Game, error)
    Subscribe(ctx context.Context, code string) (<-chan *Game, func(), error)
}

const codeLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// codeGen returns 8 upper alnum characters, uniformly distributed.
func codeGen() (string, error) { return codeFrom(rand.Reader) }

func codeFrom(r io.Reader) (string, error) {
    // bytes at or above limit would favour the first letters
    const limit = 256 - 256%len(codeLetters)
    out := make([]byte, 0, codeLength)
    buf := make([]byte, codeLength)
    for len(out) < codeLength {
        if _, err := io.ReadFull(r, buf); err != nil {
            return "", err
        }
        for _, c := range buf {
            if int(c) >= limit {
                continue
            }
            out = append(out, codeLetters[int(c)%len(codeLetters)])
            if len(out) == codeLength {
                break
            }
        }
    }
    return string(out), nil
}

type RedisStore struct {
    rdb    *redis.Client
    ttl    time.Duration
    logger *zap.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
    if ttl <= 0 {
        ttl = DefaultTTL
    }
    if logger == nil {
        logger = zap.NewNop()
    }
    return &RedisStore{rdb: rdb, ttl: ttl, logger: logger}
}

func gameKey(code string) string       { return "xo:online:game:" + NormalizeCode(code) }
func eventsChannel(code string) string { return "xo:online:events:" + NormalizeCode(code) }

func (s *RedisStore) Create(ctx context.Context, g *Game) (bool, error) {
    raw, err := json.Marshal(g)
    if err != nil { return false, err }
    return s.rdb.SetNX(ctx, gameKey(g.Code), raw, s.ttl).Result()
}

func (s *RedisStore) Load(ctx context.Context, code string) (*Game, error) {
    raw, err := s.rdb.Get(ctx, gameKey(code)).Bytes()
    if err == redis.Nil { return nil, nil }
    if err != nil { return nil, err }
    var g Game
    if err := json.Unmarshal(raw, &g); err != nil { return nil, err }
    return &g, nil
}

func (s *RedisStore) Update(ctx context.Context, code string, fn func(g *Game) error) (*Game, error) {
    key := gameKey(code)
    var (
        out     *Game
        payload []byte
    )
    txf := func(tx *redis.Tx) error {
        raw, err := tx.Get(ctx, key).Bytes()
        if err == redis.Nil { return ErrGameNotFound }
        if err != nil { return err }
        var cur Game
        if err := json.Unmarshal(raw, &cur); err != nil { return err }
        if err := fn(&cur); err != nil { return err }
        newRaw, err := json.Marshal(&cur)
        if err != nil { return err }

        pipe := tx.TxPipeline()
        pipe.Set(ctx, key, newRaw, s.ttl)
        if _, err := pipe.Exec(ctx); err != nil { return err }
        out, payload = &cur, newRaw
        return nil
    }
    for i := 0; i < maxTxRetries; i++ {
        err := s.rdb.Watch(ctx, txf, key)
        if err == nil {
            if err := s.rdb.Publish(ctx, eventsChannel(code), payload).Err(); err != nil {
                s.logger.Warn("online_publish_failed", zap.String("code", out.Code), zap.Error(err))
            }
            return out, nil
        }
        if errors.Is(err, redis.TxFailedErr) {
            continue
        }
        return nil, err
    }
    return nil, ErrConflict
}

func (s *RedisStore) Subscribe(ctx context.Context, code string) (<-chan *Game, func(), error) {
    ps := s.rdb.Subscribe(ctx, eventsChannel(code))
    if _, err := ps.Receive(ctx); err != nil {
        _ = ps.Close()
        return nil, nil, err
    }
    out := make(chan *Game, 8)
    done := make(chan struct{})
    go func() {
        defer close(out)
        ch := ps.Channel()
        for {
            select {
            case <-done:
                return
            case msg, ok := <-ch:
                if !ok { return }
                var g Game
                if err := json.Unmarshal([]byte(msg.Payload), &g); err != nil { continue }
                select {
                case out <- &g:
                default:
                }
            }
        }
    }()
    var once sync.Once
    cancel := func() {
        once.Do(func() {
            close(done)
            _ = ps.Close()
        })
    }
    return out, cancel, nil
}

// MemoryStore keeps games in process. Used when Redis is not configured.
type MemoryStore struct {
    mu    sync.Mutex
    games map[string][]byte
    subs  map[string]map[chan *Game]struct{}
}

func NewMemoryStore() *MemoryStore {
    return &MemoryStore{games: make(map[string][]byte), subs: make(map[string]map[chan *Game]struct{})}
}

func (m *MemoryStore) Create(ctx context.Context, g *Game) (bool, error) {
    raw, err := json.Marshal(g)
    if err != nil { return false, err }
    code := NormalizeCode(g.Code)
    m.mu.Lock()
    defer m.mu.Unlock()
    if _, ok := m.games[code]; ok {
        return false, nil
    }
    m.games[code] = raw
    return true, nil
}

func (m *MemoryStore) Load(ctx context.Context, code string) (*Game, error) {
    m.mu.Lock()
    raw, ok := m.games[NormalizeCode(code)]
    m.mu.Unlock()
    if !ok { return nil, nil }
    var g Game
    if err := json.Unmarshal(raw, &g); err != nil { return nil, err }
    return &g, nil
}

func (m *MemoryStore) Update(ctx context.Context, code string, fn func(g *Game) error) (*Game, error) {
    code = NormalizeCode(code)
    m.mu.Lock()
    defer m.mu.Unlock()
    raw, ok := m.games[code]
    if !ok { return nil, ErrGameNotFound }
    var cur Game
    if err := json.Unmarshal(raw, &cur); err != nil { return nil, err }
    if err := fn(&cur); err != nil { return nil, err }
    newRaw, err := json.Marshal(&cur)
    if err != nil { return nil, err }
    m.games[code] = newRaw
    for ch := range m.subs[code] {
        snap := cur
        select {
        case ch <- &snap:
        default:
            // slow subscriber; it will catch up on the next change
        }
    }
    return &cur, nil
}

func (m *MemoryStore) Subscribe(ctx context.Context, code string) (<-chan *Game, func(), error) {
    code = NormalizeCode(code)
    ch := make(chan *Game, 8)
    m.mu.Lock()
    set := m.subs[code]
    if set == nil {
        set = make(map[chan *Game]struct{})
        m.subs[code] = set
    }
    set[ch] = struct{}{}
    m.mu.Unlock()

    var once sync.Once
    cancel := func() {
        once.Do(func() {
            m.mu.Lock()
            delete(m.subs[code], ch)
            if len(m.subs[code]) == 0 {
                delete(m.subs, code)
            }
            m.mu.Unlock()
            close(ch)
        })
    }
    return ch, cancel, nil
}
