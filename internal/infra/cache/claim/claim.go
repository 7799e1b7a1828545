package claim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const claimKeySuffix = "payment:claim:"

// releaseScript удаляет ключ, только если он всё ещё принадлежит владельцу
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Store захватывает AccountReference на время запроса к шлюзу, общий для всех инстансов.
// Захват живёт не дольше ttl, даже если инстанс упал, не успев его отпустить.
type Store struct {
	client   redis.Cmdable
	prefix   string
	ttl      time.Duration
	newToken func() string
}

// NewStore создает хранилище захватов. keyPrefix отделяет ключи разных окружений.
func NewStore(client redis.Cmdable, keyPrefix string, ttl time.Duration) *Store {
	prefix := claimKeySuffix
	if keyPrefix != "" {
		prefix = keyPrefix + ":" + claimKeySuffix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl, newToken: uuid.NewString}
}

// Claim пытается захватить транзакцию. ok=false, если её уже обрабатывает другой запрос.
func (s *Store) Claim(ctx context.Context, transactionID string) (string, bool, error) {
	token := s.newToken()
	ok, err := s.client.SetNX(ctx, s.prefix+transactionID, token, s.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: Claim - %v", ErrClaim, err)
	}
	return token, ok, nil
}

// Release отпускает захват, если он ещё принадлежит token
func (s *Store) Release(ctx context.Context, transactionID, token string) error {
	if err := s.client.Eval(ctx, releaseScript, []string{s.prefix + transactionID}, token).Err(); err != nil {
		return fmt.Errorf("%w: Release - %v", ErrClaim, err)
	}
	return nil
}

type localClaim struct {
	token     string
	expiresAt time.Time
}

// Local захваты в памяти процесса. Используется, когда Redis не настроен:
// защищает только от гонки внутри одного инстанса.
type Local struct {
	mu       sync.Mutex
	claims   map[string]localClaim
	ttl      time.Duration
	now      func() time.Time
	newToken func() string
}

func NewLocal(ttl time.Duration) *Local {
	return &Local{
		claims:   make(map[string]localClaim),
		ttl:      ttl,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

func (l *Local) Claim(_ context.Context, transactionID string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if c, ok := l.claims[transactionID]; ok && now.Before(c.expiresAt) {
		return "", false, nil
	}

	token := l.newToken()
	l.claims[transactionID] = localClaim{token: token, expiresAt: now.Add(l.ttl)}
	return token, true, nil
}

func (l *Local) Release(_ context.Context, transactionID, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c, ok := l.claims[transactionID]; ok && c.token == token {
		delete(l.claims, transactionID)
	}
	return nil
}
