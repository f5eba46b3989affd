package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/username/stockfolio/src/models"
)

var ErrNotFound = errors.New("portfolio not found in store")

const keyInfix = ":stock-dashboard-"

// PortfolioKey is the storage key of one source portfolio of a session.
func PortfolioKey(sessionID string, id models.PortfolioID) string {
	return sessionID + keyInfix + string(id)
}

// SessionFromKey extracts the session id from a PortfolioKey.
func SessionFromKey(key string) (string, bool) {
	i := strings.Index(key, keyInfix)
	if i <= 0 {
		return "", false
	}
	return key[:i], true
}

// PortfolioStore persists source portfolios as opaque blobs.
type PortfolioStore interface {
	Load(ctx context.Context, key string) (*models.Portfolio, error)
	Save(ctx context.Context, key string, p *models.Portfolio) error
	Delete(ctx context.Context, key string) error
	Sessions(ctx context.Context) ([]string, error)
}

func encodePortfolio(p *models.Portfolio) ([]byte, error) {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding portfolio %s: %w", p.ID, err)
	}
	return data, nil
}

func decodePortfolio(data []byte) (*models.Portfolio, error) {
	var p models.Portfolio
	if err := msgpack.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding portfolio: %w", err)
	}
	return &p, nil
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context, key string) (*models.Portfolio, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM portfolio_blobs WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return decodePortfolio(data)
}

func (s *SQLiteStore) Save(ctx context.Context, key string, p *models.Portfolio) error {
	data, err := encodePortfolio(p)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO portfolio_blobs (key, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		key, data)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM portfolio_blobs WHERE key = ?", key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key FROM portfolio_blobs ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing portfolio keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scanning portfolio key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessionsFromKeys(keys), nil
}

// MemoryStore keeps encoded blobs in a map, for running without a database file.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Load(ctx context.Context, key string) (*models.Portfolio, error) {
	s.mu.RLock()
	data, ok := s.blobs[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return decodePortfolio(data)
}

func (s *MemoryStore) Save(ctx context.Context, key string, p *models.Portfolio) error {
	data, err := encodePortfolio(p)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = data
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

func (s *MemoryStore) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.blobs))
	for k := range s.blobs {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return sessionsFromKeys(keys), nil
}

func sessionsFromKeys(keys []string) []string {
	seen := make(map[string]bool)
	var sessions []string
	for _, k := range keys {
		id, ok := SessionFromKey(k)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		sessions = append(sessions, id)
	}
	return sessions
}

var (
	_ PortfolioStore = (*SQLiteStore)(nil)
	_ PortfolioStore = (*MemoryStore)(nil)
)
