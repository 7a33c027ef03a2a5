// Package permdb is the relational store for chat permissions and
// prompt caching: which user belongs to which team, which app pages a
// team may expose to the assistant, and cached rendered prompts.
package permdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store wraps the permissions database.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	log *zap.Logger
}

// Open initializes the permissions database at path.
func Open(path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open permissions database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		log.Debug("pragma failed", zap.Error(err))
	}

	s := &Store{db: db, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS user_teams (
		email      TEXT PRIMARY KEY,
		team_id    TEXT NOT NULL,
		team_name  TEXT NOT NULL,
		role       TEXT NOT NULL DEFAULT 'member',
		synced_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS allowed_pages (
		team_id    TEXT NOT NULL,
		page       TEXT NOT NULL,
		PRIMARY KEY (team_id, page)
	);
	CREATE TABLE IF NOT EXISTS prompt_cache (
		cache_key   TEXT PRIMARY KEY,
		prompt_name TEXT NOT NULL,
		rendered    TEXT NOT NULL,
		hit_count   INTEGER NOT NULL DEFAULT 0,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize permissions schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// User is one user/team membership row.
type User struct {
	Email    string
	TeamID   string
	TeamName string
	Role     string
	SyncedAt time.Time
}

// SyncResult is the diff produced by a user/team sync.
type SyncResult struct {
	Added   []string
	Updated []string
	Removed []string
}

// SyncUsers reconciles the user_teams table against a platform
// snapshot: new emails are inserted, changed memberships updated,
// emails absent from the snapshot removed. The diff is computed
// against the state before any write.
func (s *Store) SyncUsers(ctx context.Context, snapshot []User) (*SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := map[string]User{}
	rows, err := s.db.QueryContext(ctx, "SELECT email, team_id, team_name, role FROM user_teams")
	if err != nil {
		return nil, fmt.Errorf("failed to read current users: %w", err)
	}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Email, &u.TeamID, &u.TeamName, &u.Role); err != nil {
			rows.Close()
			return nil, err
		}
		existing[u.Email] = u
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer tx.Rollback()

	result := &SyncResult{}
	inSnapshot := map[string]bool{}

	for _, u := range snapshot {
		email := strings.ToLower(strings.TrimSpace(u.Email))
		if email == "" {
			continue
		}
		inSnapshot[email] = true
		if u.Role == "" {
			u.Role = "member"
		}

		old, ok := existing[email]
		switch {
		case !ok:
			result.Added = append(result.Added, email)
		case old.TeamID != u.TeamID || old.TeamName != u.TeamName || old.Role != u.Role:
			result.Updated = append(result.Updated, email)
		default:
			continue
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_teams (email, team_id, team_name, role, synced_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(email) DO UPDATE SET
				team_id = excluded.team_id,
				team_name = excluded.team_name,
				role = excluded.role,
				synced_at = CURRENT_TIMESTAMP`,
			email, u.TeamID, u.TeamName, u.Role); err != nil {
			return nil, fmt.Errorf("failed to upsert user %s: %w", email, err)
		}
	}

	for email := range existing {
		if inSnapshot[email] {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM user_teams WHERE email = ?", email); err != nil {
			return nil, fmt.Errorf("failed to remove user %s: %w", email, err)
		}
		result.Removed = append(result.Removed, email)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sync: %w", err)
	}

	sort.Strings(result.Added)
	sort.Strings(result.Updated)
	sort.Strings(result.Removed)
	s.log.Info("user sync complete",
		zap.Int("added", len(result.Added)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("removed", len(result.Removed)))
	return result, nil
}

// Lookup returns a user's membership, or nil when unknown.
func (s *Store) Lookup(ctx context.Context, email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u User
	err := s.db.QueryRowContext(ctx,
		"SELECT email, team_id, team_name, role, synced_at FROM user_teams WHERE email = ?",
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.Email, &u.TeamID, &u.TeamName, &u.Role, &u.SyncedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return &u, nil
}

// SetAllowedPages replaces the page allow-list for a team.
func (s *Store) SetAllowedPages(ctx context.Context, teamID string, pages []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM allowed_pages WHERE team_id = ?", teamID); err != nil {
		return fmt.Errorf("failed to clear allowed pages: %w", err)
	}
	for _, page := range pages {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO allowed_pages (team_id, page) VALUES (?, ?)", teamID, page); err != nil {
			return fmt.Errorf("failed to insert allowed page: %w", err)
		}
	}
	return tx.Commit()
}

// Allowed reports whether email's team may expose page.
func (s *Store) Allowed(ctx context.Context, email, page string) (bool, error) {
	u, err := s.Lookup(ctx, email)
	if err != nil || u == nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err = s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM allowed_pages WHERE team_id = ? AND page = ?",
		u.TeamID, page).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check page permission: %w", err)
	}
	return n > 0, nil
}

// CachePrompt stores a rendered prompt under key.
func (s *Store) CachePrompt(ctx context.Context, key, promptName, rendered string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO prompt_cache (cache_key, prompt_name, rendered)
		VALUES (?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			prompt_name = excluded.prompt_name,
			rendered = excluded.rendered`,
		key, promptName, rendered)
	if err != nil {
		return fmt.Errorf("failed to cache prompt: %w", err)
	}
	return nil
}

// CachedPrompt fetches a cached prompt and bumps its hit counter.
// Returns ok=false on a miss.
func (s *Store) CachedPrompt(ctx context.Context, key string) (rendered string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.db.QueryRowContext(ctx,
		"SELECT rendered FROM prompt_cache WHERE cache_key = ?", key).Scan(&rendered)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read prompt cache: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		"UPDATE prompt_cache SET hit_count = hit_count + 1 WHERE cache_key = ?", key); err != nil {
		return "", false, fmt.Errorf("failed to bump hit count: %w", err)
	}
	return rendered, true, nil
}

// Stats returns table row counts.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := map[string]int{}
	for _, table := range []string{"user_teams", "allowed_pages", "prompt_cache"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		out[table] = n
	}
	return out, nil
}
