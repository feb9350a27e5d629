// Package termstore loads operator-managed moderation terms from PostgreSQL.
package termstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/af-corp/textguard/internal/config"
	"github.com/af-corp/textguard/internal/moderation"
)

const (
	cacheKey = "textguard:terms"
	cacheTTL = 5 * time.Minute
)

// Kind is the rule table a term extends.
type Kind string

const (
	KindWhitelist  Kind = "whitelist"
	KindLexical    Kind = "lexical"
	KindHiddenRoot Kind = "hidden_root"
	KindTrigger    Kind = "trigger"
)

var ErrInvalidTerm = errors.New("invalid term")

// Term is one row of moderation_terms.
type Term struct {
	ID        int64               `json:"id"`
	Kind      Kind                `json:"kind"`
	Term      string              `json:"term"`
	Category  moderation.Category `json:"category,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// Validate checks kind and, for triggers, the category.
func (t Term) Validate() error {
	if strings.TrimSpace(t.Term) == "" {
		return fmt.Errorf("%w: empty term", ErrInvalidTerm)
	}
	switch t.Kind {
	case KindWhitelist, KindLexical, KindHiddenRoot:
		return nil
	case KindTrigger:
		if t.Category == "" {
			return fmt.Errorf("%w: trigger needs a category", ErrInvalidTerm)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown kind %q", ErrInvalidTerm, t.Kind)
}

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Connect opens a pool sized by cfg. The database is not contacted until
// first use.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		pc.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}
	return pool, nil
}

// Store reads terms from PostgreSQL and caches the snapshot in Redis.
// A nil redis client disables caching.
type Store struct {
	db    DB
	redis *redis.Client
}

func New(db DB, rdb *redis.Client) *Store {
	return &Store{db: db, redis: rdb}
}

// List returns every stored term ordered by id.
func (s *Store) List(ctx context.Context) ([]Term, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, kind, term, category, created_at
		FROM moderation_terms
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query moderation_terms: %w", err)
	}
	defer rows.Close()

	var terms []Term
	for rows.Next() {
		var t Term
		if err := rows.Scan(&t.ID, &t.Kind, &t.Term, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan moderation_terms: %w", err)
		}
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read moderation_terms: %w", err)
	}
	return terms, nil
}

// Load returns the stored terms as rule extensions, preferring the Redis
// snapshot when one is cached.
func (s *Store) Load(ctx context.Context) (moderation.Extensions, error) {
	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var ext moderation.Extensions
			if err := json.Unmarshal(cached, &ext); err == nil {
				return ext, nil
			}
		}
	}

	terms, err := s.List(ctx)
	if err != nil {
		return moderation.Extensions{}, err
	}
	ext := Build(terms)

	if s.redis != nil {
		if data, err := json.Marshal(ext); err == nil {
			if err := s.redis.Set(ctx, cacheKey, data, cacheTTL).Err(); err != nil {
				slog.Warn("term cache write failed", "error", err)
			}
		}
	}
	return ext, nil
}

// Add inserts a term. Duplicates are ignored.
func (s *Store) Add(ctx context.Context, t Term) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO moderation_terms (kind, term, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (kind, term, category) DO NOTHING
	`, string(t.Kind), strings.ToLower(strings.TrimSpace(t.Term)), string(t.Category))
	if err != nil {
		return fmt.Errorf("insert moderation_terms: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Remove deletes a term by id and reports whether it existed.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM moderation_terms WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete moderation_terms: %w", err)
	}
	s.invalidate(ctx)
	return tag.RowsAffected() > 0, nil
}

func (s *Store) invalidate(ctx context.Context) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey).Err(); err != nil {
		slog.Warn("term cache invalidation failed", "error", err)
	}
}

// Build folds terms into rule extensions. Invalid rows are skipped.
func Build(terms []Term) moderation.Extensions {
	var ext moderation.Extensions
	for _, t := range terms {
		if err := t.Validate(); err != nil {
			slog.Warn("skipping stored term", "id", t.ID, "error", err)
			continue
		}
		switch t.Kind {
		case KindWhitelist:
			ext.Whitelist = append(ext.Whitelist, t.Term)
		case KindLexical:
			ext.LexicalTerms = append(ext.LexicalTerms, t.Term)
		case KindHiddenRoot:
			ext.HiddenRoots = append(ext.HiddenRoots, t.Term)
		case KindTrigger:
			if ext.Triggers == nil {
				ext.Triggers = make(map[string][]string)
			}
			ext.Triggers[string(t.Category)] = append(ext.Triggers[string(t.Category)], t.Term)
		}
	}
	return ext
}
