// Package store persists crawled items and scored pain records in SQLite.
// It uses the ncruces/go-sqlite3 database/sql driver, which needs no cgo.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ppiankov/painscope/internal/model"
	"go.uber.org/zap"
)

// SQLite is the SQLite-backed store
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *zap.Logger
}

// Stats summarizes the stored data
type Stats struct {
	Posts          int            `json:"posts"`
	Comments       int            `json:"comments"`
	PainPoints     int            `json:"pain_points"`
	Categories     map[string]int `json:"categories"`
	AvgTotal       float64        `json:"avg_total_score"`
	AvgSentiment   float64        `json:"avg_sentiment_score"`
	AvgUrgency     float64        `json:"avg_urgency_score"`
	BudgetMentions int            `json:"budget_mentions"`
}

const schema = `
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    body TEXT,
    subreddit TEXT,
    url TEXT,
    author TEXT,
    engagement REAL,
    created_at INTEGER,
    fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS comments (
    id TEXT PRIMARY KEY,
    post_id TEXT NOT NULL,
    body TEXT NOT NULL,
    author TEXT,
    engagement REAL,
    created_at INTEGER,
    fetched_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);

-- One row per distinct pain statement; re-analysis updates scores in place
CREATE TABLE IF NOT EXISTS pain_points (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source_type TEXT NOT NULL,
    source_id TEXT NOT NULL,
    text TEXT NOT NULL,
    keywords TEXT NOT NULL,
    category TEXT NOT NULL,
    sentiment_score REAL NOT NULL,
    urgency_score REAL NOT NULL,
    frequency_score REAL NOT NULL,
    engagement_score REAL NOT NULL,
    budget_mention INTEGER NOT NULL DEFAULT 0,
    total_score REAL NOT NULL,
    updated_at INTEGER NOT NULL,
    UNIQUE (source_type, source_id, text)
);

CREATE INDEX IF NOT EXISTS idx_pain_points_category ON pain_points(category);
CREATE INDEX IF NOT EXISTS idx_pain_points_total ON pain_points(total_score DESC);

CREATE TABLE IF NOT EXISTS pain_categories (
    pain_point_id INTEGER NOT NULL,
    category TEXT NOT NULL,
    confidence REAL NOT NULL,
    PRIMARY KEY (pain_point_id, category)
);
`

// Open opens (or creates) the database at dsn. Use ":memory:" for a
// throwaway store.
func Open(dsn string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logger.Debug("store opened", zap.String("dsn", dsn))
	return &SQLite{db: db, logger: logger}, nil
}

// Close closes the database connection
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveItems upserts posts and their replies
func (s *SQLite) SaveItems(ctx context.Context, items []model.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, item := range items {
		var engagement any
		if item.Engagement != nil {
			engagement = *item.Engagement
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO posts (id, title, body, subreddit, url, author, engagement, created_at, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				body = excluded.body,
				engagement = excluded.engagement,
				fetched_at = excluded.fetched_at
		`, item.ID, item.Title, item.Body, item.Subreddit, item.URL, item.Author,
			engagement, unixOrNil(item.Created), now)
		if err != nil {
			return fmt.Errorf("save post %s: %w", item.ID, err)
		}

		for _, reply := range item.Replies {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO comments (id, post_id, body, author, engagement, created_at, fetched_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					body = excluded.body,
					engagement = excluded.engagement,
					fetched_at = excluded.fetched_at
			`, reply.ID, item.ID, reply.Body, reply.Author, reply.Engagement,
				unixOrNil(reply.Created), now)
			if err != nil {
				return fmt.Errorf("save comment %s: %w", reply.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("items saved", zap.Int("count", len(items)))
	return nil
}

// SavePainPoints upserts records on (source_type, source_id, text). The
// category confidences of an existing record are replaced.
func (s *SQLite) SavePainPoints(ctx context.Context, records []model.PainRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for _, r := range records {
		keywords, err := json.Marshal(r.Keywords)
		if err != nil {
			return fmt.Errorf("encode keywords: %w", err)
		}

		var id int64
		err = tx.QueryRowContext(ctx, `
			INSERT INTO pain_points (source_type, source_id, text, keywords, category,
				sentiment_score, urgency_score, frequency_score, engagement_score,
				budget_mention, total_score, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(source_type, source_id, text) DO UPDATE SET
				keywords = excluded.keywords,
				category = excluded.category,
				sentiment_score = excluded.sentiment_score,
				urgency_score = excluded.urgency_score,
				frequency_score = excluded.frequency_score,
				engagement_score = excluded.engagement_score,
				budget_mention = excluded.budget_mention,
				total_score = excluded.total_score,
				updated_at = excluded.updated_at
			RETURNING id
		`, string(r.SourceType), r.SourceID, r.Text, string(keywords), r.Category,
			r.SentimentScore, r.UrgencyScore, r.FrequencyScore, r.EngagementScore,
			boolToInt(r.BudgetMention), r.TotalScore, now).Scan(&id)
		if err != nil {
			return fmt.Errorf("save pain point %s: %w", r.SourceID, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM pain_categories WHERE pain_point_id = ?`, id); err != nil {
			return fmt.Errorf("clear categories: %w", err)
		}
		for category, confidence := range r.Categories {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO pain_categories (pain_point_id, category, confidence) VALUES (?, ?, ?)`,
				id, category, confidence); err != nil {
				return fmt.Errorf("save category %s: %w", category, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("pain points saved", zap.Int("count", len(records)))
	return nil
}

// TopPainPoints returns up to limit records by total score, highest first
func (s *SQLite) TopPainPoints(ctx context.Context, limit int) ([]model.PainRecord, error) {
	if limit <= 0 {
		return []model.PainRecord{}, nil
	}
	return s.queryPainPoints(ctx, `ORDER BY total_score DESC, id ASC LIMIT ?`, limit)
}

// PainPointsByCategory returns the records whose best category is category,
// highest score first. An empty category returns every record.
func (s *SQLite) PainPointsByCategory(ctx context.Context, category string) ([]model.PainRecord, error) {
	if category == "" {
		return s.queryPainPoints(ctx, `ORDER BY total_score DESC, id ASC`)
	}
	return s.queryPainPoints(ctx, `WHERE category = ? ORDER BY total_score DESC, id ASC`, category)
}

// Statistics counts stored rows and averages the record scores
func (s *SQLite) Statistics(ctx context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{Categories: make(map[string]int)}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`).Scan(&stats.Posts); err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&stats.Comments); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	var avgTotal, avgSentiment, avgUrgency sql.NullFloat64
	var budget sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(total_score), AVG(sentiment_score), AVG(urgency_score), SUM(budget_mention)
		FROM pain_points
	`).Scan(&stats.PainPoints, &avgTotal, &avgSentiment, &avgUrgency, &budget)
	if err != nil {
		return nil, fmt.Errorf("aggregate pain points: %w", err)
	}
	stats.AvgTotal = avgTotal.Float64
	stats.AvgSentiment = avgSentiment.Float64
	stats.AvgUrgency = avgUrgency.Float64
	stats.BudgetMentions = int(budget.Int64)

	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM pain_points GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, err
		}
		stats.Categories[category] = n
	}
	return stats, rows.Err()
}

func (s *SQLite) queryPainPoints(ctx context.Context, tail string, args ...any) ([]model.PainRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_type, source_id, text, keywords, category,
			sentiment_score, urgency_score, frequency_score, engagement_score,
			budget_mention, total_score
		FROM pain_points `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("query pain points: %w", err)
	}

	var ids []int64
	records := []model.PainRecord{}
	for rows.Next() {
		var (
			id       int64
			r        model.PainRecord
			srcType  string
			keywords string
			budget   int
		)
		if err := rows.Scan(&id, &srcType, &r.SourceID, &r.Text, &keywords, &r.Category,
			&r.SentimentScore, &r.UrgencyScore, &r.FrequencyScore, &r.EngagementScore,
			&budget, &r.TotalScore); err != nil {
			rows.Close()
			return nil, err
		}
		r.SourceType = model.SourceType(srcType)
		r.BudgetMention = budget != 0
		if err := json.Unmarshal([]byte(keywords), &r.Keywords); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode keywords: %w", err)
		}
		ids = append(ids, id)
		records = append(records, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	categories, err := s.loadCategories(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, id := range ids {
		records[i].Categories = categories[id]
		if records[i].Categories == nil {
			records[i].Categories = map[string]float64{}
		}
	}
	return records, nil
}

func (s *SQLite) loadCategories(ctx context.Context, ids []int64) (map[int64]map[string]float64, error) {
	out := make(map[int64]map[string]float64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT pain_point_id, category, confidence FROM pain_categories WHERE pain_point_id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var category string
		var confidence float64
		if err := rows.Scan(&id, &category, &confidence); err != nil {
			return nil, err
		}
		if out[id] == nil {
			out[id] = make(map[string]float64)
		}
		out[id][category] = confidence
	}
	return out, rows.Err()
}

func unixOrNil(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Unix()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
