package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mohammad-safakhou/vigia/internal/search"
	"github.com/mohammad-safakhou/vigia/models"
)

type Store struct {
	DB *sql.DB
}

func New(ctx context.Context) (*Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		host := getenvDefault("POSTGRES_HOST", "localhost")
		port := getenvDefault("POSTGRES_PORT", "5432")
		user := os.Getenv("POSTGRES_USER")
		pass := os.Getenv("POSTGRES_PASSWORD")
		db := os.Getenv("POSTGRES_DB")
		ssl := getenvDefault("POSTGRES_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
	}
	return NewWithDSN(ctx, dsn)
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// RawDocHash derives the dedup key for a fetched document.
func RawDocHash(source, url, title string) string {
	sum := sha256.Sum256([]byte(source + "|" + url + "|" + title))
	return hex.EncodeToString(sum[:])
}

// SaveRawDoc stores a fetched document keyed by content hash. Replays of
// the same document are absorbed by the conflict clause.
func (s *Store) SaveRawDoc(ctx context.Context, doc search.Document) (string, error) {
	hash := RawDocHash(doc.Source, doc.URL, doc.Title)
	meta, err := json.Marshal(map[string]string{"section": doc.Section, "author": doc.Author})
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO raw_docs (hash, source, title, summary, body, url, published_at, meta)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (hash) DO NOTHING`,
		hash, doc.Source, doc.Title, doc.Summary, doc.Text, doc.URL, nullableTime(doc.Date), meta)
	return hash, err
}

// SaveEvent records one classified document for a company.
func (s *Store) SaveEvent(ctx context.Context, company string, doc models.ClassifiedDocument) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO events (id, company, source, title, summary, url, published_at, risk_label, confidence, method, reason)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		id, company, doc.Source, doc.Title, doc.Summary, doc.URL, nullableTime(doc.Date),
		string(doc.RiskLevel), doc.Confidence, doc.Method, doc.Reason)
	return id, err
}

// SaveAssessment records a company-level risk analysis snapshot.
func (s *Store) SaveAssessment(ctx context.Context, analysis models.CompanyAnalysis) (string, error) {
	id := uuid.NewString()
	categories, err := json.Marshal(analysis.RiskAssessment)
	if err != nil {
		return "", err
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO assessments (id, company, categories, confidence, method, analysis_summary)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		id, analysis.CompanyName, categories, analysis.Confidence, analysis.Methodology,
		analysis.AnalysisSummary)
	return id, err
}

// Event is a persisted classified document.
type Event struct {
	ID          string
	Company     string
	Source      string
	Title       string
	RiskLabel   string
	Confidence  float64
	Method      string
	PublishedAt *time.Time
	CreatedAt   time.Time
}

func (s *Store) ListEventsByCompany(ctx context.Context, company string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, company, source, title, risk_label, confidence, method, published_at, created_at
		FROM events WHERE company=$1 ORDER BY created_at DESC LIMIT $2`, company, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Company, &e.Source, &e.Title, &e.RiskLabel, &e.Confidence, &e.Method, &e.PublishedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullableTime(v string) any {
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return nil
}
