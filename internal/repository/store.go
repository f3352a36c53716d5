// Package repository persists tenders, company profiles, compliance reports,
// bid drafts and copilot sessions in Postgres, with Redis in front of the
// hot reads.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("not found")

// Store groups the repositories over one connection pool and cache.
type Store struct {
	Tenders   *TenderRepository
	Companies *CompanyRepository
	Reports   *ReportRepository
	Drafts    *DraftRepository
	Sessions  *SessionRepository
}

// CacheTTLs sets how long cached rows live. A zero TTL disables that cache.
type CacheTTLs struct {
	Company time.Duration
	Session time.Duration
}

// NewStore wires every repository. rdb may be nil to run without a cache.
func NewStore(db *sql.DB, rdb redis.Cmdable, ttl CacheTTLs) *Store {
	return &Store{
		Tenders:   NewTenderRepository(db),
		Companies: NewCompanyRepository(db, rdb, ttl.Company),
		Reports:   NewReportRepository(db),
		Drafts:    NewDraftRepository(db),
		Sessions:  NewSessionRepository(db, rdb, ttl.Session),
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
