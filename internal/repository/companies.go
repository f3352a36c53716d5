package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bidbuddy-workers/internal/common/database"
	"bidbuddy-workers/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// CompanyCacheKey is the Redis key of a cached company profile.
func CompanyCacheKey(id string) string {
	return "company:profile:" + id
}

type CompanyRepository struct {
	db    *sql.DB
	cache redis.Cmdable
	ttl   time.Duration
}

func NewCompanyRepository(db *sql.DB, cache redis.Cmdable, ttl time.Duration) *CompanyRepository {
	return &CompanyRepository{db: db, cache: cache, ttl: ttl}
}

// Get returns a company profile, reading through the cache. Cache failures
// fall back to Postgres.
func (r *CompanyRepository) Get(ctx context.Context, id string) (*models.CompanyProfile, error) {
	if r.cacheEnabled() {
		var cached models.CompanyProfile
		if err := database.GetJSON(ctx, r.cache, CompanyCacheKey(id), &cached); err == nil {
			return &cached, nil
		}
	}

	c, err := r.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if r.cacheEnabled() {
		_ = database.SetJSON(ctx, r.cache, CompanyCacheKey(id), c, r.ttl)
	}
	return c, nil
}

func (r *CompanyRepository) load(ctx context.Context, id string) (*models.CompanyProfile, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, registration_number, pan, gst, annual_turnover, net_worth,
		       years_in_operation, certifications, sectors, past_projects, max_single_project_value,
		       available_documents, msme_category, contact_email, contact_phone, created_at, updated_at
		FROM company_profiles WHERE id = $1`, id)

	var (
		c         models.CompanyProfile
		projects  []byte
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.RegistrationNumber, &c.PAN, &c.GST, &c.AnnualTurnover, &c.NetWorth,
		&c.YearsInOperation, pq.Array(&c.Certifications), pq.Array(&c.Sectors), &projects, &c.MaxSingleProjectValue,
		pq.Array(&c.AvailableDocuments), &c.MSMECategory, &c.ContactEmail, &c.ContactPhone, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", id, err)
	}

	if len(projects) > 0 {
		if err := json.Unmarshal(projects, &c.PastProjects); err != nil {
			return nil, fmt.Errorf("decode past projects of company %s: %w", id, err)
		}
	}
	c.CreatedAt = formatTime(createdAt)
	c.UpdatedAt = formatTime(updatedAt)
	return &c, nil
}

// Upsert stores a profile and drops its cache entry.
func (r *CompanyRepository) Upsert(ctx context.Context, c *models.CompanyProfile) error {
	projects, err := json.Marshal(nonNilProjects(c.PastProjects))
	if err != nil {
		return fmt.Errorf("encode past projects: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO company_profiles (id, owner_id, name, registration_number, pan, gst, annual_turnover, net_worth,
			years_in_operation, certifications, sectors, past_projects, max_single_project_value,
			available_documents, msme_category, contact_email, contact_phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			owner_id = EXCLUDED.owner_id, name = EXCLUDED.name, registration_number = EXCLUDED.registration_number,
			pan = EXCLUDED.pan, gst = EXCLUDED.gst, annual_turnover = EXCLUDED.annual_turnover,
			net_worth = EXCLUDED.net_worth, years_in_operation = EXCLUDED.years_in_operation,
			certifications = EXCLUDED.certifications, sectors = EXCLUDED.sectors,
			past_projects = EXCLUDED.past_projects, max_single_project_value = EXCLUDED.max_single_project_value,
			available_documents = EXCLUDED.available_documents, msme_category = EXCLUDED.msme_category,
			contact_email = EXCLUDED.contact_email, contact_phone = EXCLUDED.contact_phone, updated_at = NOW()`,
		c.ID, c.OwnerID, c.Name, c.RegistrationNumber, c.PAN, c.GST, c.AnnualTurnover, c.NetWorth,
		c.YearsInOperation, pq.Array(c.Certifications), pq.Array(c.Sectors), projects, c.MaxSingleProjectValue,
		pq.Array(c.AvailableDocuments), c.MSMECategory, c.ContactEmail, c.ContactPhone)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", c.ID, err)
	}

	if r.cacheEnabled() {
		_ = r.cache.Del(ctx, CompanyCacheKey(c.ID)).Err()
	}
	return nil
}

func (r *CompanyRepository) cacheEnabled() bool {
	return r.cache != nil && r.ttl > 0
}

func nonNilProjects(p []models.PastProject) []models.PastProject {
	if p == nil {
		return []models.PastProject{}
	}
	return p
}
