package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock's pool
// satisfies it, which keeps the Postgres store unit-testable.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hottest store operations.
var preparedStatements = map[string]string{
	"get_lead":     `SELECT ` + pgLeadColumns + ` FROM leads WHERE id = $1`,
	"insert_fact":  `INSERT INTO facts (id, lead_id, field_name, field_value, source_text, source, confidence, status, review_reason, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
	"review_fact":  `UPDATE facts SET status = $1, review_reason = $2, reviewed_at = $3 WHERE id = $4 AND status = 'pending'`,
	"get_fact":     `SELECT ` + pgFactColumns + ` FROM facts WHERE id = $1`,
	"get_analysis": `SELECT lead_id, score, factors, recommendations, computed_at FROM analyses WHERE lead_id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id                 TEXT PRIMARY KEY,
	company_name       TEXT NOT NULL,
	website            TEXT NOT NULL DEFAULT '',
	phone              TEXT NOT NULL DEFAULT '',
	email              TEXT NOT NULL DEFAULT '',
	address            TEXT NOT NULL DEFAULT '',
	cuisine_type       TEXT NOT NULL DEFAULT '',
	service_style      TEXT NOT NULL DEFAULT '',
	owner_name         TEXT NOT NULL DEFAULT '',
	pos_system         TEXT NOT NULL DEFAULT '',
	online_ordering    TEXT NOT NULL DEFAULT '',
	reservation_system TEXT NOT NULL DEFAULT '',
	social_links       TEXT NOT NULL DEFAULT '',
	rating             TEXT NOT NULL DEFAULT '',
	price_level        TEXT NOT NULL DEFAULT '',
	seating_capacity   TEXT NOT NULL DEFAULT '',
	license_info       TEXT NOT NULL DEFAULT '',
	town               TEXT NOT NULL DEFAULT '',
	completeness       INTEGER NOT NULL DEFAULT 0,
	opportunity_score  INTEGER NOT NULL DEFAULT 0,
	last_enriched_at   TIMESTAMPTZ,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS facts (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	field_name    TEXT NOT NULL,
	field_value   TEXT NOT NULL,
	source_text   TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL,
	confidence    DOUBLE PRECISION NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	review_reason TEXT NOT NULL DEFAULT '',
	reviewed_at   TIMESTAMPTZ,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS pain_signals (
	id          BIGSERIAL PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(lead_id, type, description)
);

CREATE TABLE IF NOT EXISTS analyses (
	lead_id         TEXT PRIMARY KEY REFERENCES leads(id) ON DELETE CASCADE,
	score           INTEGER NOT NULL,
	factors         JSONB NOT NULL,
	recommendations JSONB NOT NULL,
	computed_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facts_lead_id ON facts(lead_id);
CREATE INDEX IF NOT EXISTS idx_facts_status ON facts(status);
CREATE INDEX IF NOT EXISTS idx_pain_signals_lead_id ON pain_signals(lead_id);
CREATE INDEX IF NOT EXISTS idx_leads_company_name ON leads(company_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const pgLeadColumns = `id, company_name, website, phone, email, address, cuisine_type,
	service_style, owner_name, pos_system, online_ordering, reservation_system,
	social_links, rating, price_level, seating_capacity, license_info, town,
	completeness, opportunity_score, last_enriched_at, created_at, updated_at`

func (s *PostgresStore) CreateLead(ctx context.Context, p *model.LeadProfile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (`+pgLeadColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)`,
		p.ID, p.CompanyName, p.Website, p.Phone, p.Email, p.Address, p.CuisineType,
		p.ServiceStyle, p.OwnerName, p.POSSystem, p.OnlineOrdering, p.ReservationSystem,
		p.SocialLinks, p.Rating, p.PriceLevel, p.SeatingCapacity, p.LicenseInfo, p.Town,
		p.Completeness, p.OpportunityScore, p.LastEnrichedAt, now, now,
	)
	return eris.Wrap(err, "postgres: insert lead")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.LeadProfile, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgLeadColumns+` FROM leads WHERE id = $1`, id)
	p, err := scanPgLead(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "lead", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get lead %s", id)
	}
	return p, nil
}

func (s *PostgresStore) UpdateLead(ctx context.Context, p *model.LeadProfile) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET company_name = $1, website = $2, phone = $3, email = $4, address = $5,
		 cuisine_type = $6, service_style = $7, owner_name = $8, pos_system = $9,
		 online_ordering = $10, reservation_system = $11, social_links = $12, rating = $13,
		 price_level = $14, seating_capacity = $15, license_info = $16, town = $17,
		 completeness = $18, opportunity_score = $19, last_enriched_at = $20, updated_at = $21
		 WHERE id = $22`,
		p.CompanyName, p.Website, p.Phone, p.Email, p.Address,
		p.CuisineType, p.ServiceStyle, p.OwnerName, p.POSSystem,
		p.OnlineOrdering, p.ReservationSystem, p.SocialLinks, p.Rating,
		p.PriceLevel, p.SeatingCapacity, p.LicenseInfo, p.Town,
		p.Completeness, p.OpportunityScore, p.LastEnrichedAt, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "lead", ID: p.ID}
	}
	return nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadProfile, error) {
	query := `SELECT ` + pgLeadColumns + ` FROM leads`
	var args []any
	if filter.Search != "" {
		query += ` WHERE company_name ILIKE $1 OR town ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.LeadProfile
	for rows.Next() {
		p, err := scanPgLead(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, *p)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	if tag.RowsAffected() == 0 {
		return &model.NotFoundError{Entity: "lead", ID: id}
	}
	return nil
}

const pgFactColumns = `id, lead_id, field_name, field_value, source_text, source,
	confidence, status, review_reason, reviewed_at, created_at`

func (s *PostgresStore) CreateFact(ctx context.Context, f *model.AtomicFact) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Status == "" {
		f.Status = model.FactPending
	}
	f.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO facts (id, lead_id, field_name, field_value, source_text, source, confidence, status, review_reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		f.ID, f.LeadID, f.FieldName, f.FieldValue, f.SourceText, f.Source,
		f.Confidence, string(f.Status), f.ReviewReason, f.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert fact")
}

func (s *PostgresStore) GetFact(ctx context.Context, id string) (*model.AtomicFact, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgFactColumns+` FROM facts WHERE id = $1`, id)
	f, err := scanPgFact(row.Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "fact", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get fact %s", id)
	}
	return f, nil
}

func (s *PostgresStore) ReviewFact(ctx context.Context, id string, status model.FactStatus, reason string, reviewedAt time.Time) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE facts SET status = $1, review_reason = $2, reviewed_at = $3 WHERE id = $4 AND status = 'pending'`,
		string(status), reason, reviewedAt.UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: review fact %s", id)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ListFacts(ctx context.Context, filter FactFilter) ([]model.AtomicFact, error) {
	query := `SELECT ` + pgFactColumns + ` FROM facts WHERE 1=1`
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.LeadID != "" {
		args = append(args, filter.LeadID)
		query += ` AND lead_id = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list facts")
	}
	defer rows.Close()

	var facts []model.AtomicFact
	for rows.Next() {
		f, err := scanPgFact(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan fact")
		}
		facts = append(facts, *f)
	}
	return facts, eris.Wrap(rows.Err(), "postgres: list facts iterate")
}

func (s *PostgresStore) AddPainSignals(ctx context.Context, leadID string, signals []model.PainSignal) (int, error) {
	added := 0
	for _, sig := range signals {
		tag, err := s.pool.Exec(ctx,
			`INSERT INTO pain_signals (lead_id, type, severity, description, source, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (lead_id, type, description) DO NOTHING`,
			leadID, sig.Type, string(sig.Severity), sig.Description, sig.Source, time.Now().UTC(),
		)
		if err != nil {
			return added, eris.Wrap(err, "postgres: insert pain signal")
		}
		added += int(tag.RowsAffected())
	}
	return added, nil
}

func (s *PostgresStore) ListPainSignals(ctx context.Context, leadID string) ([]model.PainSignal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, lead_id, type, severity, description, source, created_at
		 FROM pain_signals WHERE lead_id = $1 ORDER BY id`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pain signals")
	}
	defer rows.Close()

	var signals []model.PainSignal
	for rows.Next() {
		var sg model.PainSignal
		var sev string
		if err := rows.Scan(&sg.ID, &sg.LeadID, &sg.Type, &sev, &sg.Description, &sg.Source, &sg.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pain signal")
		}
		sg.Severity = model.Severity(sev)
		signals = append(signals, sg)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: list pain signals iterate")
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *model.OpportunityAnalysis) error {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal factors")
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal recommendations")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO analyses (lead_id, score, factors, recommendations, computed_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (lead_id) DO UPDATE SET
		   score = EXCLUDED.score,
		   factors = EXCLUDED.factors,
		   recommendations = EXCLUDED.recommendations,
		   computed_at = EXCLUDED.computed_at`,
		a.LeadID, a.Score, factors, recs, a.ComputedAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save analysis")
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, leadID string) (*model.OpportunityAnalysis, error) {
	var a model.OpportunityAnalysis
	var factors, recs []byte
	err := s.pool.QueryRow(ctx,
		`SELECT lead_id, score, factors, recommendations, computed_at FROM analyses WHERE lead_id = $1`,
		leadID,
	).Scan(&a.LeadID, &a.Score, &factors, &recs, &a.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "analysis", ID: leadID}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get analysis %s", leadID)
	}
	if err := json.Unmarshal(factors, &a.Factors); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal factors")
	}
	if err := json.Unmarshal(recs, &a.Recommendations); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal recommendations")
	}
	return &a, nil
}

func scanPgLead(scan func(dest ...any) error) (*model.LeadProfile, error) {
	var p model.LeadProfile
	err := scan(
		&p.ID, &p.CompanyName, &p.Website, &p.Phone, &p.Email, &p.Address, &p.CuisineType,
		&p.ServiceStyle, &p.OwnerName, &p.POSSystem, &p.OnlineOrdering, &p.ReservationSystem,
		&p.SocialLinks, &p.Rating, &p.PriceLevel, &p.SeatingCapacity, &p.LicenseInfo, &p.Town,
		&p.Completeness, &p.OpportunityScore, &p.LastEnrichedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPgFact(scan func(dest ...any) error) (*model.AtomicFact, error) {
	var f model.AtomicFact
	var status string
	err := scan(
		&f.ID, &f.LeadID, &f.FieldName, &f.FieldValue, &f.SourceText, &f.Source,
		&f.Confidence, &status, &f.ReviewReason, &f.ReviewedAt, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Status = model.FactStatus(status)
	return &f, nil
}
