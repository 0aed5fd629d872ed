package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ccrestaurant/lead-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode and foreign-key enforcement (cascading deletes depend on it).
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	last_enriched_at   DATETIME,
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS facts (
	id            TEXT PRIMARY KEY,
	lead_id       TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	field_name    TEXT NOT NULL,
	field_value   TEXT NOT NULL,
	source_text   TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL,
	confidence    REAL NOT NULL,
	status        TEXT NOT NULL DEFAULT 'pending',
	review_reason TEXT NOT NULL DEFAULT '',
	reviewed_at   DATETIME,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS pain_signals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	lead_id     TEXT NOT NULL REFERENCES leads(id) ON DELETE CASCADE,
	type        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	source      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(lead_id, type, description)
);

CREATE TABLE IF NOT EXISTS analyses (
	lead_id         TEXT PRIMARY KEY REFERENCES leads(id) ON DELETE CASCADE,
	score           INTEGER NOT NULL,
	factors         TEXT NOT NULL,
	recommendations TEXT NOT NULL,
	computed_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facts_lead_id ON facts(lead_id);
CREATE INDEX IF NOT EXISTS idx_facts_status ON facts(status);
CREATE INDEX IF NOT EXISTS idx_pain_signals_lead_id ON pain_signals(lead_id);
CREATE INDEX IF NOT EXISTS idx_leads_company_name ON leads(company_name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const leadColumns = `id, company_name, website, phone, email, address, cuisine_type,
	service_style, owner_name, pos_system, online_ordering, reservation_system,
	social_links, rating, price_level, seating_capacity, license_info, town,
	completeness, opportunity_score, last_enriched_at, created_at, updated_at`

func (s *SQLiteStore) CreateLead(ctx context.Context, p *model.LeadProfile) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.CompanyName, p.Website, p.Phone, p.Email, p.Address, p.CuisineType,
		p.ServiceStyle, p.OwnerName, p.POSSystem, p.OnlineOrdering, p.ReservationSystem,
		p.SocialLinks, p.Rating, p.PriceLevel, p.SeatingCapacity, p.LicenseInfo, p.Town,
		p.Completeness, p.OpportunityScore, nullTime(p.LastEnrichedAt), now, now,
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.LeadProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = ?`, id)
	p, err := scanLead(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "lead", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get lead %s", id)
	}
	return p, nil
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, p *model.LeadProfile) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET company_name = ?, website = ?, phone = ?, email = ?, address = ?,
		 cuisine_type = ?, service_style = ?, owner_name = ?, pos_system = ?,
		 online_ordering = ?, reservation_system = ?, social_links = ?, rating = ?,
		 price_level = ?, seating_capacity = ?, license_info = ?, town = ?,
		 completeness = ?, opportunity_score = ?, last_enriched_at = ?, updated_at = ?
		 WHERE id = ?`,
		p.CompanyName, p.Website, p.Phone, p.Email, p.Address,
		p.CuisineType, p.ServiceStyle, p.OwnerName, p.POSSystem,
		p.OnlineOrdering, p.ReservationSystem, p.SocialLinks, p.Rating,
		p.PriceLevel, p.SeatingCapacity, p.LicenseInfo, p.Town,
		p.Completeness, p.OpportunityScore, nullTime(p.LastEnrichedAt), p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", p.ID)
	}
	return checkAffected(res, "lead", p.ID)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.LeadProfile, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	var args []any
	if filter.Search != "" {
		query += ` AND (company_name LIKE ? OR town LIKE ?)`
		like := "%" + filter.Search + "%"
		args = append(args, like, like)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.LeadProfile
	for rows.Next() {
		p, err := scanLead(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, *p)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	// Child rows go with the lead via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkAffected(res, "lead", id)
}

func (s *SQLiteStore) CreateFact(ctx context.Context, f *model.AtomicFact) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.Status == "" {
		f.Status = model.FactPending
	}
	f.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facts (id, lead_id, field_name, field_value, source_text, source, confidence, status, review_reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.LeadID, f.FieldName, f.FieldValue, f.SourceText, f.Source,
		f.Confidence, string(f.Status), f.ReviewReason, f.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert fact")
}

const factColumns = `id, lead_id, field_name, field_value, source_text, source,
	confidence, status, review_reason, reviewed_at, created_at`

func (s *SQLiteStore) GetFact(ctx context.Context, id string) (*model.AtomicFact, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+factColumns+` FROM facts WHERE id = ?`, id)
	f, err := scanFact(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "fact", ID: id}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get fact %s", id)
	}
	return f, nil
}

// ReviewFact is the storage half of the one-way transition: the UPDATE is
// guarded on status='pending', so concurrent decisions cannot both win.
func (s *SQLiteStore) ReviewFact(ctx context.Context, id string, status model.FactStatus, reason string, reviewedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facts SET status = ?, review_reason = ?, reviewed_at = ? WHERE id = ? AND status = 'pending'`,
		string(status), reason, reviewedAt.UTC(), id,
	)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: review fact %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) ListFacts(ctx context.Context, filter FactFilter) ([]model.AtomicFact, error) {
	query := `SELECT ` + factColumns + ` FROM facts WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.LeadID != "" {
		query += ` AND lead_id = ?`
		args = append(args, filter.LeadID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list facts")
	}
	defer rows.Close()

	var facts []model.AtomicFact
	for rows.Next() {
		f, err := scanFact(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan fact")
		}
		facts = append(facts, *f)
	}
	return facts, eris.Wrap(rows.Err(), "sqlite: list facts iterate")
}

func (s *SQLiteStore) AddPainSignals(ctx context.Context, leadID string, signals []model.PainSignal) (int, error) {
	added := 0
	for _, sig := range signals {
		res, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO pain_signals (lead_id, type, severity, description, source, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			leadID, sig.Type, string(sig.Severity), sig.Description, sig.Source, time.Now().UTC(),
		)
		if err != nil {
			return added, eris.Wrap(err, "sqlite: insert pain signal")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, eris.Wrap(err, "sqlite: rows affected")
		}
		added += int(n)
	}
	return added, nil
}

func (s *SQLiteStore) ListPainSignals(ctx context.Context, leadID string) ([]model.PainSignal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, type, severity, description, source, created_at
		 FROM pain_signals WHERE lead_id = ? ORDER BY id`,
		leadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pain signals")
	}
	defer rows.Close()

	var signals []model.PainSignal
	for rows.Next() {
		var s model.PainSignal
		var sev string
		if err := rows.Scan(&s.ID, &s.LeadID, &s.Type, &sev, &s.Description, &s.Source, &s.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan pain signal")
		}
		s.Severity = model.Severity(sev)
		signals = append(signals, s)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: list pain signals iterate")
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *model.OpportunityAnalysis) error {
	factors, err := json.Marshal(a.Factors)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal factors")
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal recommendations")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analyses (lead_id, score, factors, recommendations, computed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(lead_id) DO UPDATE SET
		   score = excluded.score,
		   factors = excluded.factors,
		   recommendations = excluded.recommendations,
		   computed_at = excluded.computed_at`,
		a.LeadID, a.Score, string(factors), string(recs), a.ComputedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save analysis")
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, leadID string) (*model.OpportunityAnalysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lead_id, score, factors, recommendations, computed_at FROM analyses WHERE lead_id = ?`,
		leadID,
	)
	var a model.OpportunityAnalysis
	var factors, recs string
	err := row.Scan(&a.LeadID, &a.Score, &factors, &recs, &a.ComputedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &model.NotFoundError{Entity: "analysis", ID: leadID}
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get analysis %s", leadID)
	}
	if err := json.Unmarshal([]byte(factors), &a.Factors); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal factors")
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal recommendations")
	}
	return &a, nil
}

// scanLead scans a lead row via the provided Scan function so it works for
// both QueryRow and Rows.
func scanLead(scan func(dest ...any) error) (*model.LeadProfile, error) {
	var p model.LeadProfile
	var enriched sql.NullTime
	err := scan(
		&p.ID, &p.CompanyName, &p.Website, &p.Phone, &p.Email, &p.Address, &p.CuisineType,
		&p.ServiceStyle, &p.OwnerName, &p.POSSystem, &p.OnlineOrdering, &p.ReservationSystem,
		&p.SocialLinks, &p.Rating, &p.PriceLevel, &p.SeatingCapacity, &p.LicenseInfo, &p.Town,
		&p.Completeness, &p.OpportunityScore, &enriched, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if enriched.Valid {
		t := enriched.Time
		p.LastEnrichedAt = &t
	}
	return &p, nil
}

func scanFact(scan func(dest ...any) error) (*model.AtomicFact, error) {
	var f model.AtomicFact
	var status string
	var reviewed sql.NullTime
	err := scan(
		&f.ID, &f.LeadID, &f.FieldName, &f.FieldValue, &f.SourceText, &f.Source,
		&f.Confidence, &status, &f.ReviewReason, &reviewed, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	f.Status = model.FactStatus(status)
	if reviewed.Valid {
		t := reviewed.Time
		f.ReviewedAt = &t
	}
	return &f, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func checkAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return &model.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
