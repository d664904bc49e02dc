// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"bilateral-negotiator/internal/models"
)

// SQLiteJournal implements Journal using SQLite.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLiteJournal creates a new SQLite-based session journal.
func NewSQLiteJournal(dbPath string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	j := &SQLiteJournal{db: db}
	if err := j.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return j, nil
}

// initSchema creates all required tables and indexes.
func (j *SQLiteJournal) initSchema() error {
	schema := `
	-- Sessions table: one row per negotiation session
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		domain_name TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME NOT NULL,
		outcome TEXT NOT NULL,
		rounds INTEGER NOT NULL,
		agreement_bid TEXT,
		agent_utility REAL,
		predicted_opp_utility REAL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Decisions table: one row per turn of a session
	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		turn INTEGER NOT NULL,
		kind TEXT NOT NULL,
		bid TEXT NOT NULL,
		utility REAL NOT NULL,
		phase TEXT NOT NULL,
		progress REAL NOT NULL,
		timestamp DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_domain ON sessions(domain_name);
	CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);
	CREATE INDEX IF NOT EXISTS idx_decisions_session ON decisions(session_id);
	`
	_, err := j.db.Exec(schema)
	return err
}

// SaveSession persists a session record and its per-turn decisions.
func (j *SQLiteJournal) SaveSession(record *models.SessionRecord) error {
	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	agreementBid, err := bidToJSON(record.AgreementBid)
	if err != nil {
		return err
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO sessions
		(id, domain_name, started_at, ended_at, outcome, rounds, agreement_bid, agent_utility, predicted_opp_utility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.DomainName, record.StartedAt, record.EndedAt,
		string(record.Outcome), record.Rounds, agreementBid,
		record.AgentUtility, record.PredictedOppUtility,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM decisions WHERE session_id = ?`, record.ID); err != nil {
		return fmt.Errorf("clear decisions: %w", err)
	}
	for i, d := range record.Decisions {
		bid, err := bidToJSON(d.Bid)
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO decisions (session_id, turn, kind, bid, utility, phase, progress, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, i, string(d.Kind), bid, d.Utility, d.Phase.String(), d.Progress, d.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert decision %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetSession fetches a single session by ID, including its decisions.
func (j *SQLiteJournal) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, domain_name, started_at, ended_at, outcome, rounds, agreement_bid, agent_utility, predicted_opp_utility
		FROM sessions WHERE id = ?`, id)

	record, err := scanSession(row)
	if err != nil {
		return nil, err
	}

	rows, err := j.db.QueryContext(ctx, `
		SELECT kind, bid, utility, phase, progress, timestamp
		FROM decisions WHERE session_id = ? ORDER BY turn`, id)
	if err != nil {
		return nil, fmt.Errorf("query decisions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind, bidJSON, phase string
		var d models.Decision
		if err := rows.Scan(&kind, &bidJSON, &d.Utility, &phase, &d.Progress, &d.Timestamp); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		d.Kind = models.ActionKind(kind)
		d.Bid, err = bidFromJSON(bidJSON)
		if err != nil {
			return nil, err
		}
		record.Decisions = append(record.Decisions, d)
	}
	return record, rows.Err()
}

// GetSessions fetches session records matching the filter, newest first.
// Decisions are not loaded; use GetSession for a full record.
func (j *SQLiteJournal) GetSessions(ctx context.Context, filter SessionFilter) ([]models.SessionRecord, error) {
	query := `
		SELECT id, domain_name, started_at, ended_at, outcome, rounds, agreement_bid, agent_utility, predicted_opp_utility
		FROM sessions`
	var conditions []string
	var args []interface{}

	if filter.DomainName != "" {
		conditions = append(conditions, "domain_name = ?")
		args = append(args, filter.DomainName)
	}
	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(filter.Outcome))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, "started_at >= ?")
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, "started_at <= ?")
		args = append(args, filter.Until)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY started_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []models.SessionRecord
	for rows.Next() {
		record, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// GetStats aggregates journal rows matching the filter.
func (j *SQLiteJournal) GetStats(ctx context.Context, filter SessionFilter) (*models.SessionStats, error) {
	records, err := j.GetSessions(ctx, filter)
	if err != nil {
		return nil, err
	}

	stats := &models.SessionStats{
		ByOutcome: make(map[string]int),
	}
	var utilitySum, roundsSum float64
	for _, r := range records {
		stats.TotalSessions++
		stats.ByOutcome[string(r.Outcome)]++
		if r.Outcome == models.OutcomeAgreement {
			stats.Agreements++
			utilitySum += r.AgentUtility
		}
		roundsSum += float64(r.Rounds)
	}
	if stats.TotalSessions > 0 {
		stats.AgreementRate = float64(stats.Agreements) / float64(stats.TotalSessions)
		stats.AvgRounds = roundsSum / float64(stats.TotalSessions)
	}
	if stats.Agreements > 0 {
		stats.AvgUtility = utilitySum / float64(stats.Agreements)
	}
	return stats, nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row scanner) (*models.SessionRecord, error) {
	var record models.SessionRecord
	var outcome string
	var agreementBid sql.NullString
	var agentUtility, predictedOpp sql.NullFloat64

	err := row.Scan(&record.ID, &record.DomainName, &record.StartedAt, &record.EndedAt,
		&outcome, &record.Rounds, &agreementBid, &agentUtility, &predictedOpp)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	record.Outcome = models.SessionOutcome(outcome)
	if agreementBid.Valid && agreementBid.String != "" {
		record.AgreementBid, err = bidFromJSON(agreementBid.String)
		if err != nil {
			return nil, err
		}
	}
	if agentUtility.Valid {
		record.AgentUtility = agentUtility.Float64
	}
	if predictedOpp.Valid {
		record.PredictedOppUtility = predictedOpp.Float64
	}
	return &record, nil
}

func bidToJSON(bid models.Bid) (string, error) {
	if bid.IsZero() {
		return "", nil
	}
	assignment := make(map[string]string, bid.Len())
	for _, issue := range bid.Issues() {
		v, _ := bid.Value(issue)
		assignment[issue] = v
	}
	data, err := json.Marshal(assignment)
	if err != nil {
		return "", fmt.Errorf("marshal bid: %w", err)
	}
	return string(data), nil
}

func bidFromJSON(s string) (models.Bid, error) {
	if s == "" {
		return models.Bid{}, nil
	}
	var assignment map[string]string
	if err := json.Unmarshal([]byte(s), &assignment); err != nil {
		return models.Bid{}, fmt.Errorf("unmarshal bid: %w", err)
	}
	return models.NewBid(assignment), nil
}
