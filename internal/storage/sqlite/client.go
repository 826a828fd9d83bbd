package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/visabuddy/ai-service/internal/checklist"
	"github.com/visabuddy/ai-service/internal/storage/models"
	"github.com/visabuddy/ai-service/pkg/logger"
)

var ErrNotFound = errors.New("checklist not found")

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS checklists (
		application_id TEXT PRIMARY KEY,
		country_code TEXT NOT NULL,
		visa_category TEXT NOT NULL,
		generation_mode TEXT NOT NULL,
		payload TEXT NOT NULL,
		progress REAL NOT NULL DEFAULT 0,
		generated_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_checklists_country ON checklists(country_code, visa_category);
	CREATE INDEX IF NOT EXISTS idx_checklists_mode ON checklists(generation_mode);

	CREATE TABLE IF NOT EXISTS generation_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generation_id TEXT NOT NULL,
		application_id TEXT NOT NULL,
		country_code TEXT NOT NULL,
		visa_category TEXT NOT NULL,
		generation_mode TEXT NOT NULL,
		attempts INTEGER NOT NULL DEFAULT 0,
		retried INTEGER NOT NULL DEFAULT 0,
		parse_failures INTEGER NOT NULL DEFAULT 0,
		auto_corrections INTEGER NOT NULL DEFAULT 0,
		trimmed_extras INTEGER NOT NULL DEFAULT 0,
		reinserted_base INTEGER NOT NULL DEFAULT 0,
		item_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_genlog_application ON generation_log(application_id);
	CREATE INDEX IF NOT EXISTS idx_genlog_created ON generation_log(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// checklistPayload is the JSON stored per application. Regeneration fully
// replaces it; there is no per-item persistence.
type checklistPayload struct {
	Items []checklist.Item `json:"items"`
	Notes []string         `json:"notes,omitempty"`
}

func (c *Client) SaveChecklist(result *checklist.GenerationResult) error {
	payload, err := json.Marshal(checklistPayload{
		Items: result.Items,
		Notes: result.Notes,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal checklist payload: %w", err)
	}

	query := `
		INSERT INTO checklists (application_id, country_code, visa_category, generation_mode, payload, progress, generated_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(application_id) DO UPDATE SET
			country_code = excluded.country_code,
			visa_category = excluded.visa_category,
			generation_mode = excluded.generation_mode,
			payload = excluded.payload,
			progress = excluded.progress,
			generated_at = excluded.generated_at,
			updated_at = excluded.updated_at
	`

	_, err = c.db.Exec(
		query,
		result.ApplicationID,
		result.CountryCode,
		result.VisaCategory,
		string(result.GenerationMode),
		string(payload),
		result.Progress,
		result.GeneratedAt.Unix(),
		time.Now().Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save checklist: %w", err)
	}

	logger.Debug("Checklist saved",
		zap.String("application_id", result.ApplicationID),
		zap.String("generation_mode", string(result.GenerationMode)),
		zap.Int("items", len(result.Items)),
	)

	return nil
}

func (c *Client) GetChecklist(applicationID string) (*checklist.GenerationResult, error) {
	query := `
		SELECT application_id, country_code, visa_category, generation_mode, payload, progress, generated_at
		FROM checklists WHERE application_id = ?
	`

	var result checklist.GenerationResult
	var mode, payload string
	var generatedAt int64

	err := c.db.QueryRow(query, applicationID).Scan(
		&result.ApplicationID,
		&result.CountryCode,
		&result.VisaCategory,
		&mode,
		&payload,
		&result.Progress,
		&generatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get checklist: %w", err)
	}

	var stored checklistPayload
	if err := json.Unmarshal([]byte(payload), &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checklist payload: %w", err)
	}

	result.GenerationMode = checklist.GenerationMode(mode)
	result.Items = stored.Items
	result.Notes = stored.Notes
	result.GeneratedAt = time.Unix(generatedAt, 0)

	return &result, nil
}

func (c *Client) InsertGenerationLog(entry *models.GenerationLogEntry) error {
	query := `
		INSERT INTO generation_log (generation_id, application_id, country_code, visa_category, generation_mode,
			attempts, retried, parse_failures, auto_corrections, trimmed_extras, reinserted_base,
			item_count, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	retried := 0
	if entry.Retried {
		retried = 1
	}

	_, err := c.db.Exec(
		query,
		entry.GenerationID,
		entry.ApplicationID,
		entry.CountryCode,
		entry.VisaCategory,
		entry.GenerationMode,
		entry.Attempts,
		retried,
		entry.ParseFailures,
		entry.AutoCorrections,
		entry.TrimmedExtras,
		entry.ReinsertedBase,
		entry.ItemCount,
		entry.DurationMs,
		entry.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert generation log: %w", err)
	}

	return nil
}

func (c *Client) ListGenerationLog(applicationID string, limit int) ([]models.GenerationLogEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, generation_id, application_id, country_code, visa_category, generation_mode,
			attempts, retried, parse_failures, auto_corrections, trimmed_extras, reinserted_base,
			item_count, duration_ms, created_at
		FROM generation_log WHERE application_id = ?
		ORDER BY created_at DESC LIMIT ?
	`

	rows, err := c.db.Query(query, applicationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation log: %w", err)
	}
	defer rows.Close()

	var entries []models.GenerationLogEntry
	for rows.Next() {
		var entry models.GenerationLogEntry
		var retried int
		var createdAt int64

		err := rows.Scan(
			&entry.ID,
			&entry.GenerationID,
			&entry.ApplicationID,
			&entry.CountryCode,
			&entry.VisaCategory,
			&entry.GenerationMode,
			&entry.Attempts,
			&retried,
			&entry.ParseFailures,
			&entry.AutoCorrections,
			&entry.TrimmedExtras,
			&entry.ReinsertedBase,
			&entry.ItemCount,
			&entry.DurationMs,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}

		entry.Retried = retried == 1
		entry.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
