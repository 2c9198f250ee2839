package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	insertRunSQL = `INSERT INTO run (stage, started, duration_ms, detail) VALUES (?, ?, ?, ?)`

	selectRunsSQL = `SELECT id, stage, started, duration_ms, detail
		FROM run
		WHERE stage = COALESCE(?, stage)
		ORDER BY started DESC, id DESC
		LIMIT ?
	`
)

// Run is one stage execution log, the pipeline's provenance trail.
type Run struct {
	ID       int64          `json:"id,omitempty"`
	Stage    string         `json:"stage"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"-"`
	Detail   map[string]any `json:"detail,omitempty"`

	// DurationText mirrors Duration for encoding.
	DurationText string `json:"duration"`
}

// SaveRun persists the run log and returns its ID.
func SaveRun(db *sql.DB, run *Run) (int64, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}
	if run == nil || run.Stage == "" {
		return 0, fmt.Errorf("run with stage required")
	}

	detail := "{}"
	if run.Detail != nil {
		b, err := json.Marshal(run.Detail)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal run detail: %w", err)
		}
		detail = string(b)
	}

	res, err := db.Exec(insertRunSQL,
		run.Stage,
		run.Started.UTC().Format(time.RFC3339),
		run.Duration.Milliseconds(),
		detail,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run for stage %s: %w", run.Stage, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}
	run.ID = id
	return id, nil
}

// ListRuns returns the most recent runs, optionally filtered by stage.
func ListRuns(db *sql.DB, stage string, limit int) ([]*Run, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}

	var stageArg any
	if stage != "" {
		stageArg = stage
	}

	rows, err := db.Query(selectRunsSQL, stageArg, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []*Run
	for rows.Next() {
		var (
			r       Run
			started string
			durMs   int64
			detail  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Stage, &started, &durMs, &detail); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		if r.Started, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("failed to parse run start time %q: %w", started, err)
		}
		r.Duration = time.Duration(durMs) * time.Millisecond
		r.DurationText = r.Duration.String()
		if detail.Valid && detail.String != "" {
			if err := json.Unmarshal([]byte(detail.String), &r.Detail); err != nil {
				return nil, fmt.Errorf("failed to parse run detail: %w", err)
			}
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
