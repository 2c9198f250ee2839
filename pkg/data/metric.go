package data

import (
	"database/sql"
	"fmt"
	"sort"
)

const (
	insertMetricSQL = `INSERT INTO metric (run_id, stage, name, value) VALUES (?, ?, ?, ?)`

	selectMetricsSQL = `SELECT m.run_id, m.stage, m.name, m.value, r.started
		FROM metric m
		JOIN run r ON m.run_id = r.id
		WHERE m.name = COALESCE(?, m.name)
		AND m.stage = COALESCE(?, m.stage)
		ORDER BY r.started DESC, m.name
		LIMIT ?
	`
)

// Metric is one numeric score recorded by a stage run.
type Metric struct {
	RunID   int64   `json:"run_id"`
	Stage   string  `json:"stage"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Started string  `json:"started,omitempty"`
}

// SaveMetrics stores the named values for a run in one transaction. Names
// are written in sorted order.
func SaveMetrics(db *sql.DB, runID int64, stage string, values map[string]float64) error {
	if db == nil {
		return errDBNotInitialized
	}
	if len(values) == 0 {
		return nil
	}

	names := make([]string, 0, len(values))
	for n := range values {
		names = append(names, n)
	}
	sort.Strings(names)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(insertMetricSQL)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare metric statement: %w", err)
	}
	defer stmt.Close()

	for _, name := range names {
		if _, err := stmt.Exec(runID, stage, name, values[name]); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("failed to rollback transaction: %w", rbErr)
			}
			return fmt.Errorf("failed to insert metric %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListMetrics returns the most recent metrics, optionally filtered by name
// and stage.
func ListMetrics(db *sql.DB, name, stage string, limit int) ([]*Metric, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = 100
	}

	var nameArg, stageArg any
	if name != "" {
		nameArg = name
	}
	if stage != "" {
		stageArg = stage
	}

	rows, err := db.Query(selectMetricsSQL, nameArg, stageArg, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	var out []*Metric
	for rows.Next() {
		var m Metric
		if err := rows.Scan(&m.RunID, &m.Stage, &m.Name, &m.Value, &m.Started); err != nil {
			return nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
