package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mr1hm/cuya-bot/internal/models"
)

func (s *SQLiteDB) Add(ctx context.Context, r *models.Report) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (timestamp, emergency_type, location) VALUES (?, ?, ?)`,
		r.Timestamp, r.EmergencyType, r.Location,
	)
	if err != nil {
		return fmt.Errorf("error inserting report: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading report id: %w", err)
	}
	r.ID = id
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id int64) (*models.Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx,
		`SELECT id, timestamp, emergency_type, location FROM reports WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching report %d: %w", id, err)
	}
	return r, nil
}

func (s *SQLiteDB) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("error deleting report %d: %w", id, err)
	}
	return nil
}

func (s *SQLiteDB) ListReports(ctx context.Context, opts Filter) ([]models.Report, error) {
	query := `SELECT id, timestamp, emergency_type, location FROM reports ORDER BY id DESC`
	var args []any

	if opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning report: %w", err)
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanReport reads one row; text columns are nullable in the legacy schema.
func scanReport(sc scanner) (*models.Report, error) {
	var (
		r                                  models.Report
		timestamp, emergencyType, location sql.NullString
	)
	if err := sc.Scan(&r.ID, &timestamp, &emergencyType, &location); err != nil {
		return nil, err
	}
	r.Timestamp = timestamp.String
	r.EmergencyType = emergencyType.String
	r.Location = location.String
	return &r, nil
}
