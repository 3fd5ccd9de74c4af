package store

import (
	"context"
	"database/sql"
	"fmt"

	"userperf/internal/model"
)

// Load 按保存顺序读取全部项目
func (s *Store) Load(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, spreadsheet_id, category, custom_sheets, color, created_at, updated_at
		FROM projects
		ORDER BY position, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &p.SpreadsheetID, &category, &p.CustomSheets, &p.Color, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		p.Category = model.Category(category)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate projects: %w", err)
	}
	return projects, nil
}

// Save 整体替换项目列表
func (s *Store) Save(ctx context.Context, projects []model.Project) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM projects`); err != nil {
			return fmt.Errorf("failed to clear projects: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO projects (
				id, position, name, spreadsheet_id, category,
				custom_sheets, color, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare project insert: %w", err)
		}
		defer stmt.Close()

		for i, p := range projects {
			if _, err := stmt.ExecContext(ctx,
				p.ID, i, p.Name, p.SpreadsheetID, string(p.Category),
				p.CustomSheets, p.Color, p.CreatedAt.UTC(), p.UpdatedAt.UTC(),
			); err != nil {
				return fmt.Errorf("failed to insert project %s: %w", p.ID, err)
			}
		}
		return nil
	})
}
