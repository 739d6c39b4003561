// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package comparison

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/motionmaster/internal/platform/database/schema"
	"github.com/taibuivan/motionmaster/internal/platform/dberr"
	"github.com/taibuivan/motionmaster/internal/platform/postgres"
	"github.com/taibuivan/motionmaster/internal/region"
)

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository constructs a PostgreSQL backed comparison store.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var (
	comparisonTable = schema.MediaComparison
	videoTable      = schema.MediaVideo
	analysisTable   = schema.MediaAnalysis
)

// # Comparison Persistence

/*
Create persists a new comparison row.

Parameters:
  - context: context.Context
  - entity: *Comparison

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, entity *Comparison) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5)`,
		comparisonTable.Table, schema.List(comparisonTable.Columns()...))

	now := time.Now().UTC()
	entity.CreatedAt = now
	entity.UpdatedAt = now

	_, err := repository.db.Exec(context, query, entity.ID, entity.OwnerID, entity.Title, entity.CreatedAt, entity.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres_comparison_create_failed")
	}
	return nil
}

/*
FindByID retrieves a single comparison and hydrates its videos and analysis.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Comparison: Hydrated entity
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Comparison, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.List(comparisonTable.Columns()...), comparisonTable.Table, comparisonTable.ID)

	entity := &Comparison{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&entity.ID, &entity.OwnerID, &entity.Title, &entity.CreatedAt, &entity.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_comparison_find_failed")
	}

	if err := repository.hydrate(context, []*Comparison{entity}); err != nil {
		return nil, err
	}
	return entity, nil
}

/*
ListByOwner returns one page of the owner's comparisons.

Description: Uses COUNT(*) OVER() to return the total alongside the page.

Parameters:
  - context: context.Context
  - ownerID: string
  - limit, offset: int

Returns:
  - []*Comparison: Hydrated entities
  - int: Total record count
  - error: Database retrieval failures
*/
func (repository *PostgresRepository) ListByOwner(context context.Context, ownerID string, limit, offset int) ([]*Comparison, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s
		WHERE %s = $1
		ORDER BY %s DESC
		LIMIT $2 OFFSET $3`,
		schema.List(comparisonTable.Columns()...), comparisonTable.Table, comparisonTable.OwnerID, comparisonTable.CreatedAt)

	rows, err := repository.db.Query(context, query, ownerID, limit, offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_comparison_list_failed")
	}
	defer rows.Close()

	entities := make([]*Comparison, 0, limit)
	total := 0
	for rows.Next() {
		entity := &Comparison{}
		if err := rows.Scan(&entity.ID, &entity.OwnerID, &entity.Title, &entity.CreatedAt, &entity.UpdatedAt, &total); err != nil {
			return nil, 0, dberr.Wrap(err, "postgres_comparison_scan_failed")
		}
		entities = append(entities, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "postgres_comparison_list_failed")
	}
	rows.Close()

	if err := repository.hydrate(context, entities); err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

/*
Delete removes a comparison; videos and analysis follow through ON DELETE CASCADE.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: dberr.ErrNotFound when nothing was deleted
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, comparisonTable.Table, comparisonTable.ID)

	tag, err := repository.db.Exec(context, query, id)
	if err != nil {
		return dberr.Wrap(err, "postgres_comparison_delete_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

// # Video Slots

/*
ReplaceVideo swaps the video in a slot inside one transaction.

Description: Locks the current slot row, deletes it, inserts the new row,
drops the stored analysis and touches the comparison.

Parameters:
  - context: context.Context
  - entity: *Video

Returns:
  - *Video: The superseded video, or nil
  - error: Persistence failures
*/
func (repository *PostgresRepository) ReplaceVideo(context context.Context, entity *Video) (*Video, error) {
	var previous *Video

	err := postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		selectQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = $2 FOR UPDATE`,
			schema.List(videoTable.Columns()...), videoTable.Table, videoTable.ComparisonID, videoTable.Role)

		existing, err := scanVideo(tx.QueryRow(context, selectQuery, entity.ComparisonID, entity.Role))
		switch {
		case err == nil:
			previous = existing
			deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, videoTable.Table, videoTable.ID)
			if _, err := tx.Exec(context, deleteQuery, existing.ID); err != nil {
				return fmt.Errorf("postgres_video_delete_failed: %w", err)
			}
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("postgres_video_lock_failed: %w", err)
		}

		now := time.Now().UTC()
		entity.CreatedAt = now
		entity.UpdatedAt = now

		insertQuery := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
			videoTable.Table, schema.List(videoTable.Columns()...))

		x, y, w, h := selectionColumns(entity.Selection)
		if _, err := tx.Exec(context, insertQuery,
			entity.ID, entity.ComparisonID, entity.Role, entity.FileName, entity.StorageKey, entity.MimeType,
			entity.SizeBytes, entity.SHA256, entity.Width, entity.Height, entity.FrameKey,
			x, y, w, h, entity.CreatedAt, entity.UpdatedAt,
		); err != nil {
			return fmt.Errorf("postgres_video_insert_failed: %w", err)
		}

		return invalidate(context, tx, entity.ComparisonID)
	})
	if err != nil {
		return nil, dberr.Wrap(err, "postgres_video_replace_failed")
	}

	return previous, nil
}

/*
UpdateFrame records the poster frame key and the native size.

Parameters:
  - context: context.Context
  - videoID: string
  - frameKey: string
  - width, height: int

Returns:
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresRepository) UpdateFrame(context context.Context, videoID, frameKey string, width, height int) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = now() WHERE %s = $1`,
		videoTable.Table, videoTable.FrameKey, videoTable.Width, videoTable.Height, videoTable.UpdatedAt, videoTable.ID)

	tag, err := repository.db.Exec(context, query, videoID, frameKey, width, height)
	if err != nil {
		return dberr.Wrap(err, "postgres_video_frame_failed")
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

/*
UpdateSelection stores or clears the selection and drops the stored analysis.

Parameters:
  - context: context.Context
  - comparisonID: string
  - videoID: string
  - selection: *region.Rect (nil clears)

Returns:
  - error: dberr.ErrNotFound or database errors
*/
func (repository *PostgresRepository) UpdateSelection(context context.Context, comparisonID, videoID string, selection *region.Rect) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3, %s = $4, %s = $5, %s = now() WHERE %s = $1`,
		videoTable.Table, videoTable.SelectionX, videoTable.SelectionY, videoTable.SelectionWidth, videoTable.SelectionHeight, videoTable.UpdatedAt, videoTable.ID)

	err := postgres.WithTx(context, repository.db, func(tx pgx.Tx) error {
		x, y, w, h := selectionColumns(selection)

		tag, err := tx.Exec(context, query, videoID, x, y, w, h)
		if err != nil {
			return fmt.Errorf("postgres_video_selection_failed: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return pgx.ErrNoRows
		}

		return invalidate(context, tx, comparisonID)
	})

	return dberr.Wrap(err, "postgres_video_selection_failed")
}

// # Analysis Results

/*
SaveAnalysis upserts the result of a comparison.

Parameters:
  - context: context.Context
  - result: *Analysis

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) SaveAnalysis(context context.Context, result *Analysis) error {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (%[3]s) DO UPDATE SET
			%[4]s = EXCLUDED.%[4]s, %[5]s = EXCLUDED.%[5]s, %[6]s = EXCLUDED.%[6]s,
			%[7]s = EXCLUDED.%[7]s, %[8]s = EXCLUDED.%[8]s, %[9]s = EXCLUDED.%[9]s`,
		analysisTable.Table, schema.List(analysisTable.Columns()...), analysisTable.ComparisonID,
		analysisTable.Alignment, analysisTable.Timing, analysisTable.Overall, analysisTable.Feedback, analysisTable.Tips, analysisTable.CompletedAt)

	_, err := repository.db.Exec(context, query,
		result.ComparisonID, result.Alignment, result.Timing, result.Overall, result.Feedback, result.Tips, result.CompletedAt,
	)
	if err != nil {
		return dberr.Wrap(err, "postgres_analysis_save_failed")
	}
	return nil
}

/*
DeleteAnalysis removes a stored result.

Parameters:
  - context: context.Context
  - comparisonID: string

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) DeleteAnalysis(context context.Context, comparisonID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, analysisTable.Table, analysisTable.ComparisonID)

	if _, err := repository.db.Exec(context, query, comparisonID); err != nil {
		return dberr.Wrap(err, "postgres_analysis_delete_failed")
	}
	return nil
}

// # Hydration

// hydrate loads the videos and analyses of entities with one query each.
func (repository *PostgresRepository) hydrate(context context.Context, entities []*Comparison) error {
	if len(entities) == 0 {
		return nil
	}

	ids := make([]string, len(entities))
	byID := make(map[string]*Comparison, len(entities))
	for i, entity := range entities {
		ids[i] = entity.ID
		byID[entity.ID] = entity
	}

	videoQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`,
		schema.List(videoTable.Columns()...), videoTable.Table, videoTable.ComparisonID)

	rows, err := repository.db.Query(context, videoQuery, ids)
	if err != nil {
		return dberr.Wrap(err, "postgres_video_list_failed")
	}
	defer rows.Close()

	for rows.Next() {
		entity, err := scanVideo(rows)
		if err != nil {
			return dberr.Wrap(err, "postgres_video_scan_failed")
		}
		if owner, ok := byID[entity.ComparisonID]; ok {
			owner.SetVideo(entity.Role, entity)
		}
	}
	if err := rows.Err(); err != nil {
		return dberr.Wrap(err, "postgres_video_list_failed")
	}
	rows.Close()

	analysisQuery := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`,
		schema.List(analysisTable.Columns()...), analysisTable.Table, analysisTable.ComparisonID)

	resultRows, err := repository.db.Query(context, analysisQuery, ids)
	if err != nil {
		return dberr.Wrap(err, "postgres_analysis_list_failed")
	}
	defer resultRows.Close()

	for resultRows.Next() {
		result := &Analysis{}
		if err := resultRows.Scan(
			&result.ComparisonID, &result.Alignment, &result.Timing, &result.Overall,
			&result.Feedback, &result.Tips, &result.CompletedAt,
		); err != nil {
			return dberr.Wrap(err, "postgres_analysis_scan_failed")
		}
		if owner, ok := byID[result.ComparisonID]; ok {
			owner.Analysis = result
		}
	}

	return dberr.Wrap(resultRows.Err(), "postgres_analysis_list_failed")
}

// # Helpers

// invalidate drops the stored analysis and bumps the comparison timestamp.
func invalidate(context context.Context, tx pgx.Tx, comparisonID string) error {
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, analysisTable.Table, analysisTable.ComparisonID)
	if _, err := tx.Exec(context, deleteQuery, comparisonID); err != nil {
		return fmt.Errorf("postgres_analysis_invalidate_failed: %w", err)
	}

	touchQuery := fmt.Sprintf(`UPDATE %s SET %s = now() WHERE %s = $1`, comparisonTable.Table, comparisonTable.UpdatedAt, comparisonTable.ID)
	if _, err := tx.Exec(context, touchQuery, comparisonID); err != nil {
		return fmt.Errorf("postgres_comparison_touch_failed: %w", err)
	}
	return nil
}

func scanVideo(row pgx.Row) (*Video, error) {
	entity := &Video{}
	var x, y, w, h *float64

	err := row.Scan(
		&entity.ID, &entity.ComparisonID, &entity.Role, &entity.FileName, &entity.StorageKey, &entity.MimeType,
		&entity.SizeBytes, &entity.SHA256, &entity.Width, &entity.Height, &entity.FrameKey,
		&x, &y, &w, &h, &entity.CreatedAt, &entity.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entity.HasFrame = entity.FrameKey != nil
	if x != nil && y != nil && w != nil && h != nil {
		entity.Selection = &region.Rect{X: *x, Y: *y, Width: *w, Height: *h}
	}
	return entity, nil
}

func selectionColumns(selection *region.Rect) (x, y, w, h *float64) {
	if selection == nil {
		return nil, nil, nil, nil
	}
	return &selection.X, &selection.Y, &selection.Width, &selection.Height
}
