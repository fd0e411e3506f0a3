package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/abhijeet1275/image-matcher/internal/model"
)

var _ model.MatchStore = (*MatchRepository)(nil)

type MatchRepository struct {
	db *Connection
}

func NewMatchRepository(db *Connection) *MatchRepository {
	return &MatchRepository{
		db: db,
	}
}

func (r *MatchRepository) Create(ctx context.Context, record model.MatchRecord) (model.MatchRecord, error) {
	breakdown, err := json.Marshal(record.Features)
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("failed to marshal feature breakdown: %w", err)
	}

	query := `
		INSERT INTO matches (id, user_id, prompt, image_filename, stored_filename, final_score, explanation, feature_breakdown)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, prompt, image_filename, stored_filename, final_score, explanation, feature_breakdown, created_at`

	saved, err := scanMatch(r.db.QueryRow(ctx, query,
		record.ID, record.UserID, record.Prompt, record.ImageFilename,
		record.StoredFilename, record.FinalScore, record.Explanation, breakdown,
	))
	if err != nil {
		return model.MatchRecord{}, fmt.Errorf("failed to create match record: %w", err)
	}

	return saved, nil
}

func (r *MatchRepository) GetByID(ctx context.Context, id uuid.UUID) (model.MatchRecord, error) {
	query := `
		SELECT id, user_id, prompt, image_filename, stored_filename, final_score, explanation, feature_breakdown, created_at
		FROM matches WHERE id = $1`

	record, err := scanMatch(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.MatchRecord{}, model.ErrNotFound
		}
		return model.MatchRecord{}, fmt.Errorf("failed to get match by id: %w", err)
	}

	return record, nil
}

func (r *MatchRepository) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.MatchRecord, error) {
	query := `
		SELECT id, user_id, prompt, image_filename, stored_filename, final_score, explanation, feature_breakdown, created_at
		FROM matches
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches by user id: %w", err)
	}
	defer rows.Close()

	var records []model.MatchRecord
	for rows.Next() {
		record, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (r *MatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM matches WHERE id = $1`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func scanMatch(row pgx.Row) (model.MatchRecord, error) {
	var record model.MatchRecord
	var breakdown []byte

	err := row.Scan(
		&record.ID, &record.UserID, &record.Prompt, &record.ImageFilename,
		&record.StoredFilename, &record.FinalScore, &record.Explanation,
		&breakdown, &record.CreatedAt,
	)
	if err != nil {
		return model.MatchRecord{}, err
	}

	if err := json.Unmarshal(breakdown, &record.Features); err != nil {
		return model.MatchRecord{}, fmt.Errorf("failed to unmarshal feature breakdown: %w", err)
	}

	return record, nil
}
