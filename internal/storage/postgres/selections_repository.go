package postgres

import (
	"context"
	"fmt"

	"github.com/growthcompass/server/internal/domain/selections"
)

func (r *SelectionRepository) ListByUser(ctx context.Context, userID string) ([]selections.Selection, error) {
	query := `
		SELECT user_id, viewpoint, step, memo, updated_at
		FROM selections
		WHERE user_id = $1
		ORDER BY viewpoint`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list selections: %w", err)
	}
	defer rows.Close()

	var result []selections.Selection
	for rows.Next() {
		var s selections.Selection
		if err := rows.Scan(&s.UserID, &s.Viewpoint, &s.Step, &s.Memo, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan selection: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// Upsert inserts or overwrites the (user, viewpoint) selection in one
// statement so concurrent saves of the same viewpoint cannot conflict.
func (r *SelectionRepository) Upsert(ctx context.Context, selection selections.Selection) error {
	query := `
		INSERT INTO selections (user_id, viewpoint, step, memo)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, viewpoint)
		DO UPDATE SET step = EXCLUDED.step, memo = EXCLUDED.memo, updated_at = now()`

	if _, err := r.pool.Exec(ctx, query,
		selection.UserID, selection.Viewpoint, selection.Step, selection.Memo,
	); err != nil {
		return fmt.Errorf("upsert selection: %w", err)
	}
	return nil
}

func (r *SelectionRepository) Delete(ctx context.Context, userID, viewpoint string) error {
	query := `DELETE FROM selections WHERE user_id = $1 AND viewpoint = $2`
	if _, err := r.pool.Exec(ctx, query, userID, viewpoint); err != nil {
		return fmt.Errorf("delete selection: %w", err)
	}
	return nil
}
