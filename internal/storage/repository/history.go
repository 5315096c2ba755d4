package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// UpsertCreditScoreHistory записывает суточный срез кредитного рейтинга.
// На пару (пользователь, день) хранится одна запись, повторная запись
// за тот же день перезаписывает значение.
func (s *Storage) UpsertCreditScoreHistory(ctx context.Context, cnp string, date time.Time, score int) error {
	const op = "storage.UpsertCreditScoreHistory"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO credit_score_history (user_cnp, recorded_on, score)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_cnp, recorded_on)
			  DO UPDATE SET score = EXCLUDED.score`
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if _, err := s.DB.ExecContext(ctx, query, cnp, day, score); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListCreditScoreHistory возвращает историю рейтинга пользователя по дням.
func (s *Storage) ListCreditScoreHistory(ctx context.Context, cnp string) ([]*models.CreditScoreHistory, error) {
	const op = "storage.ListCreditScoreHistory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_cnp, recorded_on, score
			  FROM credit_score_history
			  WHERE user_cnp = $1
			  ORDER BY recorded_on`
	rows, err := s.DB.QueryContext(ctx, query, cnp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.CreditScoreHistory
	for rows.Next() {
		var item models.CreditScoreHistory
		if err := rows.Scan(&item.ID, &item.UserCNP, &item.Date, &item.Score); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
