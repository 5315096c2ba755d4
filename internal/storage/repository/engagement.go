package repository

import (
	"context"
	"fmt"
)

// RecordTip фиксирует выданный пользователю совет.
// Счётчик советов используется для определения каждого третьего совета,
// который дополнительно сопровождается сообщением о наказании.
func (s *Storage) RecordTip(ctx context.Context, cnp, tip string) error {
	const op = "storage.RecordTip"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`INSERT INTO tips (user_cnp, tip) VALUES ($1, $2)`, cnp, tip); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountTipsForUser возвращает количество советов, выданных пользователю.
func (s *Storage) CountTipsForUser(ctx context.Context, cnp string) (int, error) {
	const op = "storage.CountTipsForUser"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tips WHERE user_cnp = $1`, cnp).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// UpsertActivityLog обновляет запись журнала активности пользователя
// суммой последнего штрафа.
func (s *Storage) UpsertActivityLog(ctx context.Context, cnp, activity string, amount int) error {
	const op = "storage.UpsertActivityLog"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO activity_log (user_cnp, activity, amount, updated_at)
			  VALUES ($1, $2, $3, NOW())
			  ON CONFLICT (user_cnp, activity)
			  DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()`
	if _, err := s.DB.ExecContext(ctx, query, cnp, activity, amount); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
