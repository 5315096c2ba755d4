package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// GetUser возвращает пользователя по его CNP.
func (s *Storage) GetUser(ctx context.Context, cnp string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT cnp, first_name, last_name, email, credit_score, risk_score, roi,
			      gem_balance, number_of_offenses, number_of_bill_shares_paid, income
			  FROM users
			  WHERE cnp = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, cnp)

	var roi string
	if err := row.Scan(&u.CNP, &u.FirstName, &u.LastName, &u.Email, &u.CreditScore,
		&u.RiskScore, &roi, &u.GemBalance, &u.NumberOfOffenses,
		&u.NumberOfBillSharesPaid, &u.Income); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	parsed, err := decimal.NewFromString(roi)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	u.ROI = parsed
	return u, nil
}

// ListUserCNPs возвращает идентификаторы всех пользователей для пакетных проходов.
func (s *Storage) ListUserCNPs(ctx context.Context) ([]string, error) {
	const op = "storage.ListUserCNPs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT cnp FROM users ORDER BY cnp`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var cnp string
		if err := rows.Scan(&cnp); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, cnp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateCreditScore записывает новое значение кредитного рейтинга.
// Значение вне [CreditScoreMin, CreditScoreMax] отклоняется с ErrScoreOutOfRange.
func (s *Storage) UpdateCreditScore(ctx context.Context, cnp string, score int) error {
	const op = "storage.UpdateCreditScore"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if score < CreditScoreMin || score > CreditScoreMax {
		return fmt.Errorf("%s: credit score %d: %w", op, score, ErrScoreOutOfRange)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET credit_score = $2 WHERE cnp = $1`, cnp, score)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// UpdateRiskScore записывает новое значение рейтинга рискованности.
// Значение вне [RiskScoreMin, RiskScoreMax] отклоняется с ErrScoreOutOfRange.
func (s *Storage) UpdateRiskScore(ctx context.Context, cnp string, riskScore int) error {
	const op = "storage.UpdateRiskScore"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if riskScore < RiskScoreMin || riskScore > RiskScoreMax {
		return fmt.Errorf("%s: risk score %d: %w", op, riskScore, ErrScoreOutOfRange)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET risk_score = $2 WHERE cnp = $1`, cnp, riskScore)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// UpdateROI записывает новое значение ROI пользователя.
func (s *Storage) UpdateROI(ctx context.Context, cnp string, roi decimal.Decimal) error {
	const op = "storage.UpdateROI"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users SET roi = $2 WHERE cnp = $1`, cnp, roi.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// ApplyGemPenalty атомарно списывает штраф с баланса пользователя
// и увеличивает счётчик нарушений.
func (s *Storage) ApplyGemPenalty(ctx context.Context, cnp string, penalty int) error {
	const op = "storage.ApplyGemPenalty"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users
		 SET gem_balance = gem_balance - $2,
		     number_of_offenses = number_of_offenses + 1
		 WHERE cnp = $1`, cnp, penalty)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// IncrementBillSharesPaid увеличивает счётчик закрытых долей общих счетов.
func (s *Storage) IncrementBillSharesPaid(ctx context.Context, cnp string) error {
	const op = "storage.IncrementBillSharesPaid"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE users
		 SET number_of_bill_shares_paid = number_of_bill_shares_paid + 1
		 WHERE cnp = $1`, cnp)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// SumTransactionsSince возвращает сумму транзакций пользователя с указанной даты.
func (s *Storage) SumTransactionsSince(ctx context.Context, cnp string, since time.Time) (float64, error) {
	const op = "storage.SumTransactionsSince"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total float64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE user_cnp = $1 AND transaction_date >= $2`, cnp, since).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}

// GetCurrentBalance возвращает текущий баланс пользователя по журналу транзакций.
func (s *Storage) GetCurrentBalance(ctx context.Context, cnp string) (float64, error) {
	const op = "storage.GetCurrentBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var total float64
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM transactions
		 WHERE user_cnp = $1`, cnp).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return total, nil
}
