package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

const loanColumns = `id, user_cnp, amount, application_date, repayment_date, interest_rate,
	number_of_months, monthly_payment_amount, monthly_payments_completed,
	repaid_amount, penalty, status`

func scanLoan(row interface{ Scan(...any) error }) (*models.Loan, error) {
	var l models.Loan
	if err := row.Scan(&l.ID, &l.UserCNP, &l.Amount, &l.ApplicationDate, &l.RepaymentDate,
		&l.InterestRate, &l.NumberOfMonths, &l.MonthlyPaymentAmount,
		&l.MonthlyPaymentsCompleted, &l.RepaidAmount, &l.Penalty, &l.Status); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLoan вставляет новый кредит и возвращает его id.
func (s *Storage) CreateLoan(ctx context.Context, loan models.Loan) (int, error) {
	const op = "storage.CreateLoan"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO loans (user_cnp, amount, application_date, repayment_date,
			      interest_rate, number_of_months, monthly_payment_amount,
			      monthly_payments_completed, repaid_amount, penalty, status)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			  RETURNING id`
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		loan.UserCNP, loan.Amount, loan.ApplicationDate, loan.RepaymentDate,
		loan.InterestRate, loan.NumberOfMonths, loan.MonthlyPaymentAmount,
		loan.MonthlyPaymentsCompleted, loan.RepaidAmount, loan.Penalty,
		loan.Status).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetLoan возвращает кредит по id.
func (s *Storage) GetLoan(ctx context.Context, id int) (*models.Loan, error) {
	const op = "storage.GetLoan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	loan, err := scanLoan(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrLoanNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return loan, nil
}

// ListAllLoans возвращает все кредиты для пакетного прохода.
func (s *Storage) ListAllLoans(ctx context.Context) ([]*models.Loan, error) {
	const op = "storage.ListAllLoans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + loanColumns + ` FROM loans ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListLoansByUser возвращает кредиты одного пользователя.
func (s *Storage) ListLoansByUser(ctx context.Context, cnp string) ([]*models.Loan, error) {
	const op = "storage.ListLoansByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + loanColumns + ` FROM loans WHERE user_cnp = $1 ORDER BY id`
	rows, err := s.DB.QueryContext(ctx, query, cnp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, loan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateLoanState записывает статус и штраф кредита после шага пакетного прохода.
func (s *Storage) UpdateLoanState(ctx context.Context, id int, status models.LoanStatus, penalty float64) error {
	const op = "storage.UpdateLoanState"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE loans SET status = $2, penalty = $3 WHERE id = $1`, id, status, penalty)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrLoanNotFound)
	}
	return nil
}

// IncrementLoanPayment атомарно фиксирует очередной ежемесячный платёж:
// увеличивает счётчик платежей и прибавляет сумму платежа со штрафом
// к возвращённой сумме.
func (s *Storage) IncrementLoanPayment(ctx context.Context, id int, paid float64) error {
	const op = "storage.IncrementLoanPayment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE loans
		 SET monthly_payments_completed = monthly_payments_completed + 1,
		     repaid_amount = repaid_amount + $2
		 WHERE id = $1`, id, paid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrLoanNotFound)
	}
	return nil
}

// DeleteLoan удаляет кредит, достигший терминального статуса.
func (s *Storage) DeleteLoan(ctx context.Context, id int) error {
	const op = "storage.DeleteLoan"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrLoanNotFound)
	}
	return nil
}

// GetLoanRequest возвращает заявку на кредит по id.
func (s *Storage) GetLoanRequest(ctx context.Context, id int) (*models.LoanRequest, error) {
	const op = "storage.GetLoanRequest"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_cnp, amount, application_date, repayment_date, status
			  FROM loan_requests WHERE id = $1`
	var r models.LoanRequest
	var status sql.NullString
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.UserCNP, &r.Amount,
		&r.ApplicationDate, &r.RepaymentDate, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrLoanRequestNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if status.Valid {
		r.Status = status.String
	}
	return &r, nil
}

// MarkLoanRequestSolved помечает заявку решённой после выдачи кредита.
func (s *Storage) MarkLoanRequestSolved(ctx context.Context, id int) error {
	const op = "storage.MarkLoanRequestSolved"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE loan_requests SET status = $2 WHERE id = $1`, id, models.LoanRequestSolved)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrLoanRequestNotFound)
	}
	return nil
}
