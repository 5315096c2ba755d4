package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// Сигнальное значение "позиция открыта" в колонке amount_returned.
// Доменная модель его не видит: наружу отдаётся nil.
var openPositionSentinel = decimal.NewFromInt(-1)

func scanInvestment(row interface{ Scan(...any) error }) (*models.Investment, error) {
	var i models.Investment
	var invested, returned string
	if err := row.Scan(&i.ID, &i.InvestorCNP, &invested, &returned, &i.InvestmentDate); err != nil {
		return nil, err
	}
	parsedInvested, err := decimal.NewFromString(invested)
	if err != nil {
		return nil, err
	}
	parsedReturned, err := decimal.NewFromString(returned)
	if err != nil {
		return nil, err
	}
	i.AmountInvested = parsedInvested
	if !parsedReturned.Equal(openPositionSentinel) {
		i.AmountReturned = &parsedReturned
	}
	return &i, nil
}

// AddInvestment создаёт открытую позицию и возвращает её id.
func (s *Storage) AddInvestment(ctx context.Context, inv models.Investment) (int, error) {
	const op = "storage.AddInvestment"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO investments (investor_cnp, amount_invested, amount_returned, investment_date)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id`
	returned := openPositionSentinel
	if inv.AmountReturned != nil {
		returned = *inv.AmountReturned
	}
	var newID int
	err := s.DB.QueryRowContext(ctx, query,
		inv.InvestorCNP, inv.AmountInvested.String(), returned.String(),
		inv.InvestmentDate).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetInvestment возвращает позицию по id.
func (s *Storage) GetInvestment(ctx context.Context, id int) (*models.Investment, error) {
	const op = "storage.GetInvestment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, investor_cnp, amount_invested, amount_returned, investment_date
			  FROM investments WHERE id = $1`
	inv, err := scanInvestment(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvestmentNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return inv, nil
}

// ListInvestmentsByUser возвращает все позиции одного пользователя.
func (s *Storage) ListInvestmentsByUser(ctx context.Context, cnp string) ([]*models.Investment, error) {
	const op = "storage.ListInvestmentsByUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, investor_cnp, amount_invested, amount_returned, investment_date
			  FROM investments
			  WHERE investor_cnp = $1
			  ORDER BY investment_date`
	rows, err := s.DB.QueryContext(ctx, query, cnp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CloseInvestment закрывает открытую позицию, записывая реальный возврат.
// Условие amount_returned = -1 в WHERE — защита от повторной обработки:
// при конкурентных вызовах сработает ровно один UPDATE.
// Для уже закрытой позиции возвращает ErrInvestmentAlreadyClosed,
// для отсутствующей — ErrInvestmentNotFound.
func (s *Storage) CloseInvestment(ctx context.Context, id int, investorCNP string, amountReturned decimal.Decimal) error {
	const op = "storage.CloseInvestment"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if id <= 0 {
		return fmt.Errorf("%s: invalid investment id %d", op, id)
	}

	result, err := s.DB.ExecContext(ctx,
		`UPDATE investments
		 SET amount_returned = $3
		 WHERE id = $1 AND investor_cnp = $2 AND amount_returned = -1`,
		id, investorCNP, amountReturned.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		var exists bool
		err = s.DB.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM investments WHERE id = $1 AND investor_cnp = $2)`,
			id, investorCNP).Scan(&exists)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			return fmt.Errorf("%s: %w", op, ErrInvestmentAlreadyClosed)
		}
		return fmt.Errorf("%s: %w", op, ErrInvestmentNotFound)
	}
	return nil
}
