package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

// GetBillSplitReport возвращает отчёт о разделении счёта по id.
func (s *Storage) GetBillSplitReport(ctx context.Context, id int) (*models.BillSplitReport, error) {
	const op = "storage.GetBillSplitReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reported_user_cnp, reporting_user_cnp, date_of_transaction, bill_share
			  FROM bill_split_reports WHERE id = $1`
	var r models.BillSplitReport
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.ReportedUserCNP,
		&r.ReportingUserCNP, &r.DateOfTransaction, &r.BillShare)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// DeleteBillSplitReport удаляет отчёт после скоринга.
func (s *Storage) DeleteBillSplitReport(ctx context.Context, id int) error {
	const op = "storage.DeleteBillSplitReport"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM bill_split_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	return nil
}

// GetChatReport возвращает жалобу на поведение в чате по id.
func (s *Storage) GetChatReport(ctx context.Context, id int) (*models.ChatReport, error) {
	const op = "storage.GetChatReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, reported_user_cnp, submitter_cnp, reason
			  FROM chat_reports WHERE id = $1`
	var r models.ChatReport
	err := s.DB.QueryRowContext(ctx, query, id).Scan(&r.ID, &r.ReportedUserCNP,
		&r.SubmitterCNP, &r.Reason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrReportNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &r, nil
}

// DeleteChatReport удаляет обработанную жалобу.
func (s *Storage) DeleteChatReport(ctx context.Context, id int) error {
	const op = "storage.DeleteChatReport"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM chat_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrReportNotFound)
	}
	return nil
}
