package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

func TestStorage_GetUser(t *testing.T) {
	tests := []struct {
		name    string
		cnp     string
		wantErr error
		setup   func(t *testing.T, factory *TestDataFactory)
	}{
		{
			name: "successful get user",
			cnp:  "1990101123456",
			setup: func(t *testing.T, factory *TestDataFactory) {
				factory.CreateUser(t, "1990101123456", 500, 40, 3000)
			},
		},
		{
			name:    "user not found",
			cnp:     "0000000000000",
			wantErr: ErrUserNotFound,
			setup:   func(_ *testing.T, _ *TestDataFactory) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()
			factory := NewTestDataFactory(storage)
			tt.setup(t, factory)

			user, err := storage.GetUser(context.Background(), tt.cnp)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cnp, user.CNP)
			assert.Equal(t, 500, user.CreditScore)
			assert.Equal(t, 40, user.RiskScore)
			assert.Equal(t, 3000, user.Income)
			assert.True(t, user.ROI.Equal(decimal.NewFromInt(1)))
		})
	}
}

func TestStorage_UpdateCreditScore(t *testing.T) {
	tests := []struct {
		name    string
		cnp     string
		score   int
		wantErr error
	}{
		{
			name:  "successful update",
			cnp:   "1990101123456",
			score: 650,
		},
		{
			name:    "score above allowed range",
			cnp:     "1990101123456",
			score:   1500,
			wantErr: ErrScoreOutOfRange,
		},
		{
			name:    "negative score rejected",
			cnp:     "1990101123456",
			score:   -10,
			wantErr: ErrScoreOutOfRange,
		},
		{
			name:    "unknown user",
			cnp:     "0000000000000",
			score:   650,
			wantErr: ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, cleanup := setupTestDatabase(t)
			defer cleanup()
			factory := NewTestDataFactory(storage)
			factory.CreateUser(t, "1990101123456", 500, 40, 3000)

			err := storage.UpdateCreditScore(context.Background(), tt.cnp, tt.score)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			user, err := storage.GetUser(context.Background(), tt.cnp)
			require.NoError(t, err)
			assert.Equal(t, tt.score, user.CreditScore)
		})
	}
}

func TestStorage_UpdateRiskScore_RangeValidation(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	err := storage.UpdateRiskScore(context.Background(), "1990101123456", 0)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	err = storage.UpdateRiskScore(context.Background(), "1990101123456", 101)
	assert.ErrorIs(t, err, ErrScoreOutOfRange)

	err = storage.UpdateRiskScore(context.Background(), "1990101123456", 75)
	require.NoError(t, err)

	user, err := storage.GetUser(context.Background(), "1990101123456")
	require.NoError(t, err)
	assert.Equal(t, 75, user.RiskScore)
}

func TestStorage_ListUserCNPs(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)
	factory.CreateUser(t, "1850505654321", 300, 60, 1500)

	cnps, err := storage.ListUserCNPs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1850505654321", "1990101123456"}, cnps)
}

func TestStorage_LoanLifecycle(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	applicationDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	repaymentDate := applicationDate.AddDate(1, 0, 0)

	id, err := storage.CreateLoan(context.Background(), models.Loan{
		UserCNP:              "1990101123456",
		Amount:               1200,
		ApplicationDate:      applicationDate,
		RepaymentDate:        repaymentDate,
		InterestRate:         10,
		NumberOfMonths:       12,
		MonthlyPaymentAmount: 110,
		Status:               models.LoanStatusActive,
	})
	require.NoError(t, err)
	require.Greater(t, id, 0)

	err = storage.IncrementLoanPayment(context.Background(), id, 110)
	require.NoError(t, err)

	loan, err := storage.GetLoan(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, loan.MonthlyPaymentsCompleted)
	assert.InDelta(t, 110, loan.RepaidAmount, 0.001)
	assert.Equal(t, models.LoanStatusActive, loan.Status)

	err = storage.UpdateLoanState(context.Background(), id, models.LoanStatusOverdue, 11)
	require.NoError(t, err)

	loan, err = storage.GetLoan(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, loan.Status)
	assert.InDelta(t, 11, loan.Penalty, 0.001)

	err = storage.DeleteLoan(context.Background(), id)
	require.NoError(t, err)

	_, err = storage.GetLoan(context.Background(), id)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestStorage_LoanRequest(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	applicationDate := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	id := factory.CreateLoanRequest(t, "1990101123456", 2000,
		applicationDate, applicationDate.AddDate(0, 6, 0))

	request, err := storage.GetLoanRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "1990101123456", request.UserCNP)
	assert.InDelta(t, 2000, request.Amount, 0.001)

	err = storage.MarkLoanRequestSolved(context.Background(), id)
	require.NoError(t, err)

	request, err = storage.GetLoanRequest(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, models.LoanRequestSolved, request.Status)
}

func TestStorage_CloseInvestment(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	investmentDate := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	id := factory.CreateInvestment(t, "1990101123456",
		decimal.NewFromInt(100), nil, investmentDate)

	returned := decimal.NewFromFloat(125.5)
	err := storage.CloseInvestment(context.Background(), id, "1990101123456", returned)
	require.NoError(t, err)

	inv, err := storage.GetInvestment(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inv.AmountReturned)
	assert.True(t, inv.AmountReturned.Equal(returned))

	// Повторное закрытие той же позиции отклоняется
	err = storage.CloseInvestment(context.Background(), id, "1990101123456", returned)
	assert.ErrorIs(t, err, ErrInvestmentAlreadyClosed)

	err = storage.CloseInvestment(context.Background(), 99999, "1990101123456", returned)
	assert.ErrorIs(t, err, ErrInvestmentNotFound)
}

func TestStorage_ListInvestmentsByUser(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)
	factory.CreateUser(t, "1850505654321", 300, 60, 1500)

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	returned := decimal.NewFromInt(120)
	factory.CreateInvestment(t, "1990101123456", decimal.NewFromInt(100), &returned, base)
	factory.CreateInvestment(t, "1990101123456", decimal.NewFromInt(50), nil, base.AddDate(0, 0, 3))
	factory.CreateInvestment(t, "1850505654321", decimal.NewFromInt(200), nil, base)

	investments, err := storage.ListInvestmentsByUser(context.Background(), "1990101123456")
	require.NoError(t, err)
	require.Len(t, investments, 2)
	require.NotNil(t, investments[0].AmountReturned)
	assert.True(t, investments[0].AmountReturned.Equal(returned))
	assert.Nil(t, investments[1].AmountReturned)
}

func TestStorage_CreditScoreHistoryUpsert(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	day := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	err := storage.UpsertCreditScoreHistory(context.Background(), "1990101123456", day, 480)
	require.NoError(t, err)

	// Вторая запись за тот же день перезаписывает значение
	err = storage.UpsertCreditScoreHistory(context.Background(), "1990101123456", day.Add(2*time.Hour), 510)
	require.NoError(t, err)

	history, err := storage.ListCreditScoreHistory(context.Background(), "1990101123456")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 510, history[0].Score)
}

func TestStorage_BillSplitReports(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)
	factory.CreateUser(t, "1850505654321", 300, 60, 1500)

	transactionDate := time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
	id := factory.CreateBillSplitReport(t, "1990101123456", "1850505654321", transactionDate, 85.5)

	report, err := storage.GetBillSplitReport(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "1990101123456", report.ReportedUserCNP)
	assert.Equal(t, "1850505654321", report.ReportingUserCNP)
	assert.InDelta(t, 85.5, report.BillShare, 0.001)

	err = storage.DeleteBillSplitReport(context.Background(), id)
	require.NoError(t, err)

	_, err = storage.GetBillSplitReport(context.Background(), id)
	assert.ErrorIs(t, err, ErrReportNotFound)

	err = storage.DeleteBillSplitReport(context.Background(), id)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestStorage_ChatReports(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	id := factory.CreateChatReport(t, "1990101123456", "1850505654321", "spam in group chat")

	report, err := storage.GetChatReport(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "1990101123456", report.ReportedUserCNP)
	assert.Equal(t, "spam in group chat", report.Reason)

	err = storage.DeleteChatReport(context.Background(), id)
	require.NoError(t, err)

	_, err = storage.GetChatReport(context.Background(), id)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestStorage_ApplyGemPenalty(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	err := storage.ApplyGemPenalty(context.Background(), "1990101123456", 15)
	require.NoError(t, err)
	err = storage.ApplyGemPenalty(context.Background(), "1990101123456", 15)
	require.NoError(t, err)

	user, err := storage.GetUser(context.Background(), "1990101123456")
	require.NoError(t, err)
	assert.Equal(t, -30, user.GemBalance)
	assert.Equal(t, 2, user.NumberOfOffenses)
}

func TestStorage_Tips(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	err := storage.RecordTip(context.Background(), "1990101123456", "Откладывайте часть дохода каждый месяц")
	require.NoError(t, err)
	err = storage.RecordTip(context.Background(), "1990101123456", "Сравнивайте условия по кредитам")
	require.NoError(t, err)

	count, err := storage.CountTipsForUser(context.Background(), "1990101123456")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestStorage_Transactions(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	factory := NewTestDataFactory(storage)
	factory.CreateUser(t, "1990101123456", 500, 40, 3000)

	_, err := storage.DB.Exec(`INSERT INTO transactions (user_cnp, amount, transaction_date)
		VALUES ($1, 100, $2), ($1, -40, $3)`,
		"1990101123456",
		time.Now().AddDate(0, 0, -2),
		time.Now().AddDate(0, 0, -40))
	require.NoError(t, err)

	total, err := storage.SumTransactionsSince(context.Background(), "1990101123456",
		time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.InDelta(t, 100, total, 0.001)

	balance, err := storage.GetCurrentBalance(context.Background(), "1990101123456")
	require.NoError(t, err)
	assert.InDelta(t, 60, balance, 0.001)
}
