package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

type LoanRepoMock struct{ mock.Mock }

func (m *LoanRepoMock) GetLoanRequest(ctx context.Context, id int) (*models.LoanRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LoanRequest), args.Error(1)
}
func (m *LoanRepoMock) MarkLoanRequestSolved(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}
func (m *LoanRepoMock) CreateLoan(ctx context.Context, loan models.Loan) (int, error) {
	args := m.Called(ctx, loan)
	return args.Int(0), args.Error(1)
}
func (m *LoanRepoMock) GetLoan(ctx context.Context, id int) (*models.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Loan), args.Error(1)
}
func (m *LoanRepoMock) ListAllLoans(ctx context.Context) ([]*models.Loan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Loan), args.Error(1)
}
func (m *LoanRepoMock) ListLoansByUser(ctx context.Context, cnp string) ([]*models.Loan, error) {
	args := m.Called(ctx, cnp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Loan), args.Error(1)
}
func (m *LoanRepoMock) UpdateLoanState(ctx context.Context, id int, status models.LoanStatus, penalty float64) error {
	return m.Called(ctx, id, status, penalty).Error(0)
}
func (m *LoanRepoMock) IncrementLoanPayment(ctx context.Context, id int, paid float64) error {
	return m.Called(ctx, id, paid).Error(0)
}
func (m *LoanRepoMock) DeleteLoan(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) GetUser(ctx context.Context, cnp string) (*models.User, error) {
	args := m.Called(ctx, cnp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}
func (m *UserRepoMock) UpdateCreditScore(ctx context.Context, cnp string, score int) error {
	return m.Called(ctx, cnp, score).Error(0)
}

type HistoryMock struct{ mock.Mock }

func (m *HistoryMock) UpsertCreditScoreHistory(ctx context.Context, cnp string, date time.Time, score int) error {
	return m.Called(ctx, cnp, date, score).Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoanService_AddLoan(t *testing.T) {
	app := date(2025, time.January, 15)
	repay := date(2026, time.January, 15)

	tests := []struct {
		name       string
		setupMocks func(l *LoanRepoMock, u *UserRepoMock)
		wantID     int
		wantErr    bool
	}{
		{
			name: "success: interest 10, monthly payment 110",
			setupMocks: func(l *LoanRepoMock, u *UserRepoMock) {
				l.On("GetLoanRequest", mock.Anything, 7).Return(&models.LoanRequest{
					ID: 7, UserCNP: "1980101223344", Amount: 1200,
					ApplicationDate: app, RepaymentDate: repay,
				}, nil).Once()
				u.On("GetUser", mock.Anything, "1980101223344").Return(&models.User{
					CNP: "1980101223344", CreditScore: 500, RiskScore: 50,
				}, nil).Once()
				l.On("CreateLoan", mock.Anything, mock.MatchedBy(func(loan models.Loan) bool {
					return loan.NumberOfMonths == 12 &&
						loan.InterestRate == 10 &&
						loan.MonthlyPaymentAmount == 110 &&
						loan.Status == models.LoanStatusActive &&
						loan.MonthlyPaymentsCompleted == 0
				})).Return(42, nil).Once()
				l.On("MarkLoanRequestSolved", mock.Anything, 7).Return(nil).Once()
			},
			wantID: 42,
		},
		{
			name: "request already solved",
			setupMocks: func(l *LoanRepoMock, _ *UserRepoMock) {
				l.On("GetLoanRequest", mock.Anything, 7).Return(&models.LoanRequest{
					ID: 7, Status: models.LoanRequestSolved,
				}, nil).Once()
			},
			wantErr: true,
		},
		{
			name: "user not found",
			setupMocks: func(l *LoanRepoMock, u *UserRepoMock) {
				l.On("GetLoanRequest", mock.Anything, 7).Return(&models.LoanRequest{
					ID: 7, UserCNP: "missing", Amount: 1200,
					ApplicationDate: app, RepaymentDate: repay,
				}, nil).Once()
				u.On("GetUser", mock.Anything, "missing").Return(nil, errors.New("user not found")).Once()
			},
			wantErr: true,
		},
		{
			name: "zero months rejected",
			setupMocks: func(l *LoanRepoMock, u *UserRepoMock) {
				l.On("GetLoanRequest", mock.Anything, 7).Return(&models.LoanRequest{
					ID: 7, UserCNP: "1980101223344", Amount: 1200,
					ApplicationDate: app, RepaymentDate: app.AddDate(0, 0, 10),
				}, nil).Once()
				u.On("GetUser", mock.Anything, "1980101223344").Return(&models.User{
					CNP: "1980101223344", CreditScore: 500, RiskScore: 50,
				}, nil).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := new(LoanRepoMock)
			userRepo := new(UserRepoMock)
			history := new(HistoryMock)
			tt.setupMocks(loanRepo, userRepo)

			svc := NewLoanService(loanRepo, userRepo, history, nil, newNoopLogger())
			id, err := svc.AddLoan(context.Background(), 7)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			loanRepo.AssertExpectations(t)
			userRepo.AssertExpectations(t)
		})
	}
}

func TestLoanService_CheckLoans_CompletesAndDeletes(t *testing.T) {
	loanRepo := new(LoanRepoMock)
	userRepo := new(UserRepoMock)
	history := new(HistoryMock)

	today := date(2025, time.June, 1)
	loan := &models.Loan{
		ID: 1, UserCNP: "1980101223344", Amount: 1200,
		ApplicationDate: date(2025, time.January, 1), RepaymentDate: date(2026, time.January, 1),
		NumberOfMonths: 5, MonthlyPaymentsCompleted: 5,
		Status: models.LoanStatusActive,
	}
	loanRepo.On("ListAllLoans", mock.Anything).Return([]*models.Loan{loan}, nil).Once()
	userRepo.On("GetUser", mock.Anything, "1980101223344").Return(&models.User{
		CNP: "1980101223344", CreditScore: 500,
	}, nil).Once()
	userRepo.On("UpdateCreditScore", mock.Anything, "1980101223344", 520).Return(nil).Once()
	loanRepo.On("DeleteLoan", mock.Anything, 1).Return(nil).Once()

	svc := NewLoanService(loanRepo, userRepo, history, nil, newNoopLogger())
	svc.now = func() time.Time { return today }

	report, err := svc.CheckLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Completed)
	assert.Equal(t, 0, report.Failed)
	loanRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	history.AssertNotCalled(t, "UpsertCreditScoreHistory", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoanService_CheckLoans_MarksOverdueWithPenalty(t *testing.T) {
	loanRepo := new(LoanRepoMock)
	userRepo := new(UserRepoMock)
	history := new(HistoryMock)

	// Кредит просрочен: дата погашения прошла, платежи отстают на 10 дней
	today := date(2025, time.March, 11)
	loan := &models.Loan{
		ID: 2, UserCNP: "1980101223344", Amount: 1200,
		ApplicationDate: date(2025, time.January, 1), RepaymentDate: date(2025, time.March, 1),
		NumberOfMonths: 2, MonthlyPaymentsCompleted: 1,
		Status: models.LoanStatusActive,
	}
	loanRepo.On("ListAllLoans", mock.Anything).Return([]*models.Loan{loan}, nil).Once()
	userRepo.On("GetUser", mock.Anything, "1980101223344").Return(&models.User{
		CNP: "1980101223344", CreditScore: 500,
	}, nil).Once()
	userRepo.On("UpdateCreditScore", mock.Anything, "1980101223344", 450).Return(nil).Once()
	history.On("UpsertCreditScoreHistory", mock.Anything, "1980101223344", today, 450).Return(nil).Once()
	// overdueDays = 11 марта - (1 января + 1 месяц) = 38 дней, penalty = 3.8
	loanRepo.On("UpdateLoanState", mock.Anything, 2, models.LoanStatusOverdue, 3.8000000000000003).Return(nil).Once()

	svc := NewLoanService(loanRepo, userRepo, history, nil, newNoopLogger())
	svc.now = func() time.Time { return today }

	report, err := svc.CheckLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Overdue)
	loanRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
	history.AssertExpectations(t)
}

func TestLoanService_CheckLoans_IsolatesFailures(t *testing.T) {
	loanRepo := new(LoanRepoMock)
	userRepo := new(UserRepoMock)
	history := new(HistoryMock)

	today := date(2025, time.June, 1)
	bad := &models.Loan{
		ID: 1, UserCNP: "missing",
		ApplicationDate: date(2025, time.January, 1), RepaymentDate: date(2026, time.January, 1),
		NumberOfMonths: 5, MonthlyPaymentsCompleted: 5,
		Status: models.LoanStatusActive,
	}
	good := &models.Loan{
		ID: 2, UserCNP: "1980101223344",
		ApplicationDate: date(2025, time.May, 1), RepaymentDate: date(2026, time.May, 1),
		NumberOfMonths: 12, MonthlyPaymentsCompleted: 1,
		Status: models.LoanStatusActive,
	}
	loanRepo.On("ListAllLoans", mock.Anything).Return([]*models.Loan{bad, good}, nil).Once()
	userRepo.On("GetUser", mock.Anything, "missing").Return(nil, errors.New("user not found")).Once()
	loanRepo.On("UpdateLoanState", mock.Anything, 2, models.LoanStatusActive, 0.0).Return(nil).Once()

	svc := NewLoanService(loanRepo, userRepo, history, nil, newNoopLogger())
	svc.now = func() time.Time { return today }

	report, err := svc.CheckLoans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "1", report.Errors[0].Key)
	loanRepo.AssertExpectations(t)
}

func TestLoanService_IncrementMonthlyPaymentsCompleted(t *testing.T) {
	loanRepo := new(LoanRepoMock)
	userRepo := new(UserRepoMock)
	history := new(HistoryMock)

	loanRepo.On("GetLoan", mock.Anything, 5).Return(&models.Loan{
		ID: 5, MonthlyPaymentAmount: 110,
	}, nil).Once()
	loanRepo.On("IncrementLoanPayment", mock.Anything, 5, 115.5).Return(nil).Once()

	svc := NewLoanService(loanRepo, userRepo, history, nil, newNoopLogger())
	err := svc.IncrementMonthlyPaymentsCompleted(context.Background(), 5, 5.5)
	require.NoError(t, err)
	loanRepo.AssertExpectations(t)
}

func TestDefaultCreditScoreCalculator(t *testing.T) {
	user := &models.User{CreditScore: 500}

	completedClean := &models.Loan{Status: models.LoanStatusCompleted, Penalty: 0}
	assert.Equal(t, 520, DefaultCreditScoreCalculator(user, completedClean))

	completedPenalized := &models.Loan{Status: models.LoanStatusCompleted, Penalty: 30}
	assert.Equal(t, 470, DefaultCreditScoreCalculator(user, completedPenalized))

	overdue := &models.Loan{Status: models.LoanStatusOverdue}
	assert.Equal(t, 450, DefaultCreditScoreCalculator(user, overdue))

	low := &models.User{CreditScore: 110}
	assert.Equal(t, 100, DefaultCreditScoreCalculator(low, overdue))
}
