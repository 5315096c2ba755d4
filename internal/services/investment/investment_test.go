package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/credit-risk-engine/internal/models"
)

type InvestmentRepoMock struct {
	mock.Mock
}

func (m *InvestmentRepoMock) ListInvestmentsByUser(ctx context.Context, cnp string) ([]*models.Investment, error) {
	args := m.Called(ctx, cnp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Investment), args.Error(1)
}

func (m *InvestmentRepoMock) CloseInvestment(ctx context.Context, id int, investorCNP string, amountReturned decimal.Decimal) error {
	args := m.Called(ctx, id, investorCNP, amountReturned)
	return args.Error(0)
}

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) GetUser(ctx context.Context, cnp string) (*models.User, error) {
	args := m.Called(ctx, cnp)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) ListUserCNPs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *UserRepoMock) UpdateRiskScore(ctx context.Context, cnp string, riskScore int) error {
	args := m.Called(ctx, cnp, riskScore)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateROI(ctx context.Context, cnp string, roi decimal.Decimal) error {
	args := m.Called(ctx, cnp, roi)
	return args.Error(0)
}

func (m *UserRepoMock) UpdateCreditScore(ctx context.Context, cnp string, score int) error {
	args := m.Called(ctx, cnp, score)
	return args.Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(key string, result any) (bool, error) {
	args := m.Called(key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(key string, value any, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func closedInvestment(date time.Time, invested, returned float64) *models.Investment {
	return &models.Investment{
		InvestorCNP:    "1960101123456",
		AmountInvested: decimal.NewFromFloat(invested),
		AmountReturned: decPtr(returned),
		InvestmentDate: date,
	}
}

func openInvestment(date time.Time, invested float64) *models.Investment {
	return &models.Investment{
		InvestorCNP:    "1960101123456",
		AmountInvested: decimal.NewFromFloat(invested),
		InvestmentDate: date,
	}
}

func TestRiskScoreChange(t *testing.T) {
	day := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		investments []*models.Investment
		income      int
		want        int
	}{
		{
			name: "loss heavy week raises risk",
			// lossRate 2/3 поднимает рейтинг на 5 за каждую сделку окна,
			// один торговый день и малая доля дохода снимают по 5.
			investments: []*models.Investment{
				closedInvestment(day, 200, 100),
				closedInvestment(day, 200, 150),
				closedInvestment(day, 200, 300),
			},
			income: 10000,
			want:   3*riskStep - riskStep - riskStep,
		},
		{
			name: "profitable trader lowers risk",
			investments: []*models.Investment{
				closedInvestment(day, 100, 150),
				closedInvestment(day, 100, 120),
			},
			income: 1000,
			want:   -2*riskStep - riskStep,
		},
		{
			name: "heavy invested ratio raises risk",
			investments: []*models.Investment{
				closedInvestment(day, 400, 500),
			},
			income: 1000,
			want:   -riskStep - riskStep + riskStep,
		},
		{
			name: "open positions only",
			investments: []*models.Investment{
				openInvestment(day, 50),
			},
			income: 10000,
			want:   -riskStep - riskStep,
		},
		{
			name: "older trades fall outside the window",
			investments: []*models.Investment{
				closedInvestment(day, 100, 50),
				closedInvestment(day.AddDate(0, 0, -30), 5000, 100),
			},
			income: 10000,
			want:   1*riskStep - riskStep - riskStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RiskScoreChange(tt.investments, tt.income))
		})
	}
}

func TestComputeROI(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("no closed positions", func(t *testing.T) {
		roi := ComputeROI([]*models.Investment{openInvestment(day, 100)})
		assert.True(t, roi.Equal(decimal.NewFromInt(1)))
	})

	t.Run("empty history", func(t *testing.T) {
		roi := ComputeROI(nil)
		assert.True(t, roi.Equal(decimal.NewFromInt(1)))
	})

	t.Run("returned over invested", func(t *testing.T) {
		roi := ComputeROI([]*models.Investment{
			closedInvestment(day, 100, 150),
			closedInvestment(day, 100, 100),
			openInvestment(day, 9999),
		})
		assert.True(t, roi.Equal(decimal.NewFromFloat(1.25)), "got %s", roi)
	})
}

func TestInvestmentCreditScore(t *testing.T) {
	tests := []struct {
		name        string
		creditScore int
		riskScore   int
		roi         decimal.Decimal
		want        int
	}{
		{"profitable roi adds floor of tenfold", 500, 20, decimal.NewFromFloat(1.5), 415},
		{"zero roi costs a flat hundred", 500, 20, decimal.Zero, 300},
		{"losing roi costs inverse penalty", 500, 20, decimal.NewFromFloat(0.5), 380},
		{"clamped to lower bound", 120, 50, decimal.NewFromInt(1), 100},
		{"clamped to upper bound", 700, 1, decimal.NewFromInt(3), 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InvestmentCreditScore(tt.creditScore, tt.riskScore, tt.roi))
		})
	}
}

func TestInvestmentService_CalculateAndUpdateRiskScore_IsolatesFailures(t *testing.T) {
	ctx := context.Background()
	invRepo := new(InvestmentRepoMock)
	userRepo := new(UserRepoMock)
	cache := new(CacheMock)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	userRepo.On("ListUserCNPs", ctx).Return([]string{"1111", "2222", "3333"}, nil)

	invRepo.On("ListInvestmentsByUser", ctx, "1111").Return(nil, errors.New("connection reset"))

	// lossRate 1 и один торговый день: +5 -5, доход не задан.
	invRepo.On("ListInvestmentsByUser", ctx, "2222").Return([]*models.Investment{
		closedInvestment(day, 100, 50),
	}, nil)
	userRepo.On("GetUser", ctx, "2222").Return(&models.User{CNP: "2222", RiskScore: 40}, nil)
	userRepo.On("UpdateRiskScore", ctx, "2222", 40).Maybe().Return(nil)

	invRepo.On("ListInvestmentsByUser", ctx, "3333").Return([]*models.Investment{}, nil)

	svc := NewInvestmentService(invRepo, userRepo, cache, newNoopLogger())
	report, err := svc.CalculateAndUpdateRiskScore(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "1111", report.Errors[0].Key)
	invRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestInvestmentService_CalculateAndUpdateRiskScore_ClampsToFloor(t *testing.T) {
	ctx := context.Background()
	invRepo := new(InvestmentRepoMock)
	userRepo := new(UserRepoMock)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	userRepo.On("ListUserCNPs", ctx).Return([]string{"2222"}, nil)
	invRepo.On("ListInvestmentsByUser", ctx, "2222").Return([]*models.Investment{
		closedInvestment(day, 100, 200),
		closedInvestment(day, 100, 150),
	}, nil)
	// -10 за прибыльные сделки и -5 за низкую активность уводят рейтинг ниже 1.
	userRepo.On("GetUser", ctx, "2222").Return(&models.User{CNP: "2222", RiskScore: 10, Income: 1000}, nil)
	userRepo.On("UpdateRiskScore", ctx, "2222", 1).Return(nil)

	svc := NewInvestmentService(invRepo, userRepo, new(CacheMock), newNoopLogger())
	report, err := svc.CalculateAndUpdateRiskScore(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	userRepo.AssertExpectations(t)
}

func TestInvestmentService_CalculateAndUpdateROI(t *testing.T) {
	ctx := context.Background()
	invRepo := new(InvestmentRepoMock)
	userRepo := new(UserRepoMock)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	userRepo.On("ListUserCNPs", ctx).Return([]string{"2222"}, nil)
	invRepo.On("ListInvestmentsByUser", ctx, "2222").Return([]*models.Investment{
		closedInvestment(day, 100, 150),
		closedInvestment(day, 100, 100),
	}, nil)
	userRepo.On("UpdateROI", ctx, "2222", mock.MatchedBy(func(roi decimal.Decimal) bool {
		return roi.Equal(decimal.NewFromFloat(1.25))
	})).Return(nil)

	svc := NewInvestmentService(invRepo, userRepo, new(CacheMock), newNoopLogger())
	report, err := svc.CalculateAndUpdateROI(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	userRepo.AssertExpectations(t)
}

func TestInvestmentService_CreditScoreUpdateInvestmentsBased(t *testing.T) {
	ctx := context.Background()
	userRepo := new(UserRepoMock)

	userRepo.On("ListUserCNPs", ctx).Return([]string{"2222"}, nil)
	userRepo.On("GetUser", ctx, "2222").Return(&models.User{
		CNP:         "2222",
		CreditScore: 500,
		RiskScore:   20,
		ROI:         decimal.NewFromFloat(1.5),
	}, nil)
	userRepo.On("UpdateCreditScore", ctx, "2222", 415).Return(nil)

	svc := NewInvestmentService(new(InvestmentRepoMock), userRepo, new(CacheMock), newNoopLogger())
	report, err := svc.CreditScoreUpdateInvestmentsBased(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	userRepo.AssertExpectations(t)
}

func TestInvestmentService_CloseInvestment(t *testing.T) {
	ctx := context.Background()
	invRepo := new(InvestmentRepoMock)
	cache := new(CacheMock)

	amount := decimal.NewFromFloat(250.50)
	invRepo.On("CloseInvestment", ctx, 7, "2222", amount).Return(nil)
	cache.On("Invalidate", portfolioCacheKey).Return(nil)

	svc := NewInvestmentService(invRepo, new(UserRepoMock), cache, newNoopLogger())
	err := svc.CloseInvestment(ctx, 7, "2222", amount)

	require.NoError(t, err)
	invRepo.AssertExpectations(t)
	cache.AssertExpectations(t)
}

func TestInvestmentService_CloseInvestment_RejectsNegativeAmount(t *testing.T) {
	svc := NewInvestmentService(new(InvestmentRepoMock), new(UserRepoMock), new(CacheMock), newNoopLogger())
	err := svc.CloseInvestment(context.Background(), 7, "2222", decimal.NewFromInt(-5))
	require.Error(t, err)
}

func TestInvestmentService_GetPortfolioSummary(t *testing.T) {
	ctx := context.Background()
	invRepo := new(InvestmentRepoMock)
	userRepo := new(UserRepoMock)
	cache := new(CacheMock)

	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	cache.On("Get", portfolioCacheKey, mock.Anything).Return(false, nil)
	userRepo.On("ListUserCNPs", ctx).Return([]string{"1111", "2222"}, nil)
	invRepo.On("ListInvestmentsByUser", ctx, "1111").Return([]*models.Investment{}, nil)
	invRepo.On("ListInvestmentsByUser", ctx, "2222").Return([]*models.Investment{
		closedInvestment(day, 100, 150),
		openInvestment(day, 50),
	}, nil)
	userRepo.On("GetUser", ctx, "2222").Return(&models.User{
		CNP:       "2222",
		FirstName: "Ana",
		LastName:  "Popescu",
		RiskScore: 30,
	}, nil)
	cache.On("Set", portfolioCacheKey, mock.Anything, portfolioCacheTTL).Return(nil)

	svc := NewInvestmentService(invRepo, userRepo, cache, newNoopLogger())
	summary, err := svc.GetPortfolioSummary(ctx)

	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "Ana Popescu", summary[0].FullName)
	assert.Equal(t, 30, summary[0].RiskScore)
	assert.True(t, summary[0].TotalInvested.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary[0].TotalReturned.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary[0].AverageROI.Equal(decimal.NewFromInt(1)))
	cache.AssertExpectations(t)
}
