package receipt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
)

func testCredit(t *testing.T, total decimal.Decimal) *finance.Credit {
	c, err := finance.NewCredit(uuid.New(), total)
	require.NoError(t, err)
	return c
}

// ============================================
// PaymentTiming Tests
// ============================================

func TestPaymentTiming(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.AddDate(0, 1, 0)
	past := now.AddDate(0, -1, 0)

	tests := []struct {
		name         string
		category     deal.Category
		scheme       finance.SchemeWork
		serviceStart time.Time
		want         StrategyType
	}{
		{"momentary category before service", deal.CategoryAvia, finance.SchemeProvisionServices, future, StrategyFullPayment},
		{"momentary scheme before service", deal.CategoryTour, finance.SchemeLRSupplierAgent, future, StrategyFullPayment},
		{"rs tls scheme before service", deal.CategoryTour, finance.SchemeRSTLSServiceFee, future, StrategyFullPayment},
		{"tour before service start", deal.CategoryTour, finance.SchemeProvisionServices, future, StrategyPrepayment},
		{"cruise before service start", deal.CategoryCruise, finance.SchemeSRSupplierAgent, future, StrategyPrepayment},
		{"tour after service start", deal.CategoryTour, finance.SchemeProvisionServices, past, StrategyFullPayment},
		{"tour exactly at service start", deal.CategoryTour, finance.SchemeProvisionServices, now, StrategyFullPayment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PaymentTiming(tt.category, tt.scheme, tt.serviceStart, now)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ============================================
// PartialOverride Tests
// ============================================

func TestPartialOverride(t *testing.T) {
	tests := []struct {
		name     string
		paid     decimal.Decimal
		price    decimal.Decimal
		want     StrategyType
		override bool
	}{
		{"exact payment", decimal.NewFromInt(1000), decimal.NewFromInt(1000), "", false},
		{"sub unit drift ignored", decimal.NewFromFloat(999.7), decimal.NewFromFloat(1000.2), "", false},
		{"short payment", decimal.NewFromInt(400), decimal.NewFromInt(1000), StrategyCredit, true},
		{"overpayment", decimal.NewFromInt(1200), decimal.NewFromInt(1000), StrategyCredit, true},
		{"nothing paid", decimal.Zero, decimal.NewFromInt(1000), StrategyCreditTransfer, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, override := PartialOverride(tt.paid, tt.price)
			assert.Equal(t, tt.override, override)
			assert.Equal(t, tt.want, got)
		})
	}
}

// ============================================
// CreditCheckpoint Tests
// ============================================

func TestCreditCheckpoint_FreshPlan(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))

	assert.Equal(t, StrategyCreditTransfer, CreditCheckpoint(c))
}

func TestCreditCheckpoint_PartiallyPaid(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)

	assert.Equal(t, StrategyCredit, CreditCheckpoint(c))
}

func TestCreditCheckpoint_FullyPaid(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))
	_, err := c.RegisterPayment(decimal.NewFromInt(1000), time.Now())
	require.NoError(t, err)

	assert.Equal(t, StrategyCreditFull, CreditCheckpoint(c))
}

// ============================================
// CreditRefundCheckpoint Tests
// ============================================

func TestCreditRefundCheckpoint_PointFunded(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))

	assert.Equal(t, StrategyCreditRefundTransfer, CreditRefundCheckpoint(c, true))
}

func TestCreditRefundCheckpoint_AfterFullPayment(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))
	_, err := c.RegisterPayment(decimal.NewFromInt(1000), time.Now())
	require.NoError(t, err)
	_, err = c.RegisterRefund(decimal.NewFromInt(300), false, time.Now())
	require.NoError(t, err)

	assert.Equal(t, StrategyCreditRefundFull, CreditRefundCheckpoint(c, false))
}

func TestCreditRefundCheckpoint_LastRefundIsFull(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)
	_, err = c.RegisterRefund(decimal.NewFromInt(400), true, time.Now())
	require.NoError(t, err)

	assert.Equal(t, StrategyCreditRefundFull, CreditRefundCheckpoint(c, false))
}

func TestCreditRefundCheckpoint_PartialRefund(t *testing.T) {
	c := testCredit(t, decimal.NewFromInt(1000))
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)
	_, err = c.RegisterRefund(decimal.NewFromInt(100), false, time.Now())
	require.NoError(t, err)

	assert.Equal(t, StrategyCreditRefund, CreditRefundCheckpoint(c, false))
}

// ============================================
// Builder Tests
// ============================================

func TestBuilder_Build(t *testing.T) {
	opts := Options{DealID: uuid.New(), TotalAmount: decimal.NewFromInt(500)}

	s, err := NewBuilder(StrategyFullPayment, KindService).WithOptions(opts).Build()
	require.NoError(t, err)

	assert.Equal(t, StrategyFullPayment, s.Type)
	assert.Equal(t, KindService, s.Kind)
	assert.Equal(t, TypeIncome, s.ReceiptType)
	assert.False(t, s.Preview)
}

func TestBuilder_RefundSideGetsReturnType(t *testing.T) {
	opts := Options{DealID: uuid.New()}

	s, err := NewBuilder(StrategyCreditRefund, KindService).WithOptions(opts).Build()
	require.NoError(t, err)

	assert.Equal(t, TypeReturn, s.ReceiptType)
}

func TestBuilder_MissingDeal(t *testing.T) {
	_, err := NewBuilder(StrategyFullPayment, KindService).Build()
	assert.Error(t, err)
}

func TestBuilder_CopySemantics(t *testing.T) {
	opts := Options{DealID: uuid.New()}
	base := NewBuilder(StrategyCredit, KindService).WithOptions(opts)

	preview := base.AsPreview()
	real, err := base.Build()
	require.NoError(t, err)
	previewed, err := preview.Build()
	require.NoError(t, err)

	assert.False(t, real.Preview)
	assert.True(t, previewed.Preview)
}

func TestBuilder_WithCreditAmounts(t *testing.T) {
	opts := Options{DealID: uuid.New()}

	s, err := NewBuilder(StrategyCredit, KindService).
		WithOptions(opts).
		WithCreditAmounts(decimal.NewFromInt(400), decimal.NewFromInt(100)).
		Build()
	require.NoError(t, err)

	assert.True(t, s.PreCreditAdvance.Equal(decimal.NewFromInt(400)))
	assert.True(t, s.PartialCredit.Equal(decimal.NewFromInt(100)))
}

// ============================================
// StrategyType Tests
// ============================================

func TestStrategyType_IsRefundSide(t *testing.T) {
	tests := []struct {
		strategy StrategyType
		refund   bool
	}{
		{StrategyFullPayment, false},
		{StrategyPrepayment, false},
		{StrategyCredit, false},
		{StrategyCreditFull, false},
		{StrategyCreditRefund, true},
		{StrategyCreditRefundFull, true},
		{StrategyCreditRefundTransfer, true},
		{StrategyRefund, true},
		{StrategyRefundAdvance, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			assert.Equal(t, tt.refund, tt.strategy.IsRefundSide())
		})
	}
}
