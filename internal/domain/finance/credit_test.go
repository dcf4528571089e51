package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestCredit(t *testing.T) *Credit {
	c, err := NewCredit(uuid.New(), decimal.NewFromInt(1000))
	require.NoError(t, err)
	return c
}

func TestNewCredit(t *testing.T) {
	c := createTestCredit(t)

	assert.True(t, c.AmountRemaining.Equal(decimal.NewFromInt(1000)))
	assert.True(t, c.AmountPaid.IsZero())
	assert.False(t, c.Closed)
	assert.True(t, c.IsFirstCheckpoint())
}

func TestNewCredit_InvalidTotal(t *testing.T) {
	_, err := NewCredit(uuid.New(), decimal.Zero)
	assert.Error(t, err)
}

func TestCredit_RegisterPayment(t *testing.T) {
	c := createTestCredit(t)

	op, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)

	assert.Equal(t, OperationPayment, op.Type)
	assert.True(t, c.AmountPaid.Equal(decimal.NewFromInt(400)))
	assert.True(t, c.AmountRemaining.Equal(decimal.NewFromInt(600)))
	assert.True(t, c.AmountLastPayment.Equal(decimal.NewFromInt(400)))
	assert.False(t, c.Closed)
}

func TestCredit_RegisterPayment_ClosesPlan(t *testing.T) {
	c := createTestCredit(t)
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)

	op, err := c.RegisterPayment(decimal.NewFromInt(600), time.Now())
	require.NoError(t, err)

	assert.Equal(t, OperationFullPayment, op.Type)
	assert.True(t, c.Closed)
	assert.True(t, c.IsFullyPaid())
	assert.True(t, c.HasFullPayment())
}

func TestCredit_RegisterPayment_OverpaymentCloses(t *testing.T) {
	c := createTestCredit(t)

	op, err := c.RegisterPayment(decimal.NewFromInt(1200), time.Now())
	require.NoError(t, err)

	assert.Equal(t, OperationFullPayment, op.Type)
	assert.True(t, c.AmountRemaining.Equal(decimal.NewFromInt(-200)))
	assert.True(t, c.Closed)
}

func TestCredit_RegisterPayment_OnClosedPlan(t *testing.T) {
	c := createTestCredit(t)
	_, err := c.RegisterPayment(decimal.NewFromInt(1000), time.Now())
	require.NoError(t, err)

	_, err = c.RegisterPayment(decimal.NewFromInt(100), time.Now())
	assert.Error(t, err)
}

func TestCredit_RegisterRefund(t *testing.T) {
	c := createTestCredit(t)
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)

	op, err := c.RegisterRefund(decimal.NewFromInt(100), false, time.Now())
	require.NoError(t, err)

	assert.Equal(t, OperationRefund, op.Type)
	assert.True(t, c.AmountPaid.Equal(decimal.NewFromInt(300)))
	assert.True(t, c.AmountLastPayment.Equal(decimal.NewFromInt(-100)))
	assert.True(t, c.NormalizedLastPayment().Equal(decimal.NewFromInt(100)))
	assert.False(t, c.LastRefundIsFull())
}

func TestCredit_RegisterRefund_Full(t *testing.T) {
	c := createTestCredit(t)
	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)

	op, err := c.RegisterRefund(decimal.NewFromInt(400), true, time.Now())
	require.NoError(t, err)

	assert.Equal(t, OperationRefundFullPaid, op.Type)
	assert.True(t, c.Closed)
	assert.True(t, c.LastRefundIsFull())
}

func TestCredit_Recalculate(t *testing.T) {
	c := createTestCredit(t)

	require.NoError(t, c.Recalculate(decimal.NewFromInt(1200), decimal.NewFromInt(1200)))

	assert.True(t, c.AmountRemaining.IsZero())
	assert.True(t, c.Closed)
}

func TestCredit_LastOperation(t *testing.T) {
	c := createTestCredit(t)
	assert.Nil(t, c.LastOperation())

	_, err := c.RegisterPayment(decimal.NewFromInt(400), time.Now())
	require.NoError(t, err)
	_, err = c.RegisterRefund(decimal.NewFromInt(100), false, time.Now())
	require.NoError(t, err)

	last := c.LastOperation()
	require.NotNil(t, last)
	assert.Equal(t, OperationRefund, last.Type)
}
