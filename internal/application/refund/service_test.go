package refund

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/travelcrm/backend/internal/application/payment"
	receiptapp "github.com/travelcrm/backend/internal/application/receipt"
	"github.com/travelcrm/backend/internal/domain/deal"
	"github.com/travelcrm/backend/internal/domain/finance"
	"github.com/travelcrm/backend/internal/domain/refund"
)

// =============================================================================
// Mocks
// =============================================================================

type MockCards struct {
	mock.Mock
}

func (m *MockCards) Save(ctx context.Context, rc *refund.RefundCard) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

func (m *MockCards) FindByID(ctx context.Context, id uuid.UUID) (*refund.RefundCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*refund.RefundCard), args.Error(1)
}

func (m *MockCards) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*refund.RefundCard, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*refund.RefundCard), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Append(ctx context.Context, t *finance.PaymentTransaction) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockLedger) SumIncoming(ctx context.Context, dealID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, dealID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockLedger) LastPointPayment(ctx context.Context, dealID uuid.UUID) (*finance.PaymentTransaction, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PaymentTransaction), args.Error(1)
}

func (m *MockLedger) FindSuccessIncomingSince(ctx context.Context, dealID uuid.UUID, since time.Time) ([]*finance.PaymentTransaction, error) {
	args := m.Called(ctx, dealID, since)
	return args.Get(0).([]*finance.PaymentTransaction), args.Error(1)
}

func (m *MockLedger) HasPointPayments(ctx context.Context, dealID uuid.UUID) (bool, error) {
	args := m.Called(ctx, dealID)
	return args.Bool(0), args.Error(1)
}

func (m *MockLedger) FindByID(ctx context.Context, id uuid.UUID) (*finance.PaymentTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.PaymentTransaction), args.Error(1)
}

type MockEntries struct {
	mock.Mock
}

func (m *MockEntries) Create(ctx context.Context, e *finance.AccountingEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEntries) Exists(ctx context.Context, dealID uuid.UUID, entryType finance.EntryType) (bool, error) {
	args := m.Called(ctx, dealID, entryType)
	return args.Bool(0), args.Error(1)
}

type MockFinancialCards struct {
	mock.Mock
}

func (m *MockFinancialCards) Save(ctx context.Context, fc *finance.FinancialCard) error {
	args := m.Called(ctx, fc)
	return args.Error(0)
}

func (m *MockFinancialCards) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*finance.FinancialCard, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinancialCard), args.Error(1)
}

func (m *MockFinancialCards) FindByID(ctx context.Context, id uuid.UUID) (*finance.FinancialCard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.FinancialCard), args.Error(1)
}

type MockCredits struct {
	mock.Mock
}

func (m *MockCredits) Save(ctx context.Context, c *finance.Credit) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCredits) FindActiveByDeal(ctx context.Context, dealID uuid.UUID) (*finance.Credit, error) {
	args := m.Called(ctx, dealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Credit), args.Error(1)
}

func (m *MockCredits) FindByID(ctx context.Context, id uuid.UUID) (*finance.Credit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Credit), args.Error(1)
}

type MockDealStore struct {
	mock.Mock
}

func (m *MockDealStore) GetDeal(ctx context.Context, id uuid.UUID) (*deal.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*deal.Deal), args.Error(1)
}

func (m *MockDealStore) UpdateDealStage(ctx context.Context, id uuid.UUID, stageID string) error {
	args := m.Called(ctx, id, stageID)
	return args.Error(0)
}

func (m *MockDealStore) ListDueForRealization(ctx context.Context, day time.Time) ([]*deal.Deal, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]*deal.Deal), args.Error(1)
}

type MockDepositStore struct {
	mock.Mock
}

func (m *MockDepositStore) CreditDeposit(ctx context.Context, contactID uuid.UUID, amount decimal.Decimal) error {
	args := m.Called(ctx, contactID, amount)
	return args.Error(0)
}

type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) HandleRefund(ctx context.Context, paymentID uuid.UUID, full bool) error {
	args := m.Called(ctx, paymentID, full)
	return args.Error(0)
}

type MockPointRefunder struct {
	mock.Mock
}

func (m *MockPointRefunder) RefundPoints(ctx context.Context, req payment.PointPaymentRequest) (*payment.PointPaymentResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PointPaymentResult), args.Error(1)
}

type MockJobCanceler struct {
	mock.Mock
}

func (m *MockJobCanceler) Cancel(ctx context.Context, dealID uuid.UUID, kind string) error {
	args := m.Called(ctx, dealID, kind)
	return args.Error(0)
}

// =============================================================================
// Fixture
// =============================================================================

type fixture struct {
	cards    *MockCards
	ledger   *MockLedger
	entries  *MockEntries
	finCards *MockFinancialCards
	credits  *MockCredits
	deals    *MockDealStore
	deposits *MockDepositStore
	issuer   *MockIssuer
	points   *MockPointRefunder
	jobs     *MockJobCanceler
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		cards:    new(MockCards),
		ledger:   new(MockLedger),
		entries:  new(MockEntries),
		finCards: new(MockFinancialCards),
		credits:  new(MockCredits),
		deals:    new(MockDealStore),
		deposits: new(MockDepositStore),
		issuer:   new(MockIssuer),
		points:   new(MockPointRefunder),
		jobs:     new(MockJobCanceler),
	}
	scope := NewNoOpTransactionScope(f.cards, f.ledger, f.entries, f.finCards, f.credits)
	f.svc = NewService(scope, f.deals, f.deposits, f.issuer, Config{RefundStageID: "C5:REFUND"}, zap.NewNop()).
		WithPointRefunder(f.points).
		WithJobCanceler(f.jobs)
	return f
}

func testDeal() *deal.Deal {
	return &deal.Deal{
		ID:        uuid.New(),
		ContactID: uuid.New(),
		Category:  deal.CategoryTour,
		StageID:   "C5:WON",
	}
}

func cardInWork(t *testing.T, dealID uuid.UUID, returnCash int64) *refund.RefundCard {
	t.Helper()
	rc, err := refund.NewRefundCard(dealID, refund.DirectionCard, decimal.NewFromInt(returnCash), "C5:WON")
	require.NoError(t, err)
	require.NoError(t, rc.ConfirmClient())
	require.NoError(t, rc.ConfirmAgreement())
	require.NoError(t, rc.StartWork(uuid.New()))
	return rc
}

func activeCard(t *testing.T, dealID uuid.UUID, scheme finance.SchemeWork) *finance.FinancialCard {
	t.Helper()
	fc, err := finance.NewFinancialCard(dealID, scheme, finance.PriceBreakdown{
		Supplier: decimal.NewFromInt(800),
		Service:  decimal.NewFromInt(200),
		Result:   decimal.NewFromInt(1000),
	})
	require.NoError(t, err)
	return fc
}

// =============================================================================
// Tests
// =============================================================================

func TestOpen_CapturesStageAndParksDeal(t *testing.T) {
	f := newFixture()
	d := testDeal()

	f.deals.On("GetDeal", mock.Anything, d.ID).Return(d, nil)
	f.cards.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.cards.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.deals.On("UpdateDealStage", mock.Anything, d.ID, "C5:REFUND").Return(nil)

	rc, err := f.svc.Open(context.Background(), OpenRequest{
		DealID:     d.ID,
		Direction:  refund.DirectionCard,
		ReturnCash: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	assert.Equal(t, refund.StatusNew, rc.Status)
	assert.Equal(t, "C5:WON", rc.DealStatusBeforeReturn)
	f.deals.AssertExpectations(t)
}

func TestOpen_RejectsSecondActiveCard(t *testing.T) {
	f := newFixture()
	d := testDeal()
	existing, err := refund.NewRefundCard(d.ID, refund.DirectionCard, decimal.NewFromInt(100), "C5:WON")
	require.NoError(t, err)

	f.deals.On("GetDeal", mock.Anything, d.ID).Return(d, nil)
	f.cards.On("FindActiveByDeal", mock.Anything, d.ID).Return(existing, nil)

	_, err = f.svc.Open(context.Background(), OpenRequest{
		DealID:     d.ID,
		Direction:  refund.DirectionCard,
		ReturnCash: decimal.NewFromInt(500),
	})
	assert.Error(t, err)
}

func TestVerifyTotals_PostsRealizationAndIncomeReversal(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.credits.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(activeCard(t, d.ID, finance.SchemeProvisionServices), nil)
	f.entries.On("Exists", mock.Anything, d.ID, finance.EntryRefundRealization).Return(false, nil)
	f.entries.On("Create", mock.Anything, mock.MatchedBy(func(e *finance.AccountingEntry) bool {
		return e.Type == finance.EntryRefundRealization && e.Amount.Equal(decimal.NewFromInt(-500))
	})).Return(nil)
	f.entries.On("Exists", mock.Anything, d.ID, finance.EntryRefundIncome).Return(false, nil)
	f.entries.On("Create", mock.Anything, mock.MatchedBy(func(e *finance.AccountingEntry) bool {
		return e.Type == finance.EntryRefundIncome && e.Amount.Equal(decimal.NewFromInt(-500))
	})).Return(nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	out, err := f.svc.VerifyTotals(context.Background(), rc.ID)
	require.NoError(t, err)

	assert.Equal(t, refund.StatusCheckTotalAmountVerified, out.Status)
	assert.True(t, out.IsCorrectAmountAll)
	f.entries.AssertExpectations(t)
}

func TestVerifyTotals_SupplierAgentSchemeSkipsIncomeReversal(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.credits.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(activeCard(t, d.ID, finance.SchemeSRSupplierAgent), nil)
	f.entries.On("Exists", mock.Anything, d.ID, finance.EntryRefundRealization).Return(false, nil)
	f.entries.On("Create", mock.Anything, mock.MatchedBy(func(e *finance.AccountingEntry) bool {
		return e.Type == finance.EntryRefundRealization
	})).Return(nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	_, err := f.svc.VerifyTotals(context.Background(), rc.ID)
	require.NoError(t, err)

	f.entries.AssertExpectations(t)
	f.entries.AssertNotCalled(t, "Exists", mock.Anything, d.ID, finance.EntryRefundIncome)
}

func TestVerifyTotals_CorrectionCardPostsNothing(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)

	fc := activeCard(t, d.ID, finance.SchemeProvisionServices)
	fc.IsCorrectionAfterDeal = true

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.credits.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(fc, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	_, err := f.svc.VerifyTotals(context.Background(), rc.ID)
	require.NoError(t, err)

	f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestVerifyTotals_ShrinksActiveCredit(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)

	credit, err := finance.NewCredit(d.ID, decimal.NewFromInt(2000))
	require.NoError(t, err)

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.credits.On("FindActiveByDeal", mock.Anything, d.ID).Return(credit, nil)
	f.credits.On("Save", mock.Anything, credit).Return(nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	_, err = f.svc.VerifyTotals(context.Background(), rc.ID)
	require.NoError(t, err)

	assert.True(t, credit.AmountTotal.Equal(decimal.NewFromInt(1500)))
	f.credits.AssertExpectations(t)
}

func TestComplete_AppendsLedgerAndIssuesReceipt(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)
	require.NoError(t, rc.VerifyTotals())

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.ledger.On("Append", mock.Anything, mock.MatchedBy(func(tx *finance.PaymentTransaction) bool {
		return tx.Type == finance.PaymentTypeRefund && tx.Amount.Equal(decimal.NewFromInt(500))
	})).Return(nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)
	f.issuer.On("HandleRefund", mock.Anything, mock.Anything, true).Return(nil)
	f.jobs.On("Cancel", mock.Anything, d.ID, receiptapp.JobKindReceiptPush).Return(nil)

	out, err := f.svc.Complete(context.Background(), CompleteRequest{CardID: rc.ID, Full: true})
	require.NoError(t, err)

	assert.Equal(t, refund.StatusCompleted, out.Status)
	f.ledger.AssertExpectations(t)
	f.issuer.AssertExpectations(t)
	f.jobs.AssertExpectations(t)
	f.entries.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestComplete_PointFundedGoesThroughLoyaltyFlow(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc, err := refund.NewRefundCard(d.ID, refund.DirectionCard, decimal.NewFromInt(500), "C5:WON")
	require.NoError(t, err)
	require.NoError(t, rc.ConfirmClient())
	require.NoError(t, rc.ConfirmTeamLeader())
	require.NoError(t, rc.StartWork(uuid.New()))
	require.NoError(t, rc.VerifyTotals())

	refundTxID := uuid.New()

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)
	f.points.On("RefundPoints", mock.Anything, mock.MatchedBy(func(req payment.PointPaymentRequest) bool {
		return req.DealID == d.ID &&
			req.Account == "0123456789012345" &&
			req.Points.Equal(decimal.NewFromInt(500)) &&
			req.CashAmount.Equal(decimal.NewFromInt(500))
	})).Return(&payment.PointPaymentResult{TransactionID: refundTxID}, nil)
	f.issuer.On("HandleRefund", mock.Anything, refundTxID, false).Return(nil)
	f.jobs.On("Cancel", mock.Anything, d.ID, receiptapp.JobKindReceiptPush).Return(nil)

	_, err = f.svc.Complete(context.Background(), CompleteRequest{
		CardID:      rc.ID,
		Account:     "0123456789012345",
		ProgramCode: "IR",
		Points:      decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	f.points.AssertExpectations(t)
	f.issuer.AssertExpectations(t)
	f.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestComplete_PointFundedRequiresAccount(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc, err := refund.NewRefundCard(d.ID, refund.DirectionCard, decimal.NewFromInt(500), "C5:WON")
	require.NoError(t, err)
	require.NoError(t, rc.ConfirmClient())
	require.NoError(t, rc.ConfirmTeamLeader())
	require.NoError(t, rc.StartWork(uuid.New()))
	require.NoError(t, rc.VerifyTotals())

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)

	_, err = f.svc.Complete(context.Background(), CompleteRequest{CardID: rc.ID})
	assert.Error(t, err)
	f.cards.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	f.points.AssertNotCalled(t, "RefundPoints", mock.Anything, mock.Anything)
}

func TestComplete_CorrectionCardClosesImmediately(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)
	require.NoError(t, rc.VerifyTotals())

	fc := activeCard(t, d.ID, finance.SchemeProvisionServices)
	fc.IsCorrectionAfterDeal = true

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.ledger.On("Append", mock.Anything, mock.Anything).Return(nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(fc, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)
	f.issuer.On("HandleRefund", mock.Anything, mock.Anything, false).Return(nil)
	f.jobs.On("Cancel", mock.Anything, d.ID, receiptapp.JobKindReceiptPush).Return(nil)

	out, err := f.svc.Complete(context.Background(), CompleteRequest{CardID: rc.ID})
	require.NoError(t, err)

	assert.Equal(t, refund.StatusClose, out.Status)
}

func TestComplete_ReturnsDeposit(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc, err := refund.NewRefundCard(d.ID, refund.DirectionInvoice, decimal.Zero, "C5:WON")
	require.NoError(t, err)
	rc.ReturnDeposit = decimal.NewFromInt(200)
	require.NoError(t, rc.ConfirmClient())
	require.NoError(t, rc.ConfirmAgreement())
	require.NoError(t, rc.StartWork(uuid.New()))
	require.NoError(t, rc.VerifyTotals())

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.finCards.On("FindActiveByDeal", mock.Anything, d.ID).Return(nil, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)
	f.deals.On("GetDeal", mock.Anything, d.ID).Return(d, nil)
	f.deposits.On("CreditDeposit", mock.Anything, d.ContactID, decimal.NewFromInt(200)).Return(nil)
	f.jobs.On("Cancel", mock.Anything, d.ID, receiptapp.JobKindReceiptPush).Return(nil)

	_, err = f.svc.Complete(context.Background(), CompleteRequest{CardID: rc.ID})
	require.NoError(t, err)

	f.deposits.AssertExpectations(t)
	f.ledger.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

func TestCancel_DetachesCardAndRestoresStage(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc, err := refund.NewRefundCard(d.ID, refund.DirectionCard, decimal.NewFromInt(500), "C5:WON")
	require.NoError(t, err)

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)
	f.deals.On("UpdateDealStage", mock.Anything, d.ID, "C5:WON").Return(nil)
	f.jobs.On("Cancel", mock.Anything, d.ID, receiptapp.JobKindReceiptPush).Return(nil)

	out, err := f.svc.Cancel(context.Background(), rc.ID)
	require.NoError(t, err)

	assert.Equal(t, refund.StatusCanceled, out.Status)
	assert.Equal(t, uuid.Nil, out.DealID)
	require.NotNil(t, out.CanceledRefundDealID)
	assert.Equal(t, d.ID, *out.CanceledRefundDealID)
	f.deals.AssertExpectations(t)
	f.jobs.AssertExpectations(t)
}

func TestRetryCheck_ResetsAuditFlags(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)
	require.NoError(t, rc.MarkTotalsIncorrect())

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	out, err := f.svc.RetryCheck(context.Background(), rc.ID)
	require.NoError(t, err)

	assert.False(t, out.IsCorrectAmountAll)
	assert.False(t, out.IsRetryCheckTotalAmount)
}

func TestReschedule_MovesDelayDate(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc := cardInWork(t, d.ID, 500)
	require.NoError(t, rc.Delay(time.Now().Add(24*time.Hour)))

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)
	f.cards.On("Save", mock.Anything, rc).Return(nil)

	until := time.Now().Add(72 * time.Hour)
	out, err := f.svc.Reschedule(context.Background(), rc.ID, until)
	require.NoError(t, err)

	require.NotNil(t, out.DelayDate)
	assert.True(t, out.DelayDate.Equal(until))
}

func TestTransition_InvalidStepRollsBack(t *testing.T) {
	f := newFixture()
	d := testDeal()
	rc, err := refund.NewRefundCard(d.ID, refund.DirectionCard, decimal.NewFromInt(500), "C5:WON")
	require.NoError(t, err)

	f.cards.On("FindByID", mock.Anything, rc.ID).Return(rc, nil)

	_, err = f.svc.VerifyTotals(context.Background(), rc.ID)
	assert.Error(t, err)
	f.cards.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}
