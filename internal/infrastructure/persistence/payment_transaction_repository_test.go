package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/travelcrm/backend/internal/domain/finance"
)

// newMockLedgerRepository creates a GormPaymentTransactionRepository with a mocked SQL connection
func newMockLedgerRepository(t *testing.T) (*GormPaymentTransactionRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentTransactionRepository(gormDB), mock, mockDB
}

func TestGormPaymentTransactionRepository_SumIncoming(t *testing.T) {
	t.Run("sums only successful incoming entries", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow("1500.0000")

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "payment_transactions" WHERE deal_id = \$1 AND type = \$2 AND status = \$3`).
			WithArgs(dealID, string(finance.PaymentTypeIncoming), string(finance.PaymentStatusSuccess)).
			WillReturnRows(rows)

		total, err := repo.SumIncoming(context.Background(), dealID)

		assert.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(1500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty ledger sums to zero", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()

		rows := sqlmock.NewRows([]string{"total"}).AddRow("0")

		mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) as total FROM "payment_transactions"`).
			WithArgs(dealID, string(finance.PaymentTypeIncoming), string(finance.PaymentStatusSuccess)).
			WillReturnRows(rows)

		total, err := repo.SumIncoming(context.Background(), dealID)

		assert.NoError(t, err)
		assert.True(t, total.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentTransactionRepository_LastPointPayment(t *testing.T) {
	t.Run("returns latest point entry by sequence", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()
		txID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "seq", "deal_id", "type", "status", "amount", "point_amount",
			"payment_by_point", "currency_code", "date", "created_at", "updated_at",
		}).AddRow(
			txID, int64(7), dealID, "INCOMING", "SUCCESS", "500.0000", "500.0000",
			true, "IR", now, now, now,
		)

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE deal_id = \$1 AND payment_by_point = \$2 AND status = \$3 ORDER BY seq DESC`).
			WithArgs(dealID, true, string(finance.PaymentStatusSuccess), 1).
			WillReturnRows(rows)

		tx, err := repo.LastPointPayment(context.Background(), dealID)

		assert.NoError(t, err)
		require.NotNil(t, tx)
		assert.Equal(t, txID, tx.ID)
		assert.Equal(t, int64(7), tx.Seq)
		assert.True(t, tx.PaymentByPoint)
		assert.Equal(t, "IR", tx.CurrencyCode)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil when the deal has no point entries", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions"`).
			WithArgs(dealID, true, string(finance.PaymentStatusSuccess), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		tx, err := repo.LastPointPayment(context.Background(), dealID)

		assert.NoError(t, err)
		assert.Nil(t, tx)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentTransactionRepository_ListByDeal(t *testing.T) {
	t.Run("orders by whitelisted field", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{
			"id", "seq", "deal_id", "type", "status", "amount", "point_amount",
			"payment_by_point", "currency_code", "date", "created_at", "updated_at",
		}).AddRow(
			uuid.New(), int64(1), dealID, "INCOMING", "SUCCESS", "100.0000", "0",
			false, "", now, now, now,
		).AddRow(
			uuid.New(), int64(2), dealID, "INCOMING", "SUCCESS", "200.0000", "0",
			false, "", now, now, now,
		)

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE deal_id = \$1 ORDER BY amount ASC`).
			WithArgs(dealID).
			WillReturnRows(rows)

		txs, err := repo.ListByDeal(context.Background(), dealID, "amount", "asc")

		assert.NoError(t, err)
		assert.Len(t, txs, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects unknown sort field and falls back to seq", func(t *testing.T) {
		repo, mock, mockDB := newMockLedgerRepository(t)
		defer mockDB.Close()

		dealID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_transactions" WHERE deal_id = \$1 ORDER BY seq DESC`).
			WithArgs(dealID).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		txs, err := repo.ListByDeal(context.Background(), dealID, "amount; DROP TABLE deals", "bogus")

		assert.NoError(t, err)
		assert.Empty(t, txs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentTransactionRepository_HasPointPayments(t *testing.T) {
	repo, mock, mockDB := newMockLedgerRepository(t)
	defer mockDB.Close()

	dealID := uuid.New()

	rows := sqlmock.NewRows([]string{"count"}).AddRow(int64(2))

	mock.ExpectQuery(`SELECT count\(\*\) FROM "payment_transactions" WHERE deal_id = \$1 AND payment_by_point = \$2 AND status = \$3`).
		WithArgs(dealID, true, string(finance.PaymentStatusSuccess)).
		WillReturnRows(rows)

	has, err := repo.HasPointPayments(context.Background(), dealID)

	assert.NoError(t, err)
	assert.True(t, has)
	assert.NoError(t, mock.ExpectationsWereMet())
}
