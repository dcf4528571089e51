package rates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	csvimport "github.com/travelcrm/backend/internal/infrastructure/import"
)

// RateStore persists the per-deal currency conversion snapshot
type RateStore interface {
	SaveRate(ctx context.Context, dealID uuid.UUID, averageRate, rateCount decimal.Decimal) error
}

// ImportResult summarizes a rate sheet import run
type ImportResult struct {
	Total    int
	Imported int
	Failed   int
	Errors   []csvimport.RowError
}

// maxImportErrors bounds how many row errors a single run collects
const maxImportErrors = 100

// ImportService loads deal currency rates from a CSV rate sheet. Expected
// columns: deal_id, average_rate, and an optional rate_count defaulting
// to 1. Rows that fail validation are skipped; valid rows are upserted.
type ImportService struct {
	store  RateStore
	logger *zap.Logger
}

// NewImportService creates a new rate sheet import service
func NewImportService(store RateStore, logger *zap.Logger) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{store: store, logger: logger}
}

// rateSheetRules returns the validation rules for a rate sheet row
func rateSheetRules() []csvimport.FieldRule {
	positive := func(value string) error {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return err
		}
		if !d.IsPositive() {
			return fmt.Errorf("value %s must be positive", value)
		}
		return nil
	}

	return []csvimport.FieldRule{
		csvimport.Field("deal_id").Required().UUID().Unique().Build(),
		csvimport.Field("average_rate").Required().Decimal().Custom(positive).Build(),
		csvimport.Field("rate_count").Decimal().Custom(positive).Build(),
	}
}

// Import parses the rate sheet and upserts every valid row
func (s *ImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parser, err := csvimport.NewCSVParser(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate sheet: %w", err)
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, fmt.Errorf("failed to parse rate sheet header: %w", err)
	}
	if missing := parser.ValidateHeaders([]string{"deal_id", "average_rate"}); len(missing) > 0 {
		return nil, fmt.Errorf("rate sheet missing required columns: %s", strings.Join(missing, ", "))
	}

	validator := csvimport.NewFieldValidator(rateSheetRules(), maxImportErrors)
	result := &ImportResult{}

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rate sheet: %w", err)
		}
		if row.IsEmpty() {
			continue
		}

		result.Total++
		if !validator.ValidateRow(row) {
			result.Failed++
			continue
		}

		dealID := uuid.MustParse(row.Get("deal_id"))
		averageRate, _ := decimal.NewFromString(row.Get("average_rate"))
		rateCount, _ := decimal.NewFromString(row.GetOrDefault("rate_count", "1"))

		if err := s.store.SaveRate(ctx, dealID, averageRate, rateCount); err != nil {
			s.logger.Error("failed to save deal rate",
				zap.String("deal_id", dealID.String()),
				zap.Int("row", row.LineNumber),
				zap.Error(err))
			validator.Errors().AddValidationError(row.LineNumber, "deal_id",
				csvimport.ErrCodeImportUnknown, err.Error())
			result.Failed++
			continue
		}
		result.Imported++
	}

	if result.Total == 0 {
		return nil, csvimport.ErrNoDataRows
	}

	result.Errors = validator.Errors().Errors()
	s.logger.Info("rate sheet import finished",
		zap.Int("total", result.Total),
		zap.Int("imported", result.Imported),
		zap.Int("failed", result.Failed))

	return result, nil
}
