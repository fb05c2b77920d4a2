package repository

import (
	"database/sql"
	"fmt"
	"time"

	"factorportfolio/internal/db/models/postgres/public/model"
	. "factorportfolio/internal/db/models/postgres/public/table"
	"factorportfolio/internal/domain"

	. "github.com/go-jet/jet/v2/postgres"
	"github.com/go-jet/jet/v2/qrm"
)

type AdjustedPriceRepository interface {
	Add(tx *sql.Tx, prices []domain.AssetPrice) error
	List(tx *sql.Tx, symbols []string, start, end time.Time) ([]domain.AssetPrice, error)
	ListTradingDays(tx *sql.Tx, start, end time.Time) ([]time.Time, error)
}

type adjustedPriceRepositoryHandler struct {
	Db *sql.DB
}

func NewAdjustedPriceRepository(db *sql.DB) AdjustedPriceRepository {
	return adjustedPriceRepositoryHandler{Db: db}
}

// sqlExecutor is satisfied by both *sql.DB and *sql.Tx.
type sqlExecutor interface {
	qrm.Queryable
	qrm.Executable
}

func (h adjustedPriceRepositoryHandler) queryable(tx *sql.Tx) sqlExecutor {
	if tx != nil {
		return tx
	}
	return h.Db
}

func addAdjustedPricesQuery(prices []domain.AssetPrice, now time.Time) InsertStatement {
	models := make([]model.AdjustedPrice, 0, len(prices))
	for _, p := range prices {
		models = append(models, model.AdjustedPrice{
			Symbol:    p.Symbol,
			Date:      p.Date,
			Price:     p.Price,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	return AdjustedPrice.
		INSERT(AdjustedPrice.MutableColumns).
		MODELS(models).
		ON_CONFLICT(
			AdjustedPrice.Symbol, AdjustedPrice.Date,
		).DO_UPDATE(
		SET(
			AdjustedPrice.Price.SET(AdjustedPrice.EXCLUDED.Price),
			AdjustedPrice.UpdatedAt.SET(AdjustedPrice.EXCLUDED.UpdatedAt),
		),
	)
}

func (h adjustedPriceRepositoryHandler) Add(tx *sql.Tx, prices []domain.AssetPrice) error {
	if len(prices) == 0 {
		return nil
	}

	_, err := addAdjustedPricesQuery(prices, time.Now().UTC()).Exec(h.queryable(tx))
	if err != nil {
		return fmt.Errorf("failed to add adjusted prices to db: %w", err)
	}

	return nil
}

// dateLiteral renders t's calendar date as a plain date literal.
func dateLiteral(t time.Time) DateExpression {
	return Date(t.Year(), t.Month(), t.Day())
}

func listAdjustedPricesQuery(symbols []string, start, end time.Time) SelectStatement {
	symbolExpressions := make([]Expression, 0, len(symbols))
	for _, s := range symbols {
		symbolExpressions = append(symbolExpressions, String(s))
	}

	return AdjustedPrice.
		SELECT(AdjustedPrice.AllColumns).
		WHERE(
			AND(
				AdjustedPrice.Symbol.IN(symbolExpressions...),
				AdjustedPrice.Date.BETWEEN(dateLiteral(start), dateLiteral(end)),
			),
		).
		ORDER_BY(AdjustedPrice.Date.ASC(), AdjustedPrice.Symbol.ASC())
}

func (h adjustedPriceRepositoryHandler) List(tx *sql.Tx, symbols []string, start, end time.Time) ([]domain.AssetPrice, error) {
	if len(symbols) == 0 {
		return []domain.AssetPrice{}, nil
	}

	result := []model.AdjustedPrice{}
	err := listAdjustedPricesQuery(symbols, start, end).Query(h.queryable(tx), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list prices for %d symbols between %s and %s: %w", len(symbols), start.Format(time.DateOnly), end.Format(time.DateOnly), err)
	}

	out := make([]domain.AssetPrice, 0, len(result))
	for _, r := range result {
		out = append(out, domain.AssetPrice{
			Symbol: r.Symbol,
			Price:  r.Price,
			Date:   r.Date,
		})
	}

	return out, nil
}

func listTradingDaysQuery(start, end time.Time) SelectStatement {
	return AdjustedPrice.
		SELECT(AdjustedPrice.Date).
		DISTINCT().
		WHERE(AdjustedPrice.Date.BETWEEN(dateLiteral(start), dateLiteral(end))).
		ORDER_BY(AdjustedPrice.Date.ASC())
}

func (h adjustedPriceRepositoryHandler) ListTradingDays(tx *sql.Tx, start, end time.Time) ([]time.Time, error) {
	result := []model.AdjustedPrice{}
	err := listTradingDaysQuery(start, end).Query(h.queryable(tx), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to list trading days: %w", err)
	}

	out := make([]time.Time, 0, len(result))
	for _, r := range result {
		out = append(out, r.Date)
	}
	return out, nil
}
