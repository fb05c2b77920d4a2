package repository

import (
	"database/sql"
	"fmt"
	"time"

	"factorportfolio/internal/db/models/postgres/public/model"
	. "factorportfolio/internal/db/models/postgres/public/table"
	"factorportfolio/internal/domain"

	. "github.com/go-jet/jet/v2/postgres"
)

type AssetFundamentalsRepository interface {
	Add(tx *sql.Tx, asOf time.Time, fundamentals domain.FundamentalsTable) error
	// Latest returns the most recent record on or before asOf per symbol.
	// Symbols with no record are absent from the table.
	Latest(tx *sql.Tx, symbols []string, asOf time.Time) (domain.FundamentalsTable, error)
}

type assetFundamentalsRepositoryHandler struct {
	Db *sql.DB
}

func NewAssetFundamentalsRepository(db *sql.DB) AssetFundamentalsRepository {
	return assetFundamentalsRepositoryHandler{Db: db}
}

func (h assetFundamentalsRepositoryHandler) queryable(tx *sql.Tx) sqlExecutor {
	if tx != nil {
		return tx
	}
	return h.Db
}

func addAssetFundamentalsQuery(asOf time.Time, fundamentals domain.FundamentalsTable, now time.Time) InsertStatement {
	models := []model.AssetFundamental{}
	for symbol, f := range fundamentals {
		models = append(models, model.AssetFundamental{
			Symbol:        symbol,
			AsOf:          asOf,
			MarketCap:     f.MarketCap,
			TrailingPe:    f.TrailingPE,
			PriceToBook:   f.PriceToBook,
			DividendYield: f.DividendYield,
			CreatedAt:     now,
		})
	}

	return AssetFundamental.
		INSERT(AssetFundamental.MutableColumns).
		MODELS(models).
		ON_CONFLICT(
			AssetFundamental.Symbol, AssetFundamental.AsOf,
		).DO_UPDATE(
		SET(
			AssetFundamental.MarketCap.SET(AssetFundamental.EXCLUDED.MarketCap),
			AssetFundamental.TrailingPe.SET(AssetFundamental.EXCLUDED.TrailingPe),
			AssetFundamental.PriceToBook.SET(AssetFundamental.EXCLUDED.PriceToBook),
			AssetFundamental.DividendYield.SET(AssetFundamental.EXCLUDED.DividendYield),
		),
	)
}

func (h assetFundamentalsRepositoryHandler) Add(tx *sql.Tx, asOf time.Time, fundamentals domain.FundamentalsTable) error {
	if len(fundamentals) == 0 {
		return fmt.Errorf("no models were provided to insert into asset_fundamental")
	}

	_, err := addAssetFundamentalsQuery(asOf, fundamentals, time.Now().UTC()).Exec(h.queryable(tx))
	if err != nil {
		return fmt.Errorf("failed to add asset fundamentals to db: %w", err)
	}

	return nil
}

func latestAssetFundamentalsQuery(symbols []string, asOf time.Time) SelectStatement {
	symbolExpressions := make([]Expression, 0, len(symbols))
	for _, s := range symbols {
		symbolExpressions = append(symbolExpressions, String(s))
	}

	return AssetFundamental.
		SELECT(AssetFundamental.AllColumns).
		WHERE(
			AND(
				AssetFundamental.Symbol.IN(symbolExpressions...),
				AssetFundamental.AsOf.LT_EQ(dateLiteral(asOf)),
			),
		).
		ORDER_BY(AssetFundamental.Symbol.ASC(), AssetFundamental.AsOf.ASC())
}

func (h assetFundamentalsRepositoryHandler) Latest(tx *sql.Tx, symbols []string, asOf time.Time) (domain.FundamentalsTable, error) {
	out := domain.FundamentalsTable{}
	if len(symbols) == 0 {
		return out, nil
	}

	result := []model.AssetFundamental{}
	err := latestAssetFundamentalsQuery(symbols, asOf).Query(h.queryable(tx), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to get asset fundamentals as of %s: %w", asOf.Format(time.DateOnly), err)
	}

	// rows are ordered by as_of so the latest record wins
	for _, r := range result {
		out[r.Symbol] = domain.Fundamentals{
			MarketCap:     r.MarketCap,
			TrailingPE:    r.TrailingPe,
			PriceToBook:   r.PriceToBook,
			DividendYield: r.DividendYield,
		}
	}
	return out, nil
}
