package services

import (
	"github.com/shopspring/decimal"

	"vehicle-auction/internal/config"
)

// FeeBreakdown is the buyer-side cost of winning at a given amount.
type FeeBreakdown struct {
	BuyerFee         float64 `json:"buyer_fee"`
	DocumentationFee float64 `json:"documentation_fee"`
	Total            float64 `json:"total"`
}

// FeeCalculator computes buyer fees from a tiered percentage schedule
// plus a fixed documentation fee. The same instance serves both the
// non-binding quote endpoint and settlement, so quote and charge cannot
// drift. Arithmetic runs on decimals and rounds to cents.
type FeeCalculator struct {
	docFee decimal.Decimal
	tiers  []config.FeeTier
}

func NewFeeCalculator(cfg config.FeeConfig) *FeeCalculator {
	return &FeeCalculator{
		docFee: decimal.NewFromFloat(cfg.DocumentationFee),
		tiers:  cfg.Tiers,
	}
}

// Calculate is pure: no side effects, same input always yields the same
// breakdown.
func (f *FeeCalculator) Calculate(amount float64) FeeBreakdown {
	amt := decimal.NewFromFloat(amount)
	pct := decimal.NewFromFloat(f.percentFor(amount)).Div(decimal.NewFromInt(100))

	buyerFee := amt.Mul(pct).Round(2)
	total := amt.Add(buyerFee).Add(f.docFee).Round(2)

	return FeeBreakdown{
		BuyerFee:         buyerFee.InexactFloat64(),
		DocumentationFee: f.docFee.InexactFloat64(),
		Total:            total.InexactFloat64(),
	}
}

func (f *FeeCalculator) percentFor(amount float64) float64 {
	for _, tier := range f.tiers {
		if tier.UpTo == 0 || amount <= tier.UpTo {
			return tier.Percent
		}
	}
	return 0
}
