package mfapi

import (
	"time"

	"github.com/shopspring/decimal"

	"saarthi/internal/domain"
)

// DateLayout is the day-month-year format of series dates.
const DateLayout = "02-01-2006"

var hundred = decimal.NewFromInt(100)

// CalculateReturns computes trailing returns for every horizon in
// domain.Horizons. For each horizon the first point dated on or before
// now minus the horizon supplies the past NAV; points whose date or NAV does
// not parse are skipped. ok is false when the series has fewer than two
// points or its head NAV does not parse.
func CalculateReturns(series []domain.NAVPoint, now time.Time) (ret domain.Returns, ok bool) {
	if len(series) < 2 {
		return ret, false
	}
	current, err := decimal.NewFromString(series[0].NAV)
	if err != nil {
		return ret, false
	}

	for _, h := range domain.Horizons {
		target := now.AddDate(0, 0, -h.Days)
		past, found := navAtOrBefore(series, target)
		if !found || past.IsZero() {
			continue
		}
		pct := current.Sub(past).Mul(hundred).Div(past).Round(2)
		ret.Set(h.Label, decimal.NewNullDecimal(pct))
	}
	return ret, true
}

func navAtOrBefore(series []domain.NAVPoint, target time.Time) (decimal.Decimal, bool) {
	for _, p := range series {
		date, err := time.ParseInLocation(DateLayout, p.Date, target.Location())
		if err != nil {
			continue
		}
		if date.After(target) {
			continue
		}
		nav, err := decimal.NewFromString(p.NAV)
		if err != nil {
			continue
		}
		return nav, true
	}
	return decimal.Decimal{}, false
}
