package billing

import (
	"time"

	"github.com/Jarvisr88/AriesOne-SaaS-sub002/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

var (
	one        = decimal.NewFromInt(1)
	daysInWeek = decimal.NewFromInt(7)
)

// civilDate drops the clock component so day arithmetic ignores time of day and zone offsets
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// effectiveEnd returns to, truncated to endDate when endDate is earlier
func effectiveEnd(to time.Time, endDate *time.Time) time.Time {
	if endDate != nil && civilDate(*endDate).Before(civilDate(to)) {
		return *endDate
	}
	return to
}

// DaysInclusive counts calendar days in [from, to]; it is 0 when to precedes from
func DaysInclusive(from, to time.Time) int64 {
	start, end := civilDate(from), civilDate(to)
	if end.Before(start) {
		return 0
	}
	return int64(end.Sub(start).Hours()/24) + 1
}

// AmountMultiplierRequest describes a date-of-service span and its two cadences
type AmountMultiplierRequest struct {
	DOSFrom     time.Time        `json:"dos_from"`
	DOSTo       time.Time        `json:"dos_to"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
	Type        SaleRentType     `json:"sale_rent_type"`
	OrderedWhen BillingFrequency `json:"ordered_when"`
	BilledWhen  BillingFrequency `json:"billed_when"`
}

// AmountMultiplier converts an ordered cadence to the billed cadence over a
// date-of-service span. Anything that is not a rental, and any line whose
// cadences match, is always 1. Otherwise an empty span bills nothing, a
// daily-ordered line billed at a coarser cadence is billed per day and a
// weekly-ordered line billed monthly is billed per week (4 decimal places).
// Any other combination bills one unit.
func AmountMultiplier(req AmountMultiplierRequest) decimal.Decimal {
	if !req.Type.IsRental() {
		return one
	}

	days := DaysInclusive(req.DOSFrom, effectiveEnd(req.DOSTo, req.EndDate))
	if req.OrderedWhen == req.BilledWhen {
		return one
	}
	if days == 0 {
		return decimal.Zero
	}

	switch {
	case req.OrderedWhen == FrequencyDaily && (req.BilledWhen == FrequencyWeekly || req.BilledWhen == FrequencyMonthly):
		return decimal.NewFromInt(days)
	case req.OrderedWhen == FrequencyWeekly && req.BilledWhen == FrequencyMonthly:
		return decimal.NewFromInt(days).Div(daysInWeek).Round(valueobject.RatioScale)
	}
	return one
}

// MultiplierRequest describes how many billing units a span covers
type MultiplierRequest struct {
	Frequency   BillingFrequency `json:"frequency"`
	From        time.Time        `json:"from_date"`
	To          time.Time        `json:"to_date"`
	EndDate     *time.Time       `json:"end_date,omitempty"`
	Prorate     bool             `json:"prorate"`
	RoundMethod RoundMethod      `json:"round_method"`
}

// Multiplier returns the number of Frequency units in [From, To], truncated at
// EndDate. A span that ends before it starts yields 0 rather than an error so
// already-terminated lines degrade quietly.
func Multiplier(req MultiplierRequest) decimal.Decimal {
	if req.Frequency == FrequencyOneTime {
		return one
	}

	to := effectiveEnd(req.To, req.EndDate)
	days := DaysInclusive(req.From, to)
	if days == 0 {
		return decimal.Zero
	}

	switch req.Frequency {
	case FrequencyDaily:
		return decimal.NewFromInt(days)

	case FrequencyWeekly:
		weeks := decimal.NewFromInt(days).Div(daysInWeek)
		if req.Prorate {
			return weeks.Round(valueobject.RatioScale)
		}
		return roundWhole(weeks, req.RoundMethod)

	case FrequencyMonthly:
		whole, fraction := elapsedMonths(req.From, to)
		months := decimal.NewFromInt(whole)
		switch {
		case req.Prorate:
			return months.Add(fraction).Round(valueobject.RatioScale)
		case req.RoundMethod == RoundCeil && fraction.IsPositive():
			return months.Add(one)
		default:
			return months
		}
	}

	return decimal.Zero
}

func roundWhole(d decimal.Decimal, method RoundMethod) decimal.Decimal {
	if method == RoundCeil {
		return d.Ceil()
	}
	return d.Floor()
}

// elapsedMonths measures [from, to] inclusive in calendar months. The fraction
// is the leftover days over the length of the month that follows the last
// whole month.
func elapsedMonths(from, to time.Time) (int64, decimal.Decimal) {
	start := civilDate(from)
	end := civilDate(to).AddDate(0, 0, 1) // exclusive

	var whole int64
	for !addMonths(start, int(whole)+1).After(end) {
		whole++
	}

	anchor := addMonths(start, int(whole))
	remaining := end.Sub(anchor).Hours() / 24
	if remaining <= 0 {
		return whole, decimal.Zero
	}
	monthLength := addMonths(start, int(whole)+1).Sub(anchor).Hours() / 24
	return whole, decimal.NewFromFloat(remaining).Div(decimal.NewFromFloat(monthLength))
}

// addMonths moves t forward n months, clamping the day to the target month's last day
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, time.UTC)
}
