package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayFormat is the wire format for all calendar dates.
const DayFormat = "2006-01-02"

// ParseDay parses a strict YYYY-MM-DD date into a UTC day. time.Parse alone
// accepts single-digit months and days, so the round trip is checked too.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil || t.Format(DayFormat) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t.UTC(), nil
}

func FormatDay(t time.Time) string { return t.Format(DayFormat) }

// DayOf truncates to the UTC calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateRange is half-open: Start inclusive, End exclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (r DateRange) Valid() bool { return r.Start.Before(r.End) }

func (r DateRange) Days() int { return int(r.End.Sub(r.Start).Hours() / 24) }

func (r DateRange) Contains(d time.Time) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

// EachDay visits every day of the range in order.
func (r DateRange) EachDay(fn func(time.Time)) {
	for d := r.Start; d.Before(r.End); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

const (
	WindowDaysBehind = 2
	WindowDaysAhead  = 183
)

// MaterializationWindow is the rolling half-open range [today-2d, today+183d)
// inside which derived prices are persisted. Reads outside it compute prices
// for display without writing.
func MaterializationWindow(today time.Time) DateRange {
	d := DayOf(today)
	return DateRange{
		Start: d.AddDate(0, 0, -WindowDaysBehind),
		End:   d.AddDate(0, 0, WindowDaysAhead),
	}
}

// CalendarDay is one date's merged availability and price.
type CalendarDay struct {
	Date      time.Time
	Inventory int
	Closed    bool
	MinStay   *int
	Price     *decimal.Decimal
	Currency  *string
}

// RoomCalendar is one room type's assembled range.
type RoomCalendar struct {
	RoomTypeID int64
	RoomName   string
	Daily      []CalendarDay
	ByPlan     map[int64][]CalendarDay // populated only for expanded reads
}

// CalendarQuery selects what Assemble loads and how prices are chosen.
type CalendarQuery struct {
	PartnerID   int64
	RoomTypeIDs []int64 // empty selects every active room of the partner
	Range       DateRange
	RatePlanID  *int64 // pin prices to one plan; no base-price fallback
	ExpandPlans bool   // emit ByPlan for every active plan of each room
}

// PublicRoom is the cached public-catalog projection of a room type.
type PublicRoom struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Currency  string   `json:"currency"`
	BasePrice *float64 `json:"basePrice"`
}
