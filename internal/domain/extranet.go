package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// STDPlanCode marks the canonical rate plan every derived plan prices from.
const STDPlanCode = "STD"

type PlanKind string

const (
	KindNone     PlanKind = "NONE"
	KindAbsolute PlanKind = "ABSOLUTE"
	KindPercent  PlanKind = "PERCENT"
)

type Partner struct {
	ID    int64
	Name  string
	Email string
}

// PartnerSession rows are written by the external OTP service; this repo only
// reads them to authenticate extranet calls.
type PartnerSession struct {
	Token     string
	PartnerID int64
	ExpiresAt time.Time
}

type RoomType struct {
	ID        int64
	PartnerID int64
	Name      string
	BasePrice decimal.NullDecimal // last-resort seed for the STD price
	Currency  string              // opaque label, no conversion
	Active    bool
}

type RatePlan struct {
	ID         int64
	PartnerID  int64
	RoomTypeID int64
	Code       string
	Name       string
	Kind       PlanKind
	Value      decimal.Decimal
	Priority   int // lower sorts first in any-plan price fallback
	Active     bool
}

func (p RatePlan) IsSTD() bool { return p.Code == STDPlanCode }

var hundred = decimal.NewFromInt(100)

// Apply prices one night of this plan from the effective STD price.
// Unrecognized kinds behave as NONE. Results carry two decimal places,
// rounded half away from zero.
func (p RatePlan) Apply(std decimal.Decimal) decimal.Decimal {
	switch p.Kind {
	case KindAbsolute:
		return std.Add(p.Value).Round(2)
	case KindPercent:
		return std.Mul(hundred.Add(p.Value)).Div(hundred).Round(2)
	default:
		return std.Round(2)
	}
}

// RateCatalog is the resolved pricing shape of one room type.
type RateCatalog struct {
	StdPlanID    *int64
	DerivedPlans []DerivedPlan
}

type DerivedPlan struct {
	ID    int64
	Code  string
	Kind  PlanKind
	Value decimal.Decimal
}

// ResolveRateCatalog picks the STD plan — exact code match first, then a
// case-insensitive "standard" name prefix for rows predating the uniqueness
// constraint, lowest id winning — and lists the active non-STD plans in
// (priority, id) order. No STD-like row means derivation is impossible for
// the room: StdPlanID stays nil.
func ResolveRateCatalog(plans []RatePlan) RateCatalog {
	var std *RatePlan
	for i := range plans {
		p := &plans[i]
		if p.Code != STDPlanCode {
			continue
		}
		if std == nil || p.ID < std.ID {
			std = p
		}
	}
	if std == nil {
		for i := range plans {
			p := &plans[i]
			if !strings.HasPrefix(strings.ToLower(p.Name), "standard") {
				continue
			}
			if std == nil || p.ID < std.ID {
				std = p
			}
		}
	}

	var cat RateCatalog
	if std != nil {
		id := std.ID
		cat.StdPlanID = &id
	}
	derived := make([]RatePlan, 0, len(plans))
	for _, p := range plans {
		if !p.Active {
			continue
		}
		if std != nil && p.ID == std.ID {
			continue
		}
		derived = append(derived, p)
	}
	sort.Slice(derived, func(i, j int) bool {
		if derived[i].Priority != derived[j].Priority {
			return derived[i].Priority < derived[j].Priority
		}
		return derived[i].ID < derived[j].ID
	})
	cat.DerivedPlans = make([]DerivedPlan, 0, len(derived))
	for _, p := range derived {
		cat.DerivedPlans = append(cat.DerivedPlans, DerivedPlan{ID: p.ID, Code: p.Code, Kind: p.Kind, Value: p.Value})
	}
	return cat
}

// InventoryDay is one date's availability for a room type. Absence of a row
// means "closed", not "unknown".
type InventoryDay struct {
	PartnerID  int64
	RoomTypeID int64
	Date       time.Time
	RoomsOpen  int
	MinStay    *int // nil = no restriction
	Closed     bool
}

type PriceSource string

const (
	SourceExplicit PriceSource = "explicit"
	SourceDerived  PriceSource = "derived"
)

// PriceDay is one persisted nightly price for (room type, rate plan, date).
type PriceDay struct {
	RoomTypeID int64
	RatePlanID int64
	Date       time.Time
	Price      decimal.Decimal
	Source     PriceSource
}

// InventoryPatch carries one date's field subset for the bulk gateway. Nil
// fields are left untouched on update; MinStaySet distinguishes "clear the
// restriction" from "leave it alone".
type InventoryPatch struct {
	Date       time.Time
	RoomsOpen  *int
	MinStay    *int
	MinStaySet bool
	Closed     *bool
}

// PricePatch is a full-field explicit price write.
type PricePatch struct {
	Date       time.Time
	RatePlanID int64
	Price      decimal.Decimal
}
