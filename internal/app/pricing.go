package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// PricingService is the derivation engine. It resolves one (room type, rate
// plan, date) price, lazily persisting derived values inside the rolling
// materialization window.
type PricingService struct {
	ledger domain.LedgerRepository
	now    func() time.Time
}

func NewPricingService(ledger domain.LedgerRepository, now func() time.Time) *PricingService {
	if now == nil {
		now = time.Now
	}
	return &PricingService{ledger: ledger, now: now}
}

// ResolveOrMaterialize returns the nightly price for the plan on the date, or
// nil when it resolves to no price (inactive plan, STD requested directly,
// no effective STD value, negative result). A persisted row always wins over
// recomputation, so rule changes never rewrite already-materialized days.
func (s *PricingService) ResolveOrMaterialize(ctx context.Context, room domain.RoomType, plan domain.RatePlan, stdPlanID *int64, date time.Time) (*decimal.Decimal, error) {
	date = domain.DayOf(date)

	if pd, err := s.ledger.PlanPrice(ctx, room.ID, plan.ID, date); err == nil {
		return &pd.Price, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if !plan.Active || plan.RoomTypeID != room.ID {
		return nil, nil
	}
	if plan.IsSTD() || (stdPlanID != nil && plan.ID == *stdPlanID) {
		// The engine derives from STD, never for it.
		return nil, nil
	}

	win := domain.MaterializationWindow(s.now())

	std, err := s.effectiveSTD(ctx, room, stdPlanID, date, win)
	if err != nil {
		return nil, err
	}
	if std == nil {
		return nil, nil
	}

	derived := plan.Apply(*std)
	if derived.IsNegative() {
		return nil, nil
	}

	if win.Contains(date) {
		inserted, err := s.ledger.InsertDerivedPrice(ctx, domain.PriceDay{
			RoomTypeID: room.ID,
			RatePlanID: plan.ID,
			Date:       date,
			Price:      derived,
			Source:     domain.SourceDerived,
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			// Lost the insert race; the persisted row is the truth now.
			if pd, err := s.ledger.PlanPrice(ctx, room.ID, plan.ID, date); err == nil {
				return &pd.Price, nil
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
	}
	return &derived, nil
}

// effectiveSTD resolves the STD price a derivation starts from: the persisted
// STD row if any, else the room's base price. A base-price value is seeded
// into the ledger (insert-only) when the date is inside the window, so every
// derived row can be traced back to a persisted STD row.
func (s *PricingService) effectiveSTD(ctx context.Context, room domain.RoomType, stdPlanID *int64, date time.Time, win domain.DateRange) (*decimal.Decimal, error) {
	if stdPlanID != nil {
		if pd, err := s.ledger.PlanPrice(ctx, room.ID, *stdPlanID, date); err == nil {
			return &pd.Price, nil
		} else if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	if !room.BasePrice.Valid {
		return nil, nil
	}
	std := room.BasePrice.Decimal.Round(2)

	if stdPlanID != nil && win.Contains(date) {
		inserted, err := s.ledger.InsertDerivedPrice(ctx, domain.PriceDay{
			RoomTypeID: room.ID,
			RatePlanID: *stdPlanID,
			Date:       date,
			Price:      std,
			Source:     domain.SourceDerived,
		})
		if err != nil {
			return nil, err
		}
		if !inserted {
			if pd, err := s.ledger.PlanPrice(ctx, room.ID, *stdPlanID, date); err == nil {
				return &pd.Price, nil
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
		}
	}
	return &std, nil
}
