package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// CalendarService assembles per-date availability and price rows for a set of
// room types. Assembly is a read with a deliberate side effect: missing
// derived prices inside the window are materialized while serving it.
type CalendarService struct {
	catalog domain.CatalogRepository
	ledger  domain.LedgerRepository
	pricing *PricingService
	budget  time.Duration
	workers int
}

func NewCalendarService(catalog domain.CatalogRepository, ledger domain.LedgerRepository, pricing *PricingService, budget time.Duration, workers int) *CalendarService {
	if budget <= 0 {
		budget = 2 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	return &CalendarService{catalog: catalog, ledger: ledger, pricing: pricing, budget: budget, workers: workers}
}

// Assemble builds one RoomCalendar per requested room, in request order.
// A room that exhausts its per-room budget is omitted rather than failing the
// whole call; a room with no inventory and no price signal across the range
// is dropped from the output.
func (s *CalendarService) Assemble(ctx context.Context, q domain.CalendarQuery) ([]domain.RoomCalendar, error) {
	if !q.Range.Valid() {
		return nil, domain.ErrInvalidDate
	}

	var (
		rooms []domain.RoomType
		err   error
	)
	if len(q.RoomTypeIDs) > 0 {
		rooms, err = s.catalog.RoomTypesByIDs(ctx, q.PartnerID, q.RoomTypeIDs)
	} else {
		rooms, err = s.catalog.RoomTypesByPartner(ctx, q.PartnerID, false)
	}
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	results := make([]*domain.RoomCalendar, len(rooms))
	for i, rt := range rooms {
		g.Go(func() error {
			rctx, cancel := context.WithTimeout(gctx, s.budget)
			defer cancel()
			cal, err := s.assembleRoom(rctx, rt, q)
			if err != nil {
				if rctx.Err() != nil && gctx.Err() == nil {
					// Budget ran out for this room only; omit it.
					log.Warn().Int64("room_type_id", rt.ID).Dur("budget", s.budget).Msg("calendar room omitted after budget timeout")
					return nil
				}
				return err
			}
			results[i] = cal
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]domain.RoomCalendar, 0, len(results))
	for _, c := range results {
		if c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// assembleRoom returns nil for a room dropped by the no-signal rule.
func (s *CalendarService) assembleRoom(ctx context.Context, room domain.RoomType, q domain.CalendarQuery) (*domain.RoomCalendar, error) {
	plans, err := s.catalog.RatePlansByRoomType(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	cat := domain.ResolveRateCatalog(plans)

	inv, err := s.ledger.InventoryRange(ctx, room.PartnerID, room.ID, q.Range)
	if err != nil {
		return nil, err
	}
	invByDay := make(map[string]domain.InventoryDay, len(inv))
	for _, d := range inv {
		invByDay[domain.FormatDay(d.Date)] = d
	}

	var (
		series       map[string]decimal.Decimal
		persisted    int
		computed     int
		baseFallback bool
		byPlan       map[int64][]domain.CalendarDay
	)

	switch {
	case q.RatePlanID != nil:
		// Pinned to one plan: persisted rows, engine for the gaps, and no
		// base-price substitution whatsoever.
		plan, ok := planByID(plans, *q.RatePlanID)
		if ok && plan.RoomTypeID == room.ID {
			series, persisted, computed, err = s.planSeries(ctx, room, plan, cat.StdPlanID, q.Range)
			if err != nil {
				return nil, err
			}
		} else {
			series = map[string]decimal.Decimal{}
		}

	case q.ExpandPlans:
		byPlan = make(map[int64][]domain.CalendarDay, len(cat.DerivedPlans)+1)
		for _, dp := range cat.DerivedPlans {
			plan, ok := planByID(plans, dp.ID)
			if !ok {
				continue
			}
			ps, p, c, err := s.planSeries(ctx, room, plan, cat.StdPlanID, q.Range)
			if err != nil {
				return nil, err
			}
			persisted += p
			computed += c
			byPlan[dp.ID] = buildDaily(room, q.Range, invByDay, ps, false)
		}
		if cat.StdPlanID != nil {
			// Read STD after the derived fills so freshly seeded rows show up.
			rows, err := s.ledger.PlanPricesByRange(ctx, room.ID, *cat.StdPlanID, q.Range)
			if err != nil {
				return nil, err
			}
			stdSeries := make(map[string]decimal.Decimal, len(rows))
			for _, r := range rows {
				stdSeries[domain.FormatDay(r.Date)] = r.Price
			}
			persisted += len(rows)
			byPlan[*cat.StdPlanID] = buildDaily(room, q.Range, invByDay, stdSeries, true)
		}
		rows, err := s.ledger.PricesByRange(ctx, room.ID, q.Range)
		if err != nil {
			return nil, err
		}
		series = firstPerDay(rows)
		baseFallback = true

	default:
		rows, err := s.ledger.PricesByRange(ctx, room.ID, q.Range)
		if err != nil {
			return nil, err
		}
		series = firstPerDay(rows)
		persisted = len(rows)
		baseFallback = true
	}

	if len(inv) == 0 && persisted == 0 && computed == 0 {
		return nil, nil
	}

	return &domain.RoomCalendar{
		RoomTypeID: room.ID,
		RoomName:   room.Name,
		Daily:      buildDaily(room, q.Range, invByDay, series, baseFallback),
		ByPlan:     byPlan,
	}, nil
}

// planSeries resolves one plan's prices across the range, filling gaps
// through the derivation engine. It reports persisted-row and engine-resolved
// counts so the caller can apply the no-signal drop rule.
func (s *CalendarService) planSeries(ctx context.Context, room domain.RoomType, plan domain.RatePlan, stdPlanID *int64, rng domain.DateRange) (map[string]decimal.Decimal, int, int, error) {
	rows, err := s.ledger.PlanPricesByRange(ctx, room.ID, plan.ID, rng)
	if err != nil {
		return nil, 0, 0, err
	}
	series := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		series[domain.FormatDay(r.Date)] = r.Price
	}
	persisted := len(rows)

	computed := 0
	var walkErr error
	rng.EachDay(func(d time.Time) {
		if walkErr != nil {
			return
		}
		k := domain.FormatDay(d)
		if _, ok := series[k]; ok {
			return
		}
		p, err := s.pricing.ResolveOrMaterialize(ctx, room, plan, stdPlanID, d)
		if err != nil {
			walkErr = err
			return
		}
		if p != nil {
			series[k] = *p
			computed++
		}
	})
	if walkErr != nil {
		return nil, 0, 0, walkErr
	}
	return series, persisted, computed, nil
}

// firstPerDay keeps the first row seen per date; rows arrive ordered by
// (date, plan priority, plan id) so the first one is the winner.
func firstPerDay(rows []domain.PriceDay) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		k := domain.FormatDay(r.Date)
		if _, ok := out[k]; !ok {
			out[k] = r.Price
		}
	}
	return out
}

// buildDaily merges inventory and prices into one row per date. A date with
// no inventory row is emitted as zero rooms and closed, never skipped.
func buildDaily(room domain.RoomType, rng domain.DateRange, invByDay map[string]domain.InventoryDay, series map[string]decimal.Decimal, baseFallback bool) []domain.CalendarDay {
	days := make([]domain.CalendarDay, 0, rng.Days())
	rng.EachDay(func(d time.Time) {
		day := domain.CalendarDay{Date: d, Closed: true}
		if iv, ok := invByDay[domain.FormatDay(d)]; ok {
			day.Inventory = iv.RoomsOpen
			day.Closed = iv.Closed
			day.MinStay = iv.MinStay
		}
		if p, ok := series[domain.FormatDay(d)]; ok {
			price := p
			cur := room.Currency
			day.Price = &price
			day.Currency = &cur
		} else if baseFallback && room.BasePrice.Valid {
			price := room.BasePrice.Decimal.Round(2)
			cur := room.Currency
			day.Price = &price
			day.Currency = &cur
		}
		days = append(days, day)
	})
	return days
}

func planByID(plans []domain.RatePlan, id int64) (domain.RatePlan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return domain.RatePlan{}, false
}
