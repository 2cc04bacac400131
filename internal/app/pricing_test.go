package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lolaelo-web/lolaelo-api/internal/app"
	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

func fixedNow() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }

func seaView() domain.RoomType {
	return domain.RoomType{ID: 1, PartnerID: 7, Name: "Sea View", BasePrice: nullDec("100"), Currency: "USD", Active: true}
}

func brkfPlan() domain.RatePlan {
	return domain.RatePlan{ID: 11, PartnerID: 7, RoomTypeID: 1, Code: "BRKF", Name: "Breakfast", Kind: domain.KindAbsolute, Value: dec("15"), Priority: 100, Active: true}
}

func TestResolveOrMaterialize_PersistsOnceInsideWindow(t *testing.T) {
	led := newFakeLedger()
	svc := app.NewPricingService(led, fixedNow)
	room, plan, stdID := seaView(), brkfPlan(), int64(10)
	date := day("2025-06-20")

	p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, date)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p == nil || !p.Equal(dec("115")) {
		t.Fatalf("want 115, got %v", p)
	}
	// STD seeded from base plus the derived row itself.
	if led.priceCount() != 2 || led.inserts != 2 {
		t.Fatalf("want 2 persisted rows, got count=%d inserts=%d", led.priceCount(), led.inserts)
	}
	if pd, ok := led.priceAt(1, 10, "2025-06-20"); !ok || !pd.Price.Equal(dec("100")) || pd.Source != domain.SourceDerived {
		t.Fatalf("std seed row wrong: %+v ok=%v", pd, ok)
	}

	// Second call is a pure read: same value, nothing new written.
	p2, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, date)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p2 == nil || !p2.Equal(dec("115")) {
		t.Fatalf("want 115 on repeat, got %v", p2)
	}
	if led.inserts != 2 || led.conflicts != 0 {
		t.Fatalf("repeat call mutated the ledger: inserts=%d conflicts=%d", led.inserts, led.conflicts)
	}
}

func TestResolveOrMaterialize_OutsideWindowComputesOnly(t *testing.T) {
	led := newFakeLedger()
	svc := app.NewPricingService(led, fixedNow)
	room, plan, stdID := seaView(), brkfPlan(), int64(10)

	for _, d := range []string{"2025-06-12", "2025-12-15", "2026-03-01"} {
		p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, day(d))
		if err != nil {
			t.Fatalf("%s: err: %v", d, err)
		}
		if p == nil || !p.Equal(dec("115")) {
			t.Fatalf("%s: want 115, got %v", d, p)
		}
	}
	if led.priceCount() != 0 {
		t.Fatalf("out-of-window dates must not persist, got %d rows", led.priceCount())
	}
}

func TestResolveOrMaterialize_PersistedSTDBeatsBase(t *testing.T) {
	led := newFakeLedger()
	led.put(domain.PriceDay{RoomTypeID: 1, RatePlanID: 10, Date: day("2025-06-20"), Price: dec("120"), Source: domain.SourceExplicit})
	svc := app.NewPricingService(led, fixedNow)
	room, plan, stdID := seaView(), brkfPlan(), int64(10)

	p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, day("2025-06-20"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p == nil || !p.Equal(dec("135")) {
		t.Fatalf("want 135 from persisted STD 120, got %v", p)
	}
}

func TestResolveOrMaterialize_PersistedRowIgnoresRuleChange(t *testing.T) {
	led := newFakeLedger()
	led.put(domain.PriceDay{RoomTypeID: 1, RatePlanID: 11, Date: day("2025-06-20"), Price: dec("999"), Source: domain.SourceDerived})
	svc := app.NewPricingService(led, fixedNow)
	room, plan, stdID := seaView(), brkfPlan(), int64(10)
	plan.Value = dec("50") // rule changed after materialization

	p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, day("2025-06-20"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p == nil || !p.Equal(dec("999")) {
		t.Fatalf("persisted value must win, got %v", p)
	}
}

func TestResolveOrMaterialize_NullResolutions(t *testing.T) {
	led := newFakeLedger()
	svc := app.NewPricingService(led, fixedNow)
	stdID := int64(10)
	date := day("2025-06-20")

	t.Run("inactive plan", func(t *testing.T) {
		plan := brkfPlan()
		plan.Active = false
		p, err := svc.ResolveOrMaterialize(context.Background(), seaView(), plan, &stdID, date)
		if err != nil || p != nil {
			t.Fatalf("want nil,nil got %v,%v", p, err)
		}
	})
	t.Run("std requested directly", func(t *testing.T) {
		std := domain.RatePlan{ID: 10, PartnerID: 7, RoomTypeID: 1, Code: "STD", Name: "Standard", Kind: domain.KindNone, Active: true}
		p, err := svc.ResolveOrMaterialize(context.Background(), seaView(), std, &stdID, date)
		if err != nil || p != nil {
			t.Fatalf("want nil,nil got %v,%v", p, err)
		}
	})
	t.Run("foreign room", func(t *testing.T) {
		plan := brkfPlan()
		plan.RoomTypeID = 99
		p, err := svc.ResolveOrMaterialize(context.Background(), seaView(), plan, &stdID, date)
		if err != nil || p != nil {
			t.Fatalf("want nil,nil got %v,%v", p, err)
		}
	})
	t.Run("no std and no base", func(t *testing.T) {
		room := seaView()
		room.BasePrice = decimal.NullDecimal{}
		p, err := svc.ResolveOrMaterialize(context.Background(), room, brkfPlan(), &stdID, date)
		if err != nil || p != nil {
			t.Fatalf("want nil,nil got %v,%v", p, err)
		}
	})
	if led.priceCount() != 0 {
		t.Fatalf("null resolutions must not persist, got %d rows", led.priceCount())
	}
}

func TestResolveOrMaterialize_NegativeResultIsNull(t *testing.T) {
	led := newFakeLedger()
	svc := app.NewPricingService(led, fixedNow)
	room := seaView()
	room.BasePrice = nullDec("50")
	plan := brkfPlan()
	plan.Code = "PROMO"
	plan.Value = dec("-60")
	stdID := int64(10)
	date := day("2025-06-20")

	p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, date)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != nil {
		t.Fatalf("negative result must resolve to null, got %v", p)
	}
	// The STD seed from step one stays; the negative derived row is never written.
	if _, ok := led.priceAt(1, 10, "2025-06-20"); !ok {
		t.Fatalf("std seed expected")
	}
	if _, ok := led.priceAt(1, 11, "2025-06-20"); ok {
		t.Fatalf("negative derived row must not be persisted")
	}
}

func TestResolveOrMaterialize_LostRaceReturnsPersisted(t *testing.T) {
	led := newFakeLedger()
	led.put(domain.PriceDay{RoomTypeID: 1, RatePlanID: 10, Date: day("2025-06-20"), Price: dec("100"), Source: domain.SourceDerived})
	led.onInsert = func(pd domain.PriceDay) {
		if pd.RatePlanID == 11 {
			// A concurrent request derived from a different STD snapshot.
			led.put(domain.PriceDay{RoomTypeID: 1, RatePlanID: 11, Date: pd.Date, Price: dec("111"), Source: domain.SourceDerived})
		}
	}
	svc := app.NewPricingService(led, fixedNow)
	room, plan, stdID := seaView(), brkfPlan(), int64(10)

	p, err := svc.ResolveOrMaterialize(context.Background(), room, plan, &stdID, day("2025-06-20"))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p == nil || !p.Equal(dec("111")) {
		t.Fatalf("loser must return the persisted value, got %v", p)
	}
	if led.conflicts != 1 {
		t.Fatalf("want 1 conflict, got %d", led.conflicts)
	}
}
