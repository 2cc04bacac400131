package app_test

import (
	"context"
	"testing"

	"github.com/lolaelo-web/lolaelo-api/internal/app"
	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

func TestSyncPartner_AppliesSnapshots(t *testing.T) {
	cat, led, bulk := bulkFixture()
	pms := &fakePMS{
		status: domain.PMSStatus{Vendor: "cloudbeds", Connected: true},
		links: []domain.PMSRoomLink{
			{PMSRoomID: "CB-101", RoomTypeID: 1},
			{PMSRoomID: "CB-999", RoomTypeID: 42}, // nobody owns this one
		},
		snaps: map[string][]domain.PMSInventoryDay{
			"CB-101": {
				{Date: "2025-06-15", RoomsOpen: 4, Closed: false},
				{Date: "2025-06-16", RoomsOpen: 0, Closed: true},
				{Date: "bogus", RoomsOpen: 2}, // dropped by gateway validation
			},
		},
	}
	svc := app.NewSyncService(pms, cat, bulk, fixedNow)

	rep, err := svc.SyncPartner(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !rep.Connected || rep.Rooms != 1 || rep.Skipped != 1 || rep.Upserted != 2 {
		t.Fatalf("report wrong: %+v", rep)
	}
	if row, ok := led.invAt(7, 1, "2025-06-15"); !ok || row.RoomsOpen != 4 || row.Closed {
		t.Fatalf("snapshot day wrong: %+v ok=%v", row, ok)
	}
	if row, ok := led.invAt(7, 1, "2025-06-16"); !ok || row.RoomsOpen != 0 || !row.Closed {
		t.Fatalf("closed day wrong: %+v ok=%v", row, ok)
	}
}

func TestSyncPartner_DisconnectedPMSIsNoop(t *testing.T) {
	cat, led, bulk := bulkFixture()
	pms := &fakePMS{status: domain.PMSStatus{Vendor: "cloudbeds", Connected: false}}
	svc := app.NewSyncService(pms, cat, bulk, fixedNow)

	rep, err := svc.SyncPartner(context.Background(), 7, 30)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if rep.Connected || rep.Rooms != 0 || rep.Upserted != 0 {
		t.Fatalf("disconnected sync must be a no-op: %+v", rep)
	}
	if led.priceCount() != 0 {
		t.Fatalf("nothing may be written")
	}
}
