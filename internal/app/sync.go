package app

import (
	"context"
	"errors"
	"time"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// SyncReport summarizes one partner's PMS pull.
type SyncReport struct {
	Connected bool
	Rooms     int
	Upserted  int
	Skipped   int // links with no matching owned room
}

// SyncService pulls inventory snapshots from the PMS connector and applies
// them through the bulk gateway, so PMS data obeys the same validation and
// transaction rules as partner-entered data.
type SyncService struct {
	pms     domain.PMSClient
	catalog domain.CatalogRepository
	bulk    *BulkService
	now     func() time.Time
}

func NewSyncService(pms domain.PMSClient, catalog domain.CatalogRepository, bulk *BulkService, now func() time.Time) *SyncService {
	if now == nil {
		now = time.Now
	}
	return &SyncService{pms: pms, catalog: catalog, bulk: bulk, now: now}
}

// Status reports the connector's link state.
func (s *SyncService) Status(ctx context.Context) (domain.PMSStatus, error) {
	return s.pms.Status(ctx)
}

// SyncPartner refreshes the next `days` days of inventory for every linked
// room of the partner. A disconnected PMS is not an error; the partner is
// reported as skipped.
func (s *SyncService) SyncPartner(ctx context.Context, partnerID int64, days int) (SyncReport, error) {
	var rep SyncReport

	st, err := s.pms.Status(ctx)
	if err != nil {
		return rep, err
	}
	rep.Connected = st.Connected
	if !st.Connected {
		return rep, nil
	}

	links, err := s.pms.RoomLinks(ctx, partnerID)
	if err != nil {
		return rep, err
	}

	today := domain.DayOf(s.now())
	rng := domain.DateRange{Start: today, End: today.AddDate(0, 0, days)}

	for _, link := range links {
		rt, err := s.catalog.RoomTypeByID(ctx, link.RoomTypeID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				rep.Skipped++
				continue
			}
			return rep, err
		}
		if rt.PartnerID != partnerID {
			rep.Skipped++
			continue
		}

		snap, err := s.pms.InventorySnapshot(ctx, link.PMSRoomID, rng)
		if err != nil {
			return rep, err
		}
		items := make([]InventoryItem, 0, len(snap))
		for _, d := range snap {
			rooms := d.RoomsOpen
			closed := d.Closed
			items = append(items, InventoryItem{Date: d.Date, RoomsOpen: &rooms, Closed: &closed})
		}

		n, err := s.bulk.UpsertInventory(ctx, partnerID, link.RoomTypeID, items)
		if err != nil {
			return rep, err
		}
		rep.Rooms++
		rep.Upserted += n
	}
	return rep, nil
}
