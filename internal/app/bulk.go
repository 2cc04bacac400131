package app

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// Validation bounds for gateway items. Out-of-range items are skipped, not
// rejected; the batch itself still succeeds.
const (
	maxRoomsOpen = 10000
	maxMinStay   = 365
	maxPrice     = 1e8 // DECIMAL(10,2) ceiling
)

// InventoryItem is one raw gateway item. Pointer fields mirror the payload's
// field subset; MinStaySet distinguishes an explicit null from an absent key.
type InventoryItem struct {
	Date       string
	RoomsOpen  *int
	MinStay    *int
	MinStaySet bool
	Closed     *bool
}

// PriceItem is one raw explicit-price item, always full-field.
type PriceItem struct {
	Date       string
	RatePlanID int64
	Price      *float64
}

// BulkService is the bulk upsert gateway: it screens items, drops invalid
// ones silently, and hands the survivors to storage as one transaction.
type BulkService struct {
	catalog domain.CatalogRepository
	ledger  domain.LedgerRepository
}

func NewBulkService(catalog domain.CatalogRepository, ledger domain.LedgerRepository) *BulkService {
	return &BulkService{catalog: catalog, ledger: ledger}
}

// UpsertInventory applies a batch of per-date inventory patches to one room
// type. Only fields present in an item are written on update; an insert
// defaults the rest. Returns how many items were applied.
func (s *BulkService) UpsertInventory(ctx context.Context, partnerID, roomTypeID int64, items []InventoryItem) (int, error) {
	if _, err := s.ownedRoom(ctx, partnerID, roomTypeID); err != nil {
		return 0, err
	}

	patches := make([]domain.InventoryPatch, 0, len(items))
	for _, it := range items {
		d, err := domain.ParseDay(it.Date)
		if err != nil {
			continue
		}
		if it.RoomsOpen != nil && (*it.RoomsOpen < 0 || *it.RoomsOpen > maxRoomsOpen) {
			continue
		}
		if it.MinStay != nil && (*it.MinStay < 1 || *it.MinStay > maxMinStay) {
			continue
		}
		patches = append(patches, domain.InventoryPatch{
			Date:       d,
			RoomsOpen:  it.RoomsOpen,
			MinStay:    it.MinStay,
			MinStaySet: it.MinStaySet,
			Closed:     it.Closed,
		})
	}
	if skipped := len(items) - len(patches); skipped > 0 {
		log.Warn().Int64("room_type_id", roomTypeID).Int("skipped", skipped).Msg("invalid inventory items skipped")
	}
	if len(patches) == 0 {
		return 0, nil
	}
	return s.ledger.BulkUpsertInventory(ctx, partnerID, roomTypeID, patches)
}

// UpsertPrices applies a batch of explicit nightly prices. This is the only
// path allowed to overwrite a previously derived value.
func (s *BulkService) UpsertPrices(ctx context.Context, partnerID, roomTypeID int64, items []PriceItem) (int, error) {
	if _, err := s.ownedRoom(ctx, partnerID, roomTypeID); err != nil {
		return 0, err
	}
	plans, err := s.catalog.RatePlansByRoomType(ctx, roomTypeID)
	if err != nil {
		return 0, err
	}
	owned := make(map[int64]bool, len(plans))
	for _, p := range plans {
		owned[p.ID] = true
	}

	patches := make([]domain.PricePatch, 0, len(items))
	for _, it := range items {
		d, err := domain.ParseDay(it.Date)
		if err != nil {
			continue
		}
		if !owned[it.RatePlanID] {
			continue
		}
		if it.Price == nil || math.IsNaN(*it.Price) || math.IsInf(*it.Price, 0) {
			continue
		}
		if *it.Price < 0 || *it.Price >= maxPrice {
			continue
		}
		patches = append(patches, domain.PricePatch{
			Date:       d,
			RatePlanID: it.RatePlanID,
			Price:      decimal.NewFromFloat(*it.Price).Round(2),
		})
	}
	if skipped := len(items) - len(patches); skipped > 0 {
		log.Warn().Int64("room_type_id", roomTypeID).Int("skipped", skipped).Msg("invalid price items skipped")
	}
	if len(patches) == 0 {
		return 0, nil
	}
	return s.ledger.BulkUpsertPrices(ctx, roomTypeID, patches)
}

func (s *BulkService) ownedRoom(ctx context.Context, partnerID, roomTypeID int64) (domain.RoomType, error) {
	rt, err := s.catalog.RoomTypeByID(ctx, roomTypeID)
	if err != nil {
		return domain.RoomType{}, err
	}
	if rt.PartnerID != partnerID {
		// Hide other partners' rooms rather than confirming they exist.
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}
