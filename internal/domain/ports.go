package domain

import (
	"context"
	"time"
)

// CatalogRepository persists room types and rate plans.
type CatalogRepository interface {
	RoomTypeByID(ctx context.Context, id int64) (RoomType, error)
	RoomTypesByPartner(ctx context.Context, partnerID int64, includeInactive bool) ([]RoomType, error)
	RoomTypesByIDs(ctx context.Context, partnerID int64, ids []int64) ([]RoomType, error)
	// CreateRoomType inserts the room and its STD plan in one transaction so
	// no room is ever observable without its canonical plan.
	CreateRoomType(ctx context.Context, rt RoomType, std RatePlan) (roomID int64, stdPlanID int64, err error)
	UpdateRoomType(ctx context.Context, rt RoomType) error

	RatePlanByID(ctx context.Context, id int64) (RatePlan, error)
	RatePlansByRoomType(ctx context.Context, roomTypeID int64) ([]RatePlan, error)
	CreateRatePlan(ctx context.Context, p RatePlan) (int64, error)
	UpdateRatePlan(ctx context.Context, p RatePlan) error
}

// LedgerRepository persists per-date inventory and prices.
type LedgerRepository interface {
	InventoryRange(ctx context.Context, partnerID, roomTypeID int64, r DateRange) ([]InventoryDay, error)
	// PricesByRange returns rows ordered by (date, plan priority, plan id);
	// the calendar assembler takes the first row per date as the winner.
	PricesByRange(ctx context.Context, roomTypeID int64, r DateRange) ([]PriceDay, error)
	PlanPricesByRange(ctx context.Context, roomTypeID, ratePlanID int64, r DateRange) ([]PriceDay, error)
	PlanPrice(ctx context.Context, roomTypeID, ratePlanID int64, date time.Time) (PriceDay, error)

	// InsertDerivedPrice never overwrites. It reports whether this call
	// created the row; false means another writer got there first.
	InsertDerivedPrice(ctx context.Context, pd PriceDay) (bool, error)

	// Bulk writes run the whole batch in one transaction and return the row
	// count applied.
	BulkUpsertInventory(ctx context.Context, partnerID, roomTypeID int64, patches []InventoryPatch) (int, error)
	BulkUpsertPrices(ctx context.Context, roomTypeID int64, patches []PricePatch) (int, error)
}

// SessionRepository reads sessions issued by the external login service.
type SessionRepository interface {
	PartnerBySessionToken(ctx context.Context, token string) (PartnerSession, error)
}

// Cache is a read-through JSON cache.
type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// PMS shapes mirror the mock connector's JSON contract.
type PMSStatus struct {
	Vendor    string
	Connected bool
}

type PMSRoomLink struct {
	PMSRoomID  string
	RoomTypeID int64
}

type PMSInventoryDay struct {
	Date      string // YYYY-MM-DD as sent by the PMS
	RoomsOpen int
	Closed    bool
}

// PMSClient talks to the property-management-system connector.
type PMSClient interface {
	Status(ctx context.Context) (PMSStatus, error)
	RoomLinks(ctx context.Context, partnerID int64) ([]PMSRoomLink, error)
	InventorySnapshot(ctx context.Context, pmsRoomID string, r DateRange) ([]PMSInventoryDay, error)
}
