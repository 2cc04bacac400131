package app_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// ---- helpers ----

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func nullDec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func day(s string) time.Time {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ---- fakes ----

type fakeCatalog struct {
	mu     sync.Mutex
	rooms  map[int64]domain.RoomType
	plans  map[int64]domain.RatePlan
	nextID int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{rooms: map[int64]domain.RoomType{}, plans: map[int64]domain.RatePlan{}, nextID: 1}
}

func (f *fakeCatalog) id() int64 {
	id := f.nextID
	f.nextID++
	return id
}

func (f *fakeCatalog) addRoom(rt domain.RoomType) domain.RoomType {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt.ID == 0 {
		rt.ID = f.id()
	}
	f.rooms[rt.ID] = rt
	return rt
}

func (f *fakeCatalog) addPlan(p domain.RatePlan) domain.RatePlan {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		p.ID = f.id()
	}
	f.plans[p.ID] = p
	return p
}

func (f *fakeCatalog) RoomTypeByID(ctx context.Context, id int64) (domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.rooms[id]
	if !ok {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}

func (f *fakeCatalog) RoomTypesByPartner(ctx context.Context, partnerID int64, includeInactive bool) ([]domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoomType
	for _, rt := range f.rooms {
		if rt.PartnerID != partnerID {
			continue
		}
		if !includeInactive && !rt.Active {
			continue
		}
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) RoomTypesByIDs(ctx context.Context, partnerID int64, ids []int64) ([]domain.RoomType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RoomType
	for _, id := range ids {
		rt, ok := f.rooms[id]
		if ok && rt.PartnerID == partnerID {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateRoomType(ctx context.Context, rt domain.RoomType, std domain.RatePlan) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt.ID = f.id()
	f.rooms[rt.ID] = rt
	std.ID = f.id()
	std.RoomTypeID = rt.ID
	f.plans[std.ID] = std
	return rt.ID, std.ID, nil
}

func (f *fakeCatalog) UpdateRoomType(ctx context.Context, rt domain.RoomType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[rt.ID]; !ok {
		return domain.ErrNotFound
	}
	f.rooms[rt.ID] = rt
	return nil
}

func (f *fakeCatalog) RatePlanByID(ctx context.Context, id int64) (domain.RatePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok {
		return domain.RatePlan{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) RatePlansByRoomType(ctx context.Context, roomTypeID int64) ([]domain.RatePlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.RatePlan
	for _, p := range f.plans {
		if p.RoomTypeID == roomTypeID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCatalog) CreateRatePlan(ctx context.Context, p domain.RatePlan) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.plans {
		if ex.RoomTypeID != p.RoomTypeID || ex.Code != p.Code {
			continue
		}
		if p.Code == domain.STDPlanCode {
			return 0, domain.ErrSTDPlanExists
		}
		return 0, domain.ErrPlanCodeExists
	}
	p.ID = f.id()
	f.plans[p.ID] = p
	return p.ID, nil
}

func (f *fakeCatalog) UpdateRatePlan(ctx context.Context, p domain.RatePlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.plans[p.ID]; !ok {
		return domain.ErrNotFound
	}
	f.plans[p.ID] = p
	return nil
}

type invKey struct {
	partner, room int64
	day           string
}

type priceKey struct {
	room, plan int64
	day        string
}

type fakeLedger struct {
	mu           sync.Mutex
	inv          map[invKey]domain.InventoryDay
	prices       map[priceKey]domain.PriceDay
	planPriority map[int64]int
	inserts      int                  // rows created through InsertDerivedPrice
	conflicts    int                  // insert attempts that found a row
	onInsert     func(domain.PriceDay) // runs before the existence check, for race tests
	delay        time.Duration
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		inv:          map[invKey]domain.InventoryDay{},
		prices:       map[priceKey]domain.PriceDay{},
		planPriority: map[int64]int{},
	}
}

func (f *fakeLedger) stall(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeLedger) put(pd domain.PriceDay) {
	f.prices[priceKey{pd.RoomTypeID, pd.RatePlanID, domain.FormatDay(pd.Date)}] = pd
}

func (f *fakeLedger) priceCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prices)
}

func (f *fakeLedger) priceAt(room, plan int64, d string) (domain.PriceDay, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pd, ok := f.prices[priceKey{room, plan, d}]
	return pd, ok
}

func (f *fakeLedger) invAt(partner, room int64, d string) (domain.InventoryDay, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	iv, ok := f.inv[invKey{partner, room, d}]
	return iv, ok
}

func (f *fakeLedger) InventoryRange(ctx context.Context, partnerID, roomTypeID int64, r domain.DateRange) ([]domain.InventoryDay, error) {
	if err := f.stall(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.InventoryDay
	for _, iv := range f.inv {
		if iv.PartnerID == partnerID && iv.RoomTypeID == roomTypeID && r.Contains(iv.Date) {
			out = append(out, iv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeLedger) PricesByRange(ctx context.Context, roomTypeID int64, r domain.DateRange) ([]domain.PriceDay, error) {
	if err := f.stall(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PriceDay
	for _, pd := range f.prices {
		if pd.RoomTypeID == roomTypeID && r.Contains(pd.Date) {
			out = append(out, pd)
		}
	}
	prio := func(id int64) int {
		if p, ok := f.planPriority[id]; ok {
			return p
		}
		return 100
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if prio(out[i].RatePlanID) != prio(out[j].RatePlanID) {
			return prio(out[i].RatePlanID) < prio(out[j].RatePlanID)
		}
		return out[i].RatePlanID < out[j].RatePlanID
	})
	return out, nil
}

func (f *fakeLedger) PlanPricesByRange(ctx context.Context, roomTypeID, ratePlanID int64, r domain.DateRange) ([]domain.PriceDay, error) {
	if err := f.stall(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PriceDay
	for _, pd := range f.prices {
		if pd.RoomTypeID == roomTypeID && pd.RatePlanID == ratePlanID && r.Contains(pd.Date) {
			out = append(out, pd)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeLedger) PlanPrice(ctx context.Context, roomTypeID, ratePlanID int64, date time.Time) (domain.PriceDay, error) {
	if err := f.stall(ctx); err != nil {
		return domain.PriceDay{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	pd, ok := f.prices[priceKey{roomTypeID, ratePlanID, domain.FormatDay(date)}]
	if !ok {
		return domain.PriceDay{}, domain.ErrNotFound
	}
	return pd, nil
}

func (f *fakeLedger) InsertDerivedPrice(ctx context.Context, pd domain.PriceDay) (bool, error) {
	if err := f.stall(ctx); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.onInsert != nil {
		f.onInsert(pd)
	}
	k := priceKey{pd.RoomTypeID, pd.RatePlanID, domain.FormatDay(pd.Date)}
	if _, ok := f.prices[k]; ok {
		f.conflicts++
		return false, nil
	}
	f.prices[k] = pd
	f.inserts++
	return true, nil
}

func (f *fakeLedger) BulkUpsertInventory(ctx context.Context, partnerID, roomTypeID int64, patches []domain.InventoryPatch) (int, error) {
	if err := f.stall(ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range patches {
		k := invKey{partnerID, roomTypeID, domain.FormatDay(p.Date)}
		row, ok := f.inv[k]
		if !ok {
			row = domain.InventoryDay{PartnerID: partnerID, RoomTypeID: roomTypeID, Date: p.Date}
		}
		if p.RoomsOpen != nil {
			row.RoomsOpen = *p.RoomsOpen
		}
		if p.MinStaySet {
			row.MinStay = p.MinStay
		}
		if p.Closed != nil {
			row.Closed = *p.Closed
		}
		f.inv[k] = row
	}
	return len(patches), nil
}

func (f *fakeLedger) BulkUpsertPrices(ctx context.Context, roomTypeID int64, patches []domain.PricePatch) (int, error) {
	if err := f.stall(ctx); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range patches {
		f.prices[priceKey{roomTypeID, p.RatePlanID, domain.FormatDay(p.Date)}] = domain.PriceDay{
			RoomTypeID: roomTypeID,
			RatePlanID: p.RatePlanID,
			Date:       p.Date,
			Price:      p.Price,
			Source:     domain.SourceExplicit,
		}
	}
	return len(patches), nil
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]domain.PartnerSession
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: map[string]domain.PartnerSession{}}
}

func (f *fakeSessions) add(s domain.PartnerSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[s.Token] = s
}

func (f *fakeSessions) drop(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
}

func (f *fakeSessions) PartnerBySessionToken(ctx context.Context, token string) (domain.PartnerSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[token]
	if !ok {
		return domain.PartnerSession{}, domain.ErrNotFound
	}
	return s, nil
}

type fakePMS struct {
	status domain.PMSStatus
	links  []domain.PMSRoomLink
	snaps  map[string][]domain.PMSInventoryDay
}

func (f *fakePMS) Status(ctx context.Context) (domain.PMSStatus, error) { return f.status, nil }

func (f *fakePMS) RoomLinks(ctx context.Context, partnerID int64) ([]domain.PMSRoomLink, error) {
	return f.links, nil
}

func (f *fakePMS) InventorySnapshot(ctx context.Context, pmsRoomID string, r domain.DateRange) ([]domain.PMSInventoryDay, error) {
	return f.snaps[pmsRoomID], nil
}
