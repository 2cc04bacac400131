package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

const stdPlanPriority = 0 // canonical plan wins the any-plan fallback

// RoomSpec creates a room type; its STD plan is created with it.
type RoomSpec struct {
	Name      string
	BasePrice *float64
	Currency  string
}

type RoomPatch struct {
	Name         *string
	BasePrice    *float64
	BasePriceSet bool
	Currency     *string
	Active       *bool
}

type PlanSpec struct {
	Code     string
	Name     string
	Kind     domain.PlanKind
	Value    float64
	Priority *int
}

// PlanPatch changes a plan's rule going forward only; already-materialized
// days keep the price they were derived with.
type PlanPatch struct {
	Name     *string
	Kind     *domain.PlanKind
	Value    *float64
	Priority *int
	Active   *bool
}

// CatalogService owns room-type and rate-plan management plus the cached
// public projection of a partner's rooms.
type CatalogService struct {
	catalog  domain.CatalogRepository
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCatalogService(c domain.CatalogRepository, cache domain.Cache, ttl time.Duration) *CatalogService {
	return &CatalogService{catalog: c, cache: cache, cacheTTL: ttl}
}

// RateCatalog resolves the pricing shape of one owned room type.
func (s *CatalogService) RateCatalog(ctx context.Context, partnerID, roomTypeID int64) (domain.RateCatalog, error) {
	if _, err := s.ownedRoom(ctx, partnerID, roomTypeID); err != nil {
		return domain.RateCatalog{}, err
	}
	plans, err := s.catalog.RatePlansByRoomType(ctx, roomTypeID)
	if err != nil {
		return domain.RateCatalog{}, err
	}
	return domain.ResolveRateCatalog(plans), nil
}

func (s *CatalogService) Rooms(ctx context.Context, partnerID int64) ([]domain.RoomType, error) {
	return s.catalog.RoomTypesByPartner(ctx, partnerID, true)
}

func (s *CatalogService) Room(ctx context.Context, partnerID, roomTypeID int64) (domain.RoomType, error) {
	return s.ownedRoom(ctx, partnerID, roomTypeID)
}

// PublicRooms serves the unauthenticated catalog projection, cache-aside.
func (s *CatalogService) PublicRooms(ctx context.Context, partnerID int64) ([]domain.PublicRoom, error) {
	key := fmt.Sprintf("public:rooms:%d", partnerID)
	var cached []domain.PublicRoom
	if ok, _ := s.cache.Get(ctx, key, &cached); ok {
		return cached, nil
	}

	rooms, err := s.catalog.RoomTypesByPartner(ctx, partnerID, false)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PublicRoom, 0, len(rooms))
	for _, rt := range rooms {
		pr := domain.PublicRoom{ID: rt.ID, Name: rt.Name, Currency: rt.Currency}
		if rt.BasePrice.Valid {
			f, _ := rt.BasePrice.Decimal.Round(2).Float64()
			pr.BasePrice = &f
		}
		out = append(out, pr)
	}
	_ = s.cache.Set(ctx, key, out, int(s.cacheTTL.Seconds()))
	return out, nil
}

// CreateRoom inserts the room together with its STD plan so derivation has an
// anchor from the first read. The created STD plan is returned alongside.
func (s *CatalogService) CreateRoom(ctx context.Context, partnerID int64, spec RoomSpec) (domain.RoomType, domain.RatePlan, error) {
	rt := domain.RoomType{
		PartnerID: partnerID,
		Name:      strings.TrimSpace(spec.Name),
		Currency:  normalizeCurrency(spec.Currency),
		Active:    true,
	}
	if spec.BasePrice != nil {
		rt.BasePrice = decimal.NewNullDecimal(decimal.NewFromFloat(*spec.BasePrice).Round(2))
	}
	std := domain.RatePlan{
		PartnerID: partnerID,
		Code:      domain.STDPlanCode,
		Name:      "Standard",
		Kind:      domain.KindNone,
		Value:     decimal.Zero,
		Priority:  stdPlanPriority,
		Active:    true,
	}
	roomID, stdID, err := s.catalog.CreateRoomType(ctx, rt, std)
	if err != nil {
		return domain.RoomType{}, domain.RatePlan{}, err
	}
	s.invalidatePublic(ctx, partnerID)
	rt.ID = roomID
	std.ID = stdID
	std.RoomTypeID = roomID
	return rt, std, nil
}

func (s *CatalogService) UpdateRoom(ctx context.Context, partnerID, roomTypeID int64, patch RoomPatch) (domain.RoomType, error) {
	rt, err := s.ownedRoom(ctx, partnerID, roomTypeID)
	if err != nil {
		return domain.RoomType{}, err
	}
	if patch.Name != nil {
		rt.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.BasePriceSet {
		if patch.BasePrice != nil {
			rt.BasePrice = decimal.NewNullDecimal(decimal.NewFromFloat(*patch.BasePrice).Round(2))
		} else {
			rt.BasePrice = decimal.NullDecimal{}
		}
	}
	if patch.Currency != nil {
		rt.Currency = normalizeCurrency(*patch.Currency)
	}
	if patch.Active != nil {
		rt.Active = *patch.Active
	}
	if err := s.catalog.UpdateRoomType(ctx, rt); err != nil {
		return domain.RoomType{}, err
	}
	s.invalidatePublic(ctx, partnerID)
	return rt, nil
}

func (s *CatalogService) RatePlans(ctx context.Context, partnerID, roomTypeID int64) ([]domain.RatePlan, error) {
	if _, err := s.ownedRoom(ctx, partnerID, roomTypeID); err != nil {
		return nil, err
	}
	return s.catalog.RatePlansByRoomType(ctx, roomTypeID)
}

// CreatePlan adds a derived plan to an owned room. A second STD for the room
// is refused by the storage invariant, not by a read-then-check here.
func (s *CatalogService) CreatePlan(ctx context.Context, partnerID, roomTypeID int64, spec PlanSpec) (domain.RatePlan, error) {
	if _, err := s.ownedRoom(ctx, partnerID, roomTypeID); err != nil {
		return domain.RatePlan{}, err
	}
	p := domain.RatePlan{
		PartnerID:  partnerID,
		RoomTypeID: roomTypeID,
		Code:       strings.ToUpper(strings.TrimSpace(spec.Code)),
		Name:       strings.TrimSpace(spec.Name),
		Kind:       spec.Kind,
		Value:      decimal.NewFromFloat(spec.Value).Round(2),
		Priority:   100,
		Active:     true,
	}
	if spec.Priority != nil {
		p.Priority = *spec.Priority
	}
	id, err := s.catalog.CreateRatePlan(ctx, p)
	if err != nil {
		return domain.RatePlan{}, err
	}
	p.ID = id
	return p, nil
}

func (s *CatalogService) UpdatePlan(ctx context.Context, partnerID, planID int64, patch PlanPatch) (domain.RatePlan, error) {
	p, err := s.catalog.RatePlanByID(ctx, planID)
	if err != nil {
		return domain.RatePlan{}, err
	}
	if p.PartnerID != partnerID {
		return domain.RatePlan{}, domain.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Kind != nil {
		p.Kind = *patch.Kind
	}
	if patch.Value != nil {
		p.Value = decimal.NewFromFloat(*patch.Value).Round(2)
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if err := s.catalog.UpdateRatePlan(ctx, p); err != nil {
		return domain.RatePlan{}, err
	}
	return p, nil
}

func (s *CatalogService) ownedRoom(ctx context.Context, partnerID, roomTypeID int64) (domain.RoomType, error) {
	rt, err := s.catalog.RoomTypeByID(ctx, roomTypeID)
	if err != nil {
		return domain.RoomType{}, err
	}
	if rt.PartnerID != partnerID {
		return domain.RoomType{}, domain.ErrNotFound
	}
	return rt, nil
}

func (s *CatalogService) invalidatePublic(ctx context.Context, partnerID int64) {
	_ = s.cache.Del(ctx, fmt.Sprintf("public:rooms:%d", partnerID))
}

func normalizeCurrency(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	if c == "" {
		return "USD"
	}
	return c
}
