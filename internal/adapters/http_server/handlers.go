// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/lolaelo-web/lolaelo-api/internal/adapters/observability"
	"github.com/lolaelo-web/lolaelo-api/internal/app"
	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

type Handlers struct {
	Catalog  *app.CatalogService
	Calendar *app.CalendarService
	Bulk     *app.BulkService
	Sessions *app.SessionService
	Sync     *app.SyncService
}

var validate = validator.New()

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/public/partners/{partnerID}/rooms", h.publicRooms)
	s.mux.Get("/v1/public/partners/{partnerID}/calendar", h.publicCalendar)

	s.mux.Route("/v1/extranet", func(r chi.Router) {
		r.Use(Auth(h.Sessions))
		r.Get("/rooms", h.listRooms)
		r.Post("/rooms", h.createRoom)
		r.Get("/rooms/{roomID}", h.getRoom)
		r.Patch("/rooms/{roomID}", h.updateRoom)
		r.Get("/rooms/{roomID}/plans", h.listPlans)
		r.Post("/rooms/{roomID}/plans", h.createPlan)
		r.Get("/rooms/{roomID}/catalog", h.rateCatalog)
		r.Patch("/plans/{planID}", h.updatePlan)
		r.Get("/calendar", h.calendar)
		r.Put("/rooms/{roomID}/inventory", h.bulkInventory)
		r.Put("/rooms/{roomID}/prices", h.bulkPrices)
		r.Get("/pms/status", h.pmsStatus)
		r.Post("/pms/sync", h.pmsSync)
	})
}

// ---- request/response shapes ----

// OptFloat distinguishes a key set to null from an absent key.
type OptFloat struct {
	Set   bool
	Value *float64
}

func (o *OptFloat) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// OptInt is OptFloat for integer fields (minStay null clears the restriction).
type OptInt struct {
	Set   bool
	Value *int
}

func (o *OptInt) UnmarshalJSON(b []byte) error {
	o.Set = true
	if string(b) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

type createRoomReq struct {
	Name      string   `json:"name" validate:"required,max=120"`
	BasePrice *float64 `json:"basePrice" validate:"omitempty,gte=0"`
	Currency  string   `json:"currency" validate:"omitempty,alpha,len=3"`
}

type updateRoomReq struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=120"`
	BasePrice OptFloat `json:"basePrice"`
	Currency  *string  `json:"currency" validate:"omitempty,alpha,len=3"`
	Active    *bool    `json:"active"`
}

type createPlanReq struct {
	Code     string  `json:"code" validate:"required,alphanum,max=16"`
	Name     string  `json:"name" validate:"required,max=120"`
	Kind     string  `json:"kind" validate:"required,oneof=NONE ABSOLUTE PERCENT"`
	Value    float64 `json:"value"`
	Priority *int    `json:"priority" validate:"omitempty,gte=0,lte=1000"`
}

type updatePlanReq struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=120"`
	Kind     *string  `json:"kind" validate:"omitempty,oneof=NONE ABSOLUTE PERCENT"`
	Value    *float64 `json:"value"`
	Priority *int     `json:"priority" validate:"omitempty,gte=0,lte=1000"`
	Active   *bool    `json:"active"`
}

type inventoryItemReq struct {
	Date      string `json:"date"`
	RoomsOpen *int   `json:"roomsOpen"`
	MinStay   OptInt `json:"minStay"`
	Closed    *bool  `json:"closed"`
}

type bulkInventoryReq struct {
	Items []inventoryItemReq `json:"items" validate:"required,min=1,max=1000"`
}

type priceItemReq struct {
	Date       string   `json:"date"`
	RatePlanID int64    `json:"ratePlanId"`
	Price      *float64 `json:"price"`
}

type bulkPricesReq struct {
	Items []priceItemReq `json:"items" validate:"required,min=1,max=1000"`
}

type roomResp struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	BasePrice *string `json:"basePrice"`
	Currency  string  `json:"currency"`
	Active    bool    `json:"active"`
}

type planResp struct {
	ID         int64  `json:"id"`
	RoomTypeID int64  `json:"roomTypeId"`
	Code       string `json:"code"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Value      string `json:"value"`
	Priority   int    `json:"priority"`
	Active     bool   `json:"active"`
}

type derivedPlanResp struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type rateCatalogResp struct {
	StdPlanID    *int64            `json:"stdPlanId"`
	DerivedPlans []derivedPlanResp `json:"derivedPlans"`
}

type calendarDayResp struct {
	Date      string  `json:"date"`
	RoomsOpen int     `json:"roomsOpen"`
	Closed    bool    `json:"closed"`
	MinStay   *int    `json:"minStay,omitempty"`
	Price     *string `json:"price,omitempty"`
	Currency  *string `json:"currency,omitempty"`
}

type roomCalendarResp struct {
	RoomTypeID int64                       `json:"roomTypeId"`
	RoomName   string                      `json:"roomName"`
	Days       []calendarDayResp           `json:"days"`
	Plans      map[int64][]calendarDayResp `json:"plans,omitempty"`
}

type upsertResp struct {
	OK       bool `json:"ok"`
	Upserted int  `json:"upserted"`
}

func toRoomResp(rt domain.RoomType) roomResp {
	out := roomResp{ID: rt.ID, Name: rt.Name, Currency: rt.Currency, Active: rt.Active}
	if rt.BasePrice.Valid {
		s := rt.BasePrice.Decimal.StringFixed(2)
		out.BasePrice = &s
	}
	return out
}

func toPlanResp(p domain.RatePlan) planResp {
	return planResp{
		ID: p.ID, RoomTypeID: p.RoomTypeID,
		Code: p.Code, Name: p.Name, Kind: string(p.Kind),
		Value: p.Value.StringFixed(2), Priority: p.Priority, Active: p.Active,
	}
}

func toDayResp(d domain.CalendarDay) calendarDayResp {
	out := calendarDayResp{
		Date:      domain.FormatDay(d.Date),
		RoomsOpen: d.Inventory,
		Closed:    d.Closed,
		MinStay:   d.MinStay,
		Currency:  d.Currency,
	}
	if d.Price != nil {
		s := d.Price.StringFixed(2)
		out.Price = &s
	}
	return out
}

func toDaysResp(days []domain.CalendarDay) []calendarDayResp {
	out := make([]calendarDayResp, 0, len(days))
	for _, d := range days {
		out = append(out, toDayResp(d))
	}
	return out
}

// ---- shared plumbing ----

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.Is(err, domain.ErrUnauthorized):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", "")
	case errors.Is(err, domain.ErrInvalidDate):
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "dates use YYYY-MM-DD")
	case errors.Is(err, domain.ErrSTDPlanExists):
		writeProblem(w, http.StatusConflict, "Conflict", "room already has a standard plan")
	case errors.Is(err, domain.ErrPlanCodeExists):
		writeProblem(w, http.StatusConflict, "Conflict", "plan code already used for this room")
	default:
		log.Error().Err(err).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeValid(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return false
	}
	return true
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		// Log but don't fail the whole response; return empty ETag and best-effort body.
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// ---- public catalog ----

func (h *Handlers) publicRooms(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(r, "partnerID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "partnerID must be a number")
		return
	}
	rooms, err := h.Catalog.PublicRooms(r.Context(), pid)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(rooms)
	// If client already has this version, short-circuit.
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write publicRooms body")
	}
}

func (h *Handlers) publicCalendar(w http.ResponseWriter, r *http.Request) {
	pid, ok := pathID(r, "partnerID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "partnerID must be a number")
		return
	}
	// Same params as the extranet calendar minus expand; search display never
	// needs the full per-plan grid.
	q := domain.CalendarQuery{PartnerID: pid}
	if !parseCalendarQuery(w, r, &q) {
		return
	}

	start := time.Now()
	cals, err := h.Calendar.Assemble(r.Context(), q)
	observability.ObserveCalendar(calendarMode(q), time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(toCalendarResp(cals))
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write publicCalendar body")
	}
}

// ---- room types ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Catalog.Rooms(r.Context(), partnerFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]roomResp, 0, len(rooms))
	for _, rt := range rooms {
		out = append(out, toRoomResp(rt))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if !decodeValid(w, r, &req) {
		return
	}
	rt, std, err := h.Catalog.CreateRoom(r.Context(), partnerFrom(r), app.RoomSpec{
		Name:      req.Name,
		BasePrice: req.BasePrice,
		Currency:  req.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Room    roomResp `json:"room"`
		StdPlan planResp `json:"stdPlan"`
	}{toRoomResp(rt), toPlanResp(std)})
}

func (h *Handlers) getRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	rt, err := h.Catalog.Room(r.Context(), partnerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResp(rt))
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	var req updateRoomReq
	if !decodeValid(w, r, &req) {
		return
	}
	if req.BasePrice.Set && req.BasePrice.Value != nil && *req.BasePrice.Value < 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "basePrice must be non-negative")
		return
	}
	rt, err := h.Catalog.UpdateRoom(r.Context(), partnerFrom(r), id, app.RoomPatch{
		Name:         req.Name,
		BasePrice:    req.BasePrice.Value,
		BasePriceSet: req.BasePrice.Set,
		Currency:     req.Currency,
		Active:       req.Active,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomResp(rt))
}

// ---- rate plans ----

func (h *Handlers) listPlans(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	plans, err := h.Catalog.RatePlans(r.Context(), partnerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]planResp, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResp(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) createPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	var req createPlanReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if err := validate.Struct(&req); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	p, err := h.Catalog.CreatePlan(r.Context(), partnerFrom(r), id, app.PlanSpec{
		Code:     req.Code,
		Name:     req.Name,
		Kind:     domain.PlanKind(req.Kind),
		Value:    req.Value,
		Priority: req.Priority,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlanResp(p))
}

func (h *Handlers) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "planID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "planID must be a number")
		return
	}
	var req updatePlanReq
	if !decodeValid(w, r, &req) {
		return
	}
	patch := app.PlanPatch{
		Name:     req.Name,
		Value:    req.Value,
		Priority: req.Priority,
		Active:   req.Active,
	}
	if req.Kind != nil {
		k := domain.PlanKind(*req.Kind)
		patch.Kind = &k
	}
	p, err := h.Catalog.UpdatePlan(r.Context(), partnerFrom(r), id, patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlanResp(p))
}

func (h *Handlers) rateCatalog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	cat, err := h.Catalog.RateCatalog(r.Context(), partnerFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := rateCatalogResp{StdPlanID: cat.StdPlanID, DerivedPlans: make([]derivedPlanResp, 0, len(cat.DerivedPlans))}
	for _, dp := range cat.DerivedPlans {
		out.DerivedPlans = append(out.DerivedPlans, derivedPlanResp{
			ID: dp.ID, Code: dp.Code, Kind: string(dp.Kind), Value: dp.Value.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- calendar ----

// parseCalendarQuery fills q from the from/to/rooms/plan params shared by the
// extranet and public calendar reads. On a malformed param it writes the
// problem response and returns false.
func parseCalendarQuery(w http.ResponseWriter, r *http.Request, q *domain.CalendarQuery) bool {
	qs := r.URL.Query()

	from, err := domain.ParseDay(qs.Get("from"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "from must be YYYY-MM-DD")
		return false
	}
	to, err := domain.ParseDay(qs.Get("to"))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Date", "to must be YYYY-MM-DD")
		return false
	}
	q.Range = domain.DateRange{Start: from, End: to}
	if !q.Range.Valid() {
		writeProblem(w, http.StatusBadRequest, "Invalid Range", "to must be after from (to is exclusive)")
		return false
	}

	if rv := qs.Get("rooms"); rv != "" {
		for _, part := range strings.Split(rv, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id <= 0 {
				writeProblem(w, http.StatusBadRequest, "Invalid ID", "rooms must be a comma-separated id list")
				return false
			}
			q.RoomTypeIDs = append(q.RoomTypeIDs, id)
		}
	}
	if pv := qs.Get("plan"); pv != "" {
		id, err := strconv.ParseInt(pv, 10, 64)
		if err != nil || id <= 0 {
			writeProblem(w, http.StatusBadRequest, "Invalid ID", "plan must be a number")
			return false
		}
		q.RatePlanID = &id
	}
	return true
}

func calendarMode(q domain.CalendarQuery) string {
	switch {
	case q.RatePlanID != nil:
		return "plan"
	case q.ExpandPlans:
		return "expanded"
	}
	return "default"
}

func toCalendarResp(cals []domain.RoomCalendar) []roomCalendarResp {
	out := make([]roomCalendarResp, 0, len(cals))
	for _, c := range cals {
		rc := roomCalendarResp{RoomTypeID: c.RoomTypeID, RoomName: c.RoomName, Days: toDaysResp(c.Daily)}
		if len(c.ByPlan) > 0 {
			rc.Plans = make(map[int64][]calendarDayResp, len(c.ByPlan))
			for planID, days := range c.ByPlan {
				rc.Plans[planID] = toDaysResp(days)
			}
		}
		out = append(out, rc)
	}
	return out
}

func (h *Handlers) calendar(w http.ResponseWriter, r *http.Request) {
	q := domain.CalendarQuery{PartnerID: partnerFrom(r)}
	if !parseCalendarQuery(w, r, &q) {
		return
	}
	if ev := r.URL.Query().Get("expand"); ev == "1" || ev == "true" {
		q.ExpandPlans = true
	}
	if q.RatePlanID != nil && q.ExpandPlans {
		writeProblem(w, http.StatusBadRequest, "Invalid Query", "plan and expand are mutually exclusive")
		return
	}

	start := time.Now()
	cals, err := h.Calendar.Assemble(r.Context(), q)
	observability.ObserveCalendar(calendarMode(q), time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalendarResp(cals))
}

// ---- bulk upserts ----

func (h *Handlers) bulkInventory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	var req bulkInventoryReq
	if !decodeValid(w, r, &req) {
		return
	}
	items := make([]app.InventoryItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, app.InventoryItem{
			Date:       it.Date,
			RoomsOpen:  it.RoomsOpen,
			MinStay:    it.MinStay.Value,
			MinStaySet: it.MinStay.Set,
			Closed:     it.Closed,
		})
	}
	n, err := h.Bulk.UpsertInventory(r.Context(), partnerFrom(r), id, items)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.ObserveBulkItems("inventory", n, len(items)-n)
	writeJSON(w, http.StatusOK, upsertResp{OK: true, Upserted: n})
}

func (h *Handlers) bulkPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "roomID")
	if !ok {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "roomID must be a number")
		return
	}
	var req bulkPricesReq
	if !decodeValid(w, r, &req) {
		return
	}
	items := make([]app.PriceItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, app.PriceItem{Date: it.Date, RatePlanID: it.RatePlanID, Price: it.Price})
	}
	n, err := h.Bulk.UpsertPrices(r.Context(), partnerFrom(r), id, items)
	if err != nil {
		writeError(w, err)
		return
	}
	observability.ObserveBulkItems("price", n, len(items)-n)
	writeJSON(w, http.StatusOK, upsertResp{OK: true, Upserted: n})
}

// ---- PMS ----

func (h *Handlers) pmsStatus(w http.ResponseWriter, r *http.Request) {
	if h.Sync == nil {
		writeProblem(w, http.StatusServiceUnavailable, "PMS Unavailable", "no PMS connector configured")
		return
	}
	st, err := h.Sync.Status(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Vendor    string `json:"vendor"`
		Connected bool   `json:"connected"`
	}{st.Vendor, st.Connected})
}

func (h *Handlers) pmsSync(w http.ResponseWriter, r *http.Request) {
	if h.Sync == nil {
		writeProblem(w, http.StatusServiceUnavailable, "PMS Unavailable", "no PMS connector configured")
		return
	}
	days := 30
	if ds := r.URL.Query().Get("days"); ds != "" {
		d, err := strconv.Atoi(ds)
		if err != nil || d < 1 || d > 183 {
			writeProblem(w, http.StatusBadRequest, "Invalid Query", "days must be an integer between 1 and 183")
			return
		}
		days = d
	}
	rep, err := h.Sync.SyncPartner(r.Context(), partnerFrom(r), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Connected bool `json:"connected"`
		Rooms     int  `json:"rooms"`
		Upserted  int  `json:"upserted"`
		Skipped   int  `json:"skipped"`
	}{rep.Connected, rep.Rooms, rep.Upserted, rep.Skipped})
}
