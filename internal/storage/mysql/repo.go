package mysql

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/lolaelo-web/lolaelo-api/internal/adapters/observability"
	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valBool(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func dupKeyOn(err error, key string) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062 && strings.Contains(me.Message, key)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

var (
	_ domain.CatalogRepository = (*Repo)(nil)
	_ domain.LedgerRepository  = (*Repo)(nil)
	_ domain.SessionRepository = (*Repo)(nil)
)

// ---- catalog ----

func (r *Repo) RoomTypeByID(ctx context.Context, id int64) (domain.RoomType, error) {
	return scanRoomType(r.db.QueryRowContext(ctx, selectRoomTypeSQL, id))
}

func (r *Repo) RoomTypesByPartner(ctx context.Context, partnerID int64, includeInactive bool) ([]domain.RoomType, error) {
	q := selectActiveRoomTypesByPartnerSQL
	if includeInactive {
		q = selectRoomTypesByPartnerSQL
	}
	rows, err := r.db.QueryContext(ctx, q, partnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoomTypes(rows)
}

func (r *Repo) RoomTypesByIDs(ctx context.Context, partnerID int64, ids []int64) ([]domain.RoomType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := selectRoomTypesByIDsPrefix + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ") ORDER BY id"
	args := make([]any, 0, len(ids)+1)
	args = append(args, partnerID)
	for _, id := range ids {
		args = append(args, id)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRoomTypes(rows)
}

func (r *Repo) CreateRoomType(ctx context.Context, rt domain.RoomType, std domain.RatePlan) (int64, int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, insertRoomTypeSQL, rt.PartnerID, rt.Name, rt.BasePrice, rt.Currency, rt.Active)
	if err != nil {
		return 0, 0, err
	}
	roomID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	res, err = tx.ExecContext(ctx, insertRatePlanSQL,
		std.PartnerID, roomID, std.Code, std.Name, string(std.Kind), std.Value, std.Priority, std.Active)
	if err != nil {
		return 0, 0, mapPlanInsertErr(std, err)
	}
	stdID, err := res.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return roomID, stdID, nil
}

func (r *Repo) UpdateRoomType(ctx context.Context, rt domain.RoomType) error {
	_, err := r.db.ExecContext(ctx, updateRoomTypeSQL, rt.Name, rt.BasePrice, rt.Currency, rt.Active, rt.ID)
	return err
}

func (r *Repo) RatePlanByID(ctx context.Context, id int64) (domain.RatePlan, error) {
	return scanRatePlan(r.db.QueryRowContext(ctx, selectRatePlanSQL, id))
}

func (r *Repo) RatePlansByRoomType(ctx context.Context, roomTypeID int64) ([]domain.RatePlan, error) {
	rows, err := r.db.QueryContext(ctx, selectRatePlansByRoomSQL, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RatePlan
	for rows.Next() {
		var p domain.RatePlan
		var kind string
		if err := rows.Scan(&p.ID, &p.PartnerID, &p.RoomTypeID, &p.Code, &p.Name, &kind, &p.Value, &p.Priority, &p.Active); err != nil {
			return nil, err
		}
		p.Kind = domain.PlanKind(kind)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) CreateRatePlan(ctx context.Context, p domain.RatePlan) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertRatePlanSQL,
		p.PartnerID, p.RoomTypeID, p.Code, p.Name, string(p.Kind), p.Value, p.Priority, p.Active)
	if err != nil {
		return 0, mapPlanInsertErr(p, err)
	}
	return res.LastInsertId()
}

func (r *Repo) UpdateRatePlan(ctx context.Context, p domain.RatePlan) error {
	_, err := r.db.ExecContext(ctx, updateRatePlanSQL, p.Name, string(p.Kind), p.Value, p.Priority, p.Active, p.ID)
	return err
}

// ---- sessions ----

func (r *Repo) PartnerBySessionToken(ctx context.Context, token string) (domain.PartnerSession, error) {
	var s domain.PartnerSession
	err := r.db.QueryRowContext(ctx, selectSessionSQL, token).Scan(&s.Token, &s.PartnerID, &s.ExpiresAt)
	if err == sql.ErrNoRows {
		return domain.PartnerSession{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PartnerSession{}, err
	}
	return s, nil
}

// ---- ledgers ----

func (r *Repo) InventoryRange(ctx context.Context, partnerID, roomTypeID int64, rng domain.DateRange) ([]domain.InventoryDay, error) {
	rows, err := r.db.QueryContext(ctx, selectInventoryRangeSQL,
		partnerID, roomTypeID, domain.FormatDay(rng.Start), domain.FormatDay(rng.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.InventoryDay
	for rows.Next() {
		var iv domain.InventoryDay
		var d time.Time
		var minStay sql.NullInt64
		if err := rows.Scan(&iv.PartnerID, &iv.RoomTypeID, &d, &iv.RoomsOpen, &minStay, &iv.Closed); err != nil {
			return nil, err
		}
		iv.Date = domain.DayOf(d)
		if minStay.Valid {
			v := int(minStay.Int64)
			iv.MinStay = &v
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *Repo) PricesByRange(ctx context.Context, roomTypeID int64, rng domain.DateRange) ([]domain.PriceDay, error) {
	return r.queryPrices(ctx, selectPricesByRangeSQL,
		roomTypeID, domain.FormatDay(rng.Start), domain.FormatDay(rng.End))
}

func (r *Repo) PlanPricesByRange(ctx context.Context, roomTypeID, ratePlanID int64, rng domain.DateRange) ([]domain.PriceDay, error) {
	return r.queryPrices(ctx, selectPlanPricesRangeSQL,
		roomTypeID, ratePlanID, domain.FormatDay(rng.Start), domain.FormatDay(rng.End))
}

func (r *Repo) PlanPrice(ctx context.Context, roomTypeID, ratePlanID int64, date time.Time) (domain.PriceDay, error) {
	row := r.db.QueryRowContext(ctx, selectPlanPriceSQL, roomTypeID, ratePlanID, domain.FormatDay(date))
	pd, err := scanPriceDay(row.Scan)
	if err == sql.ErrNoRows {
		return domain.PriceDay{}, domain.ErrNotFound
	}
	return pd, err
}

func (r *Repo) InsertDerivedPrice(ctx context.Context, pd domain.PriceDay) (bool, error) {
	res, err := r.db.ExecContext(ctx, insertDerivedPriceSQL,
		pd.RoomTypeID, pd.RatePlanID, domain.FormatDay(pd.Date), pd.Price)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	inserted := n == 1
	observability.ObserveDerivedInsert(inserted)
	return inserted, nil
}

func (r *Repo) BulkUpsertInventory(ctx context.Context, partnerID, roomTypeID int64, patches []domain.InventoryPatch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range patches {
		_, err := tx.ExecContext(ctx, upsertInventoryDaySQL,
			partnerID, roomTypeID, domain.FormatDay(p.Date),
			valInt(p.RoomsOpen), valInt(p.MinStay), valBool(p.Closed),
			p.RoomsOpen != nil, p.MinStaySet, p.Closed != nil,
		)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(patches), nil
}

func (r *Repo) BulkUpsertPrices(ctx context.Context, roomTypeID int64, patches []domain.PricePatch) (int, error) {
	if len(patches) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range patches {
		_, err := tx.ExecContext(ctx, upsertPriceDaySQL,
			roomTypeID, p.RatePlanID, domain.FormatDay(p.Date), p.Price)
		if err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(patches), nil
}

// ---- scanning ----

type rowScanner interface{ Scan(dest ...any) error }

func scanRoomType(row rowScanner) (domain.RoomType, error) {
	var rt domain.RoomType
	err := row.Scan(&rt.ID, &rt.PartnerID, &rt.Name, &rt.BasePrice, &rt.Currency, &rt.Active)
	if err == sql.ErrNoRows {
		return domain.RoomType{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.RoomType{}, err
	}
	return rt, nil
}

func collectRoomTypes(rows *sql.Rows) ([]domain.RoomType, error) {
	var out []domain.RoomType
	for rows.Next() {
		var rt domain.RoomType
		if err := rows.Scan(&rt.ID, &rt.PartnerID, &rt.Name, &rt.BasePrice, &rt.Currency, &rt.Active); err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func scanRatePlan(row rowScanner) (domain.RatePlan, error) {
	var p domain.RatePlan
	var kind string
	err := row.Scan(&p.ID, &p.PartnerID, &p.RoomTypeID, &p.Code, &p.Name, &kind, &p.Value, &p.Priority, &p.Active)
	if err == sql.ErrNoRows {
		return domain.RatePlan{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.RatePlan{}, err
	}
	p.Kind = domain.PlanKind(kind)
	return p, nil
}

func (r *Repo) queryPrices(ctx context.Context, q string, args ...any) ([]domain.PriceDay, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PriceDay
	for rows.Next() {
		pd, err := scanPriceDay(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, pd)
	}
	return out, rows.Err()
}

func scanPriceDay(scan func(dest ...any) error) (domain.PriceDay, error) {
	var pd domain.PriceDay
	var d time.Time
	var source string
	if err := scan(&pd.RoomTypeID, &pd.RatePlanID, &d, &pd.Price, &source); err != nil {
		return domain.PriceDay{}, err
	}
	pd.Date = domain.DayOf(d)
	pd.Source = domain.PriceSource(source)
	return pd, nil
}

// A duplicate STD row violates the code key before the std_marker key, so the
// engine may name either; the plan being inserted disambiguates.
func mapPlanInsertErr(p domain.RatePlan, err error) error {
	if dupKeyOn(err, "uq_rate_plans_std") || (p.IsSTD() && dupKeyOn(err, "uq_rate_plans_room_code")) {
		return domain.ErrSTDPlanExists
	}
	if dupKeyOn(err, "uq_rate_plans_room_code") {
		return domain.ErrPlanCodeExists
	}
	return err
}
