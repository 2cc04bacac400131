package mysql

// -----------------------------------------------------------------------------
// CATALOG
// -----------------------------------------------------------------------------

const selectRoomTypeSQL = `
SELECT id, partner_id, name, base_price, currency, active
FROM room_types
WHERE id = ?
`

const selectRoomTypesByPartnerSQL = `
SELECT id, partner_id, name, base_price, currency, active
FROM room_types
WHERE partner_id = ?
ORDER BY id
`

const selectActiveRoomTypesByPartnerSQL = `
SELECT id, partner_id, name, base_price, currency, active
FROM room_types
WHERE partner_id = ? AND active = 1
ORDER BY id
`

// Completed in the repo with one placeholder per requested id.
const selectRoomTypesByIDsPrefix = `
SELECT id, partner_id, name, base_price, currency, active
FROM room_types
WHERE partner_id = ? AND id IN (`

const insertRoomTypeSQL = `
INSERT INTO room_types (partner_id, name, base_price, currency, active)
VALUES (?, ?, ?, ?, ?)
`

const updateRoomTypeSQL = `
UPDATE room_types
SET name = ?, base_price = ?, currency = ?, active = ?
WHERE id = ?
`

const selectRatePlanSQL = `
SELECT id, partner_id, room_type_id, code, name, kind, value, priority, active
FROM rate_plans
WHERE id = ?
`

const selectRatePlansByRoomSQL = `
SELECT id, partner_id, room_type_id, code, name, kind, value, priority, active
FROM rate_plans
WHERE room_type_id = ?
ORDER BY priority, id
`

const insertRatePlanSQL = `
INSERT INTO rate_plans (partner_id, room_type_id, code, name, kind, value, priority, active)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

// Codes are immutable after create; renaming a code could smuggle in a second
// STD past the generated-column unique key.
const updateRatePlanSQL = `
UPDATE rate_plans
SET name = ?, kind = ?, value = ?, priority = ?, active = ?
WHERE id = ?
`

// -----------------------------------------------------------------------------
// SESSIONS (written by the login service, read-only here)
// -----------------------------------------------------------------------------

const selectSessionSQL = `
SELECT token, partner_id, expires_at
FROM partner_sessions
WHERE token = ?
`

// -----------------------------------------------------------------------------
// LEDGERS
// -----------------------------------------------------------------------------

const selectInventoryRangeSQL = `
SELECT partner_id, room_type_id, date, rooms_open, min_stay, is_closed
FROM inventory_days
WHERE partner_id = ? AND room_type_id = ? AND date >= ? AND date < ?
ORDER BY date
`

// The join supplies the plan-priority ordering the any-plan calendar fallback
// depends on: first row per date wins.
const selectPricesByRangeSQL = `
SELECT p.room_type_id, p.rate_plan_id, p.date, p.price, p.source
FROM price_days p
JOIN rate_plans rp ON rp.id = p.rate_plan_id
WHERE p.room_type_id = ? AND p.date >= ? AND p.date < ?
ORDER BY p.date, rp.priority, rp.id
`

const selectPlanPricesRangeSQL = `
SELECT room_type_id, rate_plan_id, date, price, source
FROM price_days
WHERE room_type_id = ? AND rate_plan_id = ? AND date >= ? AND date < ?
ORDER BY date
`

const selectPlanPriceSQL = `
SELECT room_type_id, rate_plan_id, date, price, source
FROM price_days
WHERE room_type_id = ? AND rate_plan_id = ? AND date = ?
`

// Insert-only: the self-assignment makes a conflict a no-op, and RowsAffected
// (1 on insert, 0 on no-op) reports which writer actually created the row.
const insertDerivedPriceSQL = `
INSERT INTO price_days (room_type_id, rate_plan_id, date, price, source)
VALUES (?, ?, ?, ?, 'derived')
ON DUPLICATE KEY UPDATE room_type_id = room_type_id
`

// Explicit prices always overwrite, derived or not.
const upsertPriceDaySQL = `
INSERT INTO price_days (room_type_id, rate_plan_id, date, price, source)
VALUES (?, ?, ?, ?, 'explicit')
ON DUPLICATE KEY UPDATE
  price  = VALUES(price),
  source = 'explicit'
`

// One atomic statement per item: the three trailing flags say which fields the
// payload carried, so an update never clobbers absent fields while an insert
// still gets full defaults.
const upsertInventoryDaySQL = `
INSERT INTO inventory_days (partner_id, room_type_id, date, rooms_open, min_stay, is_closed)
VALUES (?, ?, ?, COALESCE(?, 0), ?, COALESCE(?, 0))
ON DUPLICATE KEY UPDATE
  rooms_open = IF(?, VALUES(rooms_open), rooms_open),
  min_stay   = IF(?, VALUES(min_stay), min_stay),
  is_closed  = IF(?, VALUES(is_closed), is_closed)
`
