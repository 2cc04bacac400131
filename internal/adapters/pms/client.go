// internal/adapters/pms/client.go
package pms

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/lolaelo-web/lolaelo-api/internal/adapters/observability"
	"github.com/lolaelo-web/lolaelo-api/internal/domain"
)

// Client talks to the PMS connector over HTTP. Connector deployments differ
// in path versioning, so every call tries the /api/v1 form first and falls
// back to the unversioned legacy form.
type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

var _ domain.PMSClient = (*Client)(nil)

func New(base, key string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: base,
		hc:   &http.Client{Timeout: 20 * time.Second},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// ---- connector wire shapes ----

type statusResp struct {
	Vendor    string `json:"vendor"`
	Connected bool   `json:"connected"`
}

type roomLinkResp struct {
	PMSRoomID  string `json:"pmsRoomId"`
	RoomTypeID int64  `json:"roomTypeId"`
}

type inventoryDayResp struct {
	Date      string `json:"date"`
	RoomsOpen int    `json:"roomsOpen"`
	Closed    bool   `json:"closed"`
}

// ---- Public API ----

func (c *Client) Status(ctx context.Context) (domain.PMSStatus, error) {
	candidates := []string{
		fmt.Sprintf("%s/api/v1/status", c.base), // preferred
		fmt.Sprintf("%s/status", c.base),        // legacy
	}
	var out statusResp
	if err := c.getFirst(ctx, "status", candidates, &out); err != nil {
		return domain.PMSStatus{}, err
	}
	return domain.PMSStatus{Vendor: out.Vendor, Connected: out.Connected}, nil
}

func (c *Client) RoomLinks(ctx context.Context, partnerID int64) ([]domain.PMSRoomLink, error) {
	candidates := []string{
		fmt.Sprintf("%s/api/v1/partners/%d/room-links", c.base, partnerID), // preferred
		fmt.Sprintf("%s/partners/%d/links", c.base, partnerID),             // legacy
	}
	var out []roomLinkResp
	if err := c.getFirst(ctx, "room_links", candidates, &out); err != nil {
		return nil, err
	}
	links := make([]domain.PMSRoomLink, 0, len(out))
	for _, l := range out {
		links = append(links, domain.PMSRoomLink{PMSRoomID: l.PMSRoomID, RoomTypeID: l.RoomTypeID})
	}
	return links, nil
}

func (c *Client) InventorySnapshot(ctx context.Context, pmsRoomID string, r domain.DateRange) ([]domain.PMSInventoryDay, error) {
	q := fmt.Sprintf("from=%s&to=%s", domain.FormatDay(r.Start), domain.FormatDay(r.End))
	id := url.PathEscape(pmsRoomID)
	candidates := []string{
		fmt.Sprintf("%s/api/v1/rooms/%s/inventory?%s", c.base, id, q), // preferred
		fmt.Sprintf("%s/rooms/%s/availability?%s", c.base, id, q),     // legacy
	}
	var out []inventoryDayResp
	if err := c.getFirst(ctx, "inventory", candidates, &out); err != nil {
		return nil, err
	}
	days := make([]domain.PMSInventoryDay, 0, len(out))
	for _, d := range out {
		days = append(days, domain.PMSInventoryDay{Date: d.Date, RoomsOpen: d.RoomsOpen, Closed: d.Closed})
	}
	return days, nil
}

// ---- Internals ----

var (
	ErrNotFound     = errors.New("pms: not found")
	ErrUnauthorized = errors.New("pms: unauthorized")
	ErrForbidden    = errors.New("pms: forbidden")
)

func (c *Client) getFirst(ctx context.Context, endpoint string, urls []string, out any) error {
	var last error
	for _, u := range urls {
		if err := c.get(ctx, endpoint, u, out); err != nil {
			if errors.Is(err, ErrNotFound) {
				last = err
				continue // try next pattern
			}
			return err // non-404: stop early
		}
		return nil // success
	}
	if last != nil {
		return last
	}
	return errors.New("no candidate URL succeeded")
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, url string, out any) error {
	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < 4; i++ {
		// build a fresh request each attempt
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		if c.key != "" {
			req.Header.Set("X-API-Key", c.key)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "lolaelo-api/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("pms", endpoint, 0, time.Since(start))
			// network error or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// context-aware sleep before retry
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			// no more retries or context canceled
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("pms", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK, http.StatusCreated, http.StatusAccepted:
			// decode then close
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			return err

		case http.StatusNoContent:
			// success, empty body
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("remote %d", resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns an exponential backoff delay with concurrency-safe jitter.
// i = retry attempt (0,1,2,...). Base doubles each attempt (200ms, 400ms, 800ms...),
// with up to +50% random jitter to avoid thundering herds.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0                  // 0..1
	j := time.Duration(0.5 * f * float64(base)) // up to +50%
	return base + j
}
