package redisad_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "github.com/lolaelo-web/lolaelo-api/internal/adapters/redis"
)

type payload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func TestCacheRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	c := redisad.New(srv.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}

	var missed payload
	ok, err := c.Get(ctx, "public:rooms:7", &missed)
	if err != nil {
		t.Fatalf("get miss: %v", err)
	}
	if ok {
		t.Fatalf("expected miss on empty cache")
	}

	want := []payload{{ID: 1, Name: "Sea View"}, {ID: 2, Name: "Garden Bungalow"}}
	if err := c.Set(ctx, "public:rooms:7", want, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got []payload
	ok, err = c.Get(ctx, "public:rooms:7", &got)
	if err != nil || !ok {
		t.Fatalf("get hit: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0].Name != "Sea View" || got[1].ID != 2 {
		t.Fatalf("unexpected payload: %+v", got)
	}

	if ttl := srv.TTL("public:rooms:7"); ttl != 60*time.Second {
		t.Fatalf("ttl: %v", ttl)
	}
}

func TestCacheExpiryAndDel(t *testing.T) {
	srv := miniredis.RunT(t)
	c := redisad.New(srv.Addr(), "", 0)
	ctx := context.Background()

	if err := c.Set(ctx, "session:abc", payload{ID: 9}, 1); err != nil {
		t.Fatalf("set: %v", err)
	}
	srv.FastForward(2 * time.Second)

	var p payload
	ok, err := c.Get(ctx, "session:abc", &p)
	if err != nil {
		t.Fatalf("get after expiry: %v", err)
	}
	if ok {
		t.Fatalf("expected expired key to miss")
	}

	if err := c.Set(ctx, "session:def", payload{ID: 10}, 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Del(ctx, "session:def"); err != nil {
		t.Fatalf("del: %v", err)
	}
	ok, _ = c.Get(ctx, "session:def", &p)
	if ok {
		t.Fatalf("expected deleted key to miss")
	}
}
