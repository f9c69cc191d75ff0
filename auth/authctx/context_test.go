package authctx

import (
	"context"
	"errors"
	"testing"
)

type user struct{ Name string }

func TestUsername(t *testing.T) {
	ctx := context.Background()
	if _, ok := Username(ctx); ok {
		t.Fatal("empty context should have no username")
	}
	ctx = SetUsername(ctx, "alice")
	if name, ok := Username(ctx); !ok || name != "alice" {
		t.Fatalf("Username = %q, %v", name, ok)
	}
	if _, ok := Username(SetUsername(ctx, "")); ok {
		t.Error("empty username should read as absent")
	}
}

func TestGet_Typed(t *testing.T) {
	ctx := Set(context.Background(), &user{Name: "alice"})

	u, ok := Get[*user](ctx)
	if !ok || u.Name != "alice" {
		t.Fatalf("Get = %+v, %v", u, ok)
	}
	if _, ok := Get[string](ctx); ok {
		t.Error("wrong type should not match")
	}
	if Identity(ctx) == nil {
		t.Error("Identity should return the stored value")
	}
	if _, ok := Username(ctx); ok {
		t.Error("identity and username are separate keys")
	}
}

func TestMustGet_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustGet[*user](context.Background())
}

func TestGetOrError(t *testing.T) {
	if _, err := GetOrError[*user](context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("expected ErrNoIdentity, got %v", err)
	}
	u, err := GetOrError[*user](Set(context.Background(), &user{Name: "bob"}))
	if err != nil || u.Name != "bob" {
		t.Fatalf("GetOrError = %+v, %v", u, err)
	}
}
