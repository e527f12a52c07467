package interceptors

import (
	"context"
	"testing"
	"time"
)

func TestWithIdentity_RoundTrip(t *testing.T) {
	issued := time.Unix(1700000000, 0)
	ctx := WithIdentity(context.Background(), Identity{UserID: "user-1", Email: "a@x.com", Role: "ADMIN", IssuedAt: issued})

	id, ok := IdentityFrom(ctx)
	if !ok {
		t.Fatal("IdentityFrom should return true")
	}
	if id.UserID != "user-1" || id.Email != "a@x.com" || id.Role != "ADMIN" || !id.IssuedAt.Equal(issued) {
		t.Errorf("identity = %+v", id)
	}
	userID, ok := GetUserID(ctx)
	if !ok || userID != "user-1" {
		t.Errorf("user_id = %q, ok = %v, want %q", userID, ok, "user-1")
	}
}

func TestGetUserID_NotSet(t *testing.T) {
	if _, ok := GetUserID(context.Background()); ok {
		t.Error("GetUserID should return false on a bare context")
	}
	if _, ok := GetUserID(WithIdentity(context.Background(), Identity{})); ok {
		t.Error("GetUserID should return false for an empty user id")
	}
}
