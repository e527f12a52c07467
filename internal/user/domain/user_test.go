package domain

import "testing"

func TestUser_Validate(t *testing.T) {
	u := &User{Email: "a@x.com", PasswordHash: "h"}
	if err := u.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if u.Role != RoleUser {
		t.Errorf("default role = %q, want %q", u.Role, RoleUser)
	}
	if err := (&User{PasswordHash: "h"}).Validate(); err == nil {
		t.Error("missing email should fail")
	}
	if err := (&User{Email: "a@x.com", PasswordHash: "h", Role: "ROOT"}).Validate(); err == nil {
		t.Error("unknown role should fail")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}

func TestProfile_Validate(t *testing.T) {
	if err := (&Profile{UserID: "u1", Username: "alice"}).Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := (&Profile{UserID: "u1"}).Validate(); err == nil {
		t.Error("missing username should fail")
	}
}
