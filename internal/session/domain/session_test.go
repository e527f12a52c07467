package domain

import (
	"testing"
	"time"
)

func TestSession_Active(t *testing.T) {
	now := time.Now()
	revokedAt := now.Add(-time.Minute)
	tests := []struct {
		name string
		s    Session
		want bool
	}{
		{"live", Session{ExpiresAt: now.Add(time.Hour)}, true},
		{"expires exactly now", Session{ExpiresAt: now}, false},
		{"expired", Session{ExpiresAt: now.Add(-time.Second)}, false},
		{"revoked", Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revokedAt}, false},
	}
	for _, tt := range tests {
		if got := tt.s.Active(now); got != tt.want {
			t.Errorf("%s: Active = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSession_SummarizeOmitsHash(t *testing.T) {
	s := Session{ID: "s1", TokenHash: "secret", Metadata: Metadata{UserAgent: "ua", IPAddress: "10.0.0.1"}}
	sum := s.Summarize()
	if sum.ID != "s1" || sum.UserAgent != "ua" || sum.IPAddress != "10.0.0.1" {
		t.Errorf("Summarize = %+v", sum)
	}
}
