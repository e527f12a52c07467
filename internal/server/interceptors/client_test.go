package interceptors

import (
	"context"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{
			name: "x-forwarded-for takes the first hop",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-forwarded-for", "203.0.113.7, 10.0.0.1")),
			want: "203.0.113.7",
		},
		{
			name: "x-real-ip",
			ctx:  metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-real-ip", "198.51.100.2")),
			want: "198.51.100.2",
		},
		{
			name: "peer address",
			ctx:  peer.NewContext(context.Background(), &peer.Peer{Addr: &net.TCPAddr{IP: net.ParseIP("192.0.2.1"), Port: 5555}}),
			want: "192.0.2.1",
		},
		{
			name: "nothing known",
			ctx:  context.Background(),
			want: "unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClientIP(tt.ctx); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSessionMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		"user-agent", "pollogram-ios/1.2",
		"x-device-id", strings.Repeat("d", 300),
		"x-real-ip", "198.51.100.2",
	))
	meta := SessionMetadata(ctx)
	if meta.UserAgent != "pollogram-ios/1.2" {
		t.Errorf("user agent = %q", meta.UserAgent)
	}
	if len(meta.DeviceID) != maxMetadataLen {
		t.Errorf("device id length = %d, want %d", len(meta.DeviceID), maxMetadataLen)
	}
	if meta.IPAddress != "198.51.100.2" {
		t.Errorf("ip = %q", meta.IPAddress)
	}

	if empty := SessionMetadata(context.Background()); empty.UserAgent != "" || empty.IPAddress != "" || empty.DeviceID != "" {
		t.Errorf("expected empty metadata, got %+v", empty)
	}
}
