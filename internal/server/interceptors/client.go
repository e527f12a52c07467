package interceptors

import (
	"context"
	"net"
	"strings"

	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"

	sessiondomain "pollogram/backend/internal/session/domain"
)

const maxMetadataLen = 256

// ClientIP returns the client IP from gRPC metadata (x-forwarded-for, x-real-ip) or peer, or "unknown".
func ClientIP(ctx context.Context) string {
	if ip := clientIP(ctx); ip != "" {
		return ip
	}
	return "unknown"
}

func clientIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if s := first(md, "x-forwarded-for"); s != "" {
			if i := strings.Index(s, ","); i > 0 {
				s = strings.TrimSpace(s[:i])
			}
			return s
		}
		if s := first(md, "x-real-ip"); s != "" {
			return s
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return ""
}

// SessionMetadata describes the calling client for a new session: user
// agent, client IP and the optional x-device-id header. Missing values stay empty.
func SessionMetadata(ctx context.Context) sessiondomain.Metadata {
	var meta sessiondomain.Metadata
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		meta.UserAgent = truncate(first(md, "user-agent"), maxMetadataLen)
		meta.DeviceID = truncate(first(md, "x-device-id"), maxMetadataLen)
	}
	// ip_address is varchar(45), enough for any IPv6 literal.
	meta.IPAddress = truncate(clientIP(ctx), 45)
	return meta
}

func first(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return strings.TrimSpace(vals[0])
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
