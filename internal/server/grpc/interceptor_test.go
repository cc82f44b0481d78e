package grpc

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

func TestCallerKey(t *testing.T) {
	md := metadata.Pairs(common.DeviceIDHeaderName, "dev-7")
	assert.Equal(t, "dev-7", callerKey(metadata.NewIncomingContext(context.Background(), md)))

	addr := &net.TCPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 4000}
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: addr})
	assert.Equal(t, "peer:10.0.0.5:4000", callerKey(ctx))

	assert.Equal(t, "unknown", callerKey(context.Background()))
}

func TestLoggingInterceptor_TagsHandlerLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	s := NewGRPCServer(":0", logger, nil, nil, RateLimit{})

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(common.DeviceIDHeaderName, "dev-7"))
	info := &grpc.UnaryServerInfo{FullMethod: "/estimates.Store/Insert"}
	_, err := s.loggingInterceptor(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
		logger.Info(ctx, "inside handler")
		return nil, errors.New("boom")
	})
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="inside handler" method=/estimates.Store/Insert device=dev-7`)
	assert.Contains(t, out, `msg="rpc failed" module=grpc_server method=/estimates.Store/Insert device=dev-7`)
}

func TestDeviceLimiter(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newDeviceLimiter(1, 1)
	l.now = func() time.Time { return clock }
	l.lastSweep = clock

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"), "burst of one is spent")
	assert.True(t, l.allow("b"))

	clock = clock.Add(time.Second)
	assert.True(t, l.allow("a"), "one token refills per second")

	clock = clock.Add(idleVisitor + time.Minute)
	assert.True(t, l.allow("c"))
	assert.Len(t, l.visitors, 1, "idle buckets are swept")
}
