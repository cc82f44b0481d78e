package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// DefaultCallTimeout bounds every remote call that has no earlier deadline.
const DefaultCallTimeout = 15 * time.Second

type GRPCClient struct {
	endpointURL string
	deviceID    string
	userID      string
	callTimeout time.Duration
	conn        *grpc.ClientConn
}

// NewGRPCClient prepares a client for endpointURL. The connection is lazy:
// no network I/O happens until the first call. extra dial options are
// appended after the defaults (tests use them to dial an in-memory
// listener).
func NewGRPCClient(endpointURL, deviceID, userID string, extra ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		deviceID:    deviceID,
		userID:      userID,
		callTimeout: DefaultCallTimeout,
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.identityInterceptor),
	}, extra...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", endpointURL, err)
	}
	c.conn = conn
	return c, nil
}

// identityInterceptor tags every call with the device and user ids and
// applies the default call timeout.
func (c *GRPCClient) identityInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if c.deviceID != "" {
		md.Set(common.DeviceIDHeaderName, c.deviceID)
	}
	if c.userID != "" {
		md.Set(common.UserIDHeaderName, c.userID)
	}
	ctx = metadata.NewOutgoingContext(ctx, md)

	if _, ok := ctx.Deadline(); !ok && c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Ping(ctx context.Context) error {
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, rpc.MethodPing, &emptypb.Empty{}, resp); err != nil {
		return mapError(err)
	}
	if resp.GetFields()["status"].GetStringValue() != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (c *GRPCClient) Insert(ctx context.Context, rec models.Record) error {
	return c.write(ctx, rpc.MethodInsert, rec)
}

func (c *GRPCClient) Update(ctx context.Context, rec models.Record) error {
	return c.write(ctx, rpc.MethodUpdate, rec)
}

func (c *GRPCClient) write(ctx context.Context, method string, rec models.Record) error {
	req, err := rpc.WriteRequest(rec)
	if err != nil {
		return err
	}
	if err := c.conn.Invoke(ctx, method, req, &emptypb.Empty{}); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) Delete(ctx context.Context, table models.Table, id string) error {
	if err := c.conn.Invoke(ctx, rpc.MethodDelete, rpc.DeleteRequest(table, id), &emptypb.Empty{}); err != nil {
		return mapError(err)
	}
	return nil
}

func (c *GRPCClient) SelectByUser(ctx context.Context, table models.Table, userID string) ([]models.Record, error) {
	return c.selectRows(ctx, rpc.SelectQuery{Table: table, UserID: userID})
}

func (c *GRPCClient) SelectByEstimates(ctx context.Context, table models.Table, estimateIDs []string) ([]models.Record, error) {
	if len(estimateIDs) == 0 {
		return nil, nil
	}
	return c.selectRows(ctx, rpc.SelectQuery{Table: table, EstimateIDs: estimateIDs})
}

func (c *GRPCClient) selectRows(ctx context.Context, q rpc.SelectQuery) ([]models.Record, error) {
	resp := &structpb.ListValue{}
	if err := c.conn.Invoke(ctx, rpc.MethodSelect, rpc.SelectRequest(q), resp); err != nil {
		return nil, mapError(err)
	}
	return rpc.DecodeRows(q.Table, resp)
}

func (c *GRPCClient) PresignPhoto(ctx context.Context, key string, method rpc.PresignMethod) (string, error) {
	resp := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, rpc.MethodPresignPhoto, rpc.PresignRequest(key, method), resp); err != nil {
		return "", mapError(err)
	}
	url := rpc.ParseURLResponse(resp)
	if url == "" {
		return "", fmt.Errorf("presign %s: empty url", key)
	}
	return url, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrRejected, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), common.ErrorNotFound)
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
