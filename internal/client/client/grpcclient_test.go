package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/models"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeServer struct {
	lastMD     metadata.MD
	inserted   []models.Record
	updated    []models.Record
	deleted    []string
	selects    []rpc.SelectQuery
	rows       []models.Record
	presignKey string
	err        error
}

func (f *fakeServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	f.lastMD, _ = metadata.FromIncomingContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	return rpc.StatusResponse("OK"), nil
}

func (f *fakeServer) Insert(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, err := rpc.ParseWriteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.inserted = append(f.inserted, rec)
	return &emptypb.Empty{}, nil
}

func (f *fakeServer) Update(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, err := rpc.ParseWriteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.updated = append(f.updated, rec)
	return &emptypb.Empty{}, nil
}

func (f *fakeServer) Delete(_ context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if f.err != nil {
		return nil, f.err
	}
	table, id, err := rpc.ParseDeleteRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.deleted = append(f.deleted, string(table)+"/"+id)
	return &emptypb.Empty{}, nil
}

func (f *fakeServer) Select(_ context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	if f.err != nil {
		return nil, f.err
	}
	q, err := rpc.ParseSelectRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.selects = append(f.selects, q)
	return rpc.EncodeRows(f.rows)
}

func (f *fakeServer) PresignPhoto(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if f.err != nil {
		return nil, f.err
	}
	key, m, err := rpc.ParsePresignRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	f.presignKey = key
	return rpc.URLResponse("https://media.example/" + key + "?m=" + string(m)), nil
}

func startFake(t *testing.T, srv *fakeServer) *GRPCClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	rpc.RegisterRemoteStoreServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", "device-1", "user-1",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func sampleCustomer() *models.Customer {
	return &models.Customer{
		Revision: models.Revision{ID: "c1", Version: 2, UpdatedAt: models.Now(time.Now())},
		UserID:   "user-1",
		Name:     "Ann",
	}
}

func TestGRPCClient_PingSendsIdentity(t *testing.T) {
	srv := &fakeServer{}
	c := startFake(t, srv)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, []string{"device-1"}, srv.lastMD.Get(common.DeviceIDHeaderName))
	assert.Equal(t, []string{"user-1"}, srv.lastMD.Get(common.UserIDHeaderName))
}

func TestGRPCClient_Writes(t *testing.T) {
	srv := &fakeServer{}
	c := startFake(t, srv)
	ctx := context.Background()

	cust := sampleCustomer()
	require.NoError(t, c.Insert(ctx, cust))
	require.NoError(t, c.Update(ctx, cust))
	require.NoError(t, c.Delete(ctx, models.TableCustomers, "c1"))

	require.Len(t, srv.inserted, 1)
	got := srv.inserted[0].(*models.Customer)
	assert.Equal(t, "Ann", got.Name)
	assert.Equal(t, int64(2), got.Version)
	assert.True(t, cust.UpdatedAt.Equal(got.UpdatedAt))

	require.Len(t, srv.updated, 1)
	assert.Equal(t, []string{"customers/c1"}, srv.deleted)
}

func TestGRPCClient_Selects(t *testing.T) {
	srv := &fakeServer{rows: []models.Record{sampleCustomer()}}
	c := startFake(t, srv)
	ctx := context.Background()

	recs, err := c.SelectByUser(ctx, models.TableCustomers, "user-1")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "c1", recs[0].Rev().ID)

	srv.rows = nil
	_, err = c.SelectByEstimates(ctx, models.TableEstimateItems, []string{"e1", "e2"})
	require.NoError(t, err)

	recs, err = c.SelectByEstimates(ctx, models.TablePhotos, nil)
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.Len(t, srv.selects, 2)
	assert.Equal(t, "user-1", srv.selects[0].UserID)
	assert.Equal(t, []string{"e1", "e2"}, srv.selects[1].EstimateIDs)
}

func TestGRPCClient_PresignPhoto(t *testing.T) {
	srv := &fakeServer{}
	c := startFake(t, srv)

	url, err := c.PresignPhoto(context.Background(), "photos/e1/p1.jpg", rpc.PresignPut)
	require.NoError(t, err)
	assert.Equal(t, "https://media.example/photos/e1/p1.jpg?m=put", url)
	assert.Equal(t, "photos/e1/p1.jpg", srv.presignKey)
}

func TestGRPCClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unavailable", status.Error(codes.Unavailable, "down"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable},
		{"unauthenticated", status.Error(codes.Unauthenticated, "who"), ErrUnauthorized},
		{"invalid", status.Error(codes.InvalidArgument, "bad"), ErrRejected},
		{"not found", status.Error(codes.NotFound, "gone"), common.ErrorNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &fakeServer{err: tt.err}
			c := startFake(t, srv)
			err := c.Update(context.Background(), sampleCustomer())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestMapError_Internal(t *testing.T) {
	err := mapError(status.Error(codes.Internal, "boom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rpc error")
	assert.False(t, errors.Is(err, ErrUnavailable))
	assert.NoError(t, mapError(nil))
}
