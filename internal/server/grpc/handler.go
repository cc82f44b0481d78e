package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return rpc.StatusResponse("OK"), nil
}

func (s *GRPCServer) Insert(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	rec, err := rpc.ParseWriteRequest(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Update(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	rec, err := rpc.ParseWriteRequest(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.store.Update(ctx, rec); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	table, id, err := rpc.ParseDeleteRequest(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	if err := s.store.Delete(ctx, table, id); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Select(ctx context.Context, req *structpb.Struct) (*structpb.ListValue, error) {
	q, err := rpc.ParseSelectRequest(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	recs, err := s.store.Select(ctx, q)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	out, err := rpc.EncodeRows(recs)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return out, nil
}

func (s *GRPCServer) PresignPhoto(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	key, method, err := rpc.ParsePresignRequest(req)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	url, err := s.media.Presign(ctx, key, method)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return rpc.URLResponse(url), nil
}

// toStatus maps service errors to gRPC codes. Anything unexpected is
// logged and reported as Internal without details.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, rpc.ErrInvalidRequest),
		errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrUnknownTable):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	s.logger.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, "internal error")
}
