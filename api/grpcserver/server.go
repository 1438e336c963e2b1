package grpcserver

import (
	"context"
	"log"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"hotswap/service"
)

// Server adapts SettingsService to gRPC.
type Server struct {
	svc *service.SettingsService
}

func NewServer(svc *service.SettingsService) *Server {
	return &Server{svc: svc}
}

// -------------------- Queries --------------------

func (s *Server) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	value, version, ok := s.svc.Get(req.GetValue())
	if !ok {
		return nil, status.Errorf(codes.NotFound, "key %q not set (version %d)", req.GetValue(), version)
	}
	return structpb.NewStruct(map[string]any{
		"value":   value,
		"version": float64(version),
	})
}

func (s *Server) Snapshot(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	doc := s.svc.Snapshot()
	values := make(map[string]any, doc.Len())
	for k, v := range doc.Values() {
		values[k] = v
	}
	return structpb.NewStruct(map[string]any{
		"version": float64(doc.Version),
		"values":  values,
	})
}

// -------------------- Commands --------------------

func (s *Server) Put(ctx context.Context, req *structpb.Struct) (*wrapperspb.UInt64Value, error) {
	f := req.GetFields()
	key, value := f["key"].GetStringValue(), f["value"].GetStringValue()

	version, err := s.svc.Put(key, value)
	if err != nil {
		return nil, toStatus(err)
	}
	log.Printf("[gRPC] Put key=%q version=%d", key, version)
	return wrapperspb.UInt64(version), nil
}

func (s *Server) Delete(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.UInt64Value, error) {
	version, err := s.svc.Delete(req.GetValue())
	if err != nil {
		return nil, toStatus(err)
	}
	log.Printf("[gRPC] Delete key=%q version=%d", req.GetValue(), version)
	return wrapperspb.UInt64(version), nil
}

func toStatus(err error) error {
	if errors.Is(err, service.ErrInvalidMutation) {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	log.Printf("[gRPC] internal error: %v", err)
	return status.Error(codes.Internal, "internal error")
}
