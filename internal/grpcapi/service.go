// Package grpcapi exposes the moderation engine over gRPC for internal
// collaborators such as document and speech workers.
package grpcapi

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/af-corp/textguard/internal/moderation"
	"github.com/af-corp/textguard/internal/notice"
	"github.com/af-corp/textguard/internal/telemetry"
)

const serviceName = "textguard.moderation.v1.Moderation"

type TextRequest struct {
	Text string `json:"text"`
}

type FilterResponse struct {
	Verdict moderation.Verdict `json:"verdict"`
	Label   string             `json:"label,omitempty"`
	Notice  string             `json:"notice,omitempty"`
}

type UnclearResponse struct {
	Unclear bool `json:"unclear"`
}

// ModerationServer is the server API of the moderation service.
type ModerationServer interface {
	Filter(context.Context, *TextRequest) (*FilterResponse, error)
	IsUnclear(context.Context, *TextRequest) (*UnclearResponse, error)
	Report(context.Context, *TextRequest) (*moderation.Report, error)
}

// Server implements ModerationServer on top of the current engine.
type Server struct {
	engines *moderation.Holder
	metrics *telemetry.Metrics
}

// NewServer creates a server. metrics may be nil.
func NewServer(engines *moderation.Holder, metrics *telemetry.Metrics) *Server {
	return &Server{engines: engines, metrics: metrics}
}

func (s *Server) validate(req *TextRequest) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}
	return nil
}

func (s *Server) Filter(_ context.Context, req *TextRequest) (*FilterResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	start := time.Now()
	v := s.engines.Load().Filter(req.Text)
	if s.metrics != nil {
		s.metrics.RecordModeration("grpc", v, time.Since(start))
	}
	resp := &FilterResponse{Verdict: v}
	if !v.Accepted {
		resp.Label = v.Category.Label()
		resp.Notice = notice.For(v)
	}
	return resp, nil
}

func (s *Server) IsUnclear(_ context.Context, req *TextRequest) (*UnclearResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	return &UnclearResponse{Unclear: s.engines.Load().IsUnclear(req.Text)}, nil
}

func (s *Server) Report(_ context.Context, req *TextRequest) (*moderation.Report, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	r := s.engines.Load().Report(req.Text)
	return &r, nil
}

// Register attaches srv to a gRPC server.
func Register(g *grpc.Server, srv ModerationServer) {
	g.RegisterService(&serviceDesc, srv)
}

func unaryHandler[Resp any](method string, call func(ModerationServer, context.Context, *TextRequest) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(TextRequest)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				out, err := call(srv.(ModerationServer), ctx, in)
				return out, err
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + method}
			handler := func(ctx context.Context, req any) (any, error) {
				out, err := call(srv.(ModerationServer), ctx, req.(*TextRequest))
				return out, err
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ModerationServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("Filter", ModerationServer.Filter),
		unaryHandler("IsUnclear", ModerationServer.IsUnclear),
		unaryHandler("Report", ModerationServer.Report),
	},
	Streams: []grpc.StreamDesc{},
}
