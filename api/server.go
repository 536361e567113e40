// Package api exposes the order service over gRPC. Messages are
// hand-framed (see messages.go) and served through a custom codec, so
// no generated pb code is required on either end.
package api

import (
	"context"
	"errors"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"mimir/orderbook"
	"mimir/service"
)

type Server struct {
	svc *service.OrderService
}

func NewServer(svc *service.OrderService) *Server {
	return &Server{svc: svc}
}

func (s *Server) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	res, err := s.svc.PlaceLimit(orderbook.Side(req.Side), req.Price, req.Qty)
	if err != nil {
		if errors.Is(err, service.ErrInvalidOrder) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	log.Printf("[api] place side=%s price=%d qty=%d status=%s",
		orderbook.Side(req.Side), req.Price, req.Qty, res.Status)

	resp := &PlaceOrderResponse{
		Status:       int32(res.Status),
		RemainingQty: res.RemainingQty,
		RestingID:    res.RestingID,
	}
	for _, f := range res.Fills {
		resp.Fills = append(resp.Fills, Fill{Qty: f.Qty, Price: f.Price})
	}
	return resp, nil
}

func (s *Server) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error) {
	if err := s.svc.Cancel(req.OrderID); err != nil {
		if errors.Is(err, orderbook.ErrUnknownOrder) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &CancelOrderResponse{}, nil
}

func (s *Server) GetBBO(ctx context.Context, req *GetBBORequest) (*GetBBOResponse, error) {
	q, err := s.svc.Quote()
	if err != nil {
		if errors.Is(err, orderbook.ErrEmptyBook) {
			return nil, status.Error(codes.FailedPrecondition, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	return &GetBBOResponse{
		BidPrice: q.BidPrice,
		BidQty:   q.BidQty,
		AskPrice: q.AskPrice,
		AskQty:   q.AskQty,
		Spread:   q.Spread,
	}, nil
}

func (s *Server) GetDepth(ctx context.Context, req *GetDepthRequest) (*GetDepthResponse, error) {
	qty, known := s.svc.Depth(orderbook.Side(req.Side), req.Price)
	return &GetDepthResponse{Qty: qty, Known: known}, nil
}

// Register attaches the order service to a grpc server. Build the
// server with grpc.ForceServerCodec(api.Codec{}).
func Register(g *grpc.Server, srv *Server) {
	g.RegisterService(&serviceDesc, srv)
}

const fullServiceName = "mimir.OrderService"

var serviceDesc = grpc.ServiceDesc{
	ServiceName: fullServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "CancelOrder", Handler: cancelOrderHandler},
		{MethodName: "GetBBO", Handler: getBBOHandler},
		{MethodName: "GetDepth", Handler: getDepthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mimir/api",
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/PlaceOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).PlaceOrder(ctx, req.(*PlaceOrderRequest))
	})
}

func cancelOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CancelOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).CancelOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/CancelOrder"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).CancelOrder(ctx, req.(*CancelOrderRequest))
	})
}

func getBBOHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetBBORequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).GetBBO(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/GetBBO"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).GetBBO(ctx, req.(*GetBBORequest))
	})
}

func getDepthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetDepthRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Server).GetDepth(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + fullServiceName + "/GetDepth"}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(*Server).GetDepth(ctx, req.(*GetDepthRequest))
	})
}
