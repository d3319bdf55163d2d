package grpc

import (
	"context"

	"rental-marketplace-backend/internal/domain"
	"rental-marketplace-backend/internal/service"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	PayoutServiceName       = "marketplace.admin.v1.PayoutService"
	ListPayoutsFullMethod   = "/" + PayoutServiceName + "/ListPayouts"
	ReleasePayoutFullMethod = "/" + PayoutServiceName + "/ReleasePayout"
)

// PayoutServiceServer is the admin payout API. Requests and responses are
// google.protobuf.Struct so the service needs no generated code.
type PayoutServiceServer interface {
	ListPayouts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReleasePayout(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type PayoutHandler struct {
	payoutSvc service.PayoutService
}

func NewPayoutHandler(payoutSvc service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payoutSvc: payoutSvc}
}

// ListPayouts takes {filter, page, page_size} and returns {items, total}.
func (h *PayoutHandler) ListPayouts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	filter := domain.PayoutFilter(fields["filter"].GetStringValue())
	page := int32(fields["page"].GetNumberValue())
	pageSize := int32(fields["page_size"].GetNumberValue())

	views, total, err := h.payoutSvc.ListPayouts(ctx, filter, page, pageSize)
	if err != nil {
		return nil, toStatus(err)
	}
	items := make([]any, 0, len(views))
	for _, v := range views {
		items = append(items, MapPayoutViewToStruct(v))
	}
	resp, err := structpb.NewStruct(map[string]any{"items": items, "total": total})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// ReleasePayout takes {booking_id} and returns the released booking.
func (h *PayoutHandler) ReleasePayout(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	adminID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	bookingID, err := uuid.Parse(req.GetFields()["booking_id"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "booking_id must be a UUID")
	}

	b, err := h.payoutSvc.ReleasePayout(ctx, adminID, bookingID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := structpb.NewStruct(MapBookingToStruct(b))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

func RegisterPayoutServiceServer(s grpc.ServiceRegistrar, srv PayoutServiceServer) {
	s.RegisterService(&PayoutService_ServiceDesc, srv)
}

func _PayoutService_ListPayouts_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PayoutServiceServer).ListPayouts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ListPayoutsFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PayoutServiceServer).ListPayouts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _PayoutService_ReleasePayout_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PayoutServiceServer).ReleasePayout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: ReleasePayoutFullMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PayoutServiceServer).ReleasePayout(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var PayoutService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: PayoutServiceName,
	HandlerType: (*PayoutServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ListPayouts",
			Handler:    _PayoutService_ListPayouts_Handler,
		},
		{
			MethodName: "ReleasePayout",
			Handler:    _PayoutService_ReleasePayout_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "marketplace/admin/v1/payout.proto",
}
