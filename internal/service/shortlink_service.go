package service

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	"github.com/mmynk/nekolators/internal/models"
	"github.com/mmynk/nekolators/internal/rpc"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// ShortLinkService implements rpc.ShortLinkServiceHandler.
type ShortLinkService struct {
	store storage.Store
	links *shortlink.Service
}

var _ rpc.ShortLinkServiceHandler = (*ShortLinkService)(nil)

// NewShortLinkService creates a ShortLinkService.
func NewShortLinkService(store storage.Store, links *shortlink.Service) *ShortLinkService {
	return &ShortLinkService{store: store, links: links}
}

// CreateShortLink returns the share code of a calculation, allocating one the
// first time it is asked for.
func (s *ShortLinkService) CreateShortLink(ctx context.Context, req *connect.Request[rpc.CreateShortLinkRequest]) (*connect.Response[rpc.CreateShortLinkResponse], error) {
	calcType, calcID := req.Msg.CalculationType, req.Msg.CalculationID
	if !calcType.Valid() {
		return nil, invalidArgument("calculationType must be %q or %q", models.CalculationTypeBasic, models.CalculationTypeExpert)
	}
	if calcID == "" {
		return nil, invalidArgument("calculationId required")
	}

	if err := s.checkExists(ctx, calcType, calcID); err != nil {
		return nil, toConnectError("CreateShortLink", err, "calculation_id", calcID)
	}

	link, err := s.links.Create(ctx, calcType, calcID)
	if err != nil {
		return nil, toConnectError("CreateShortLink", err, "calculation_id", calcID)
	}

	return connect.NewResponse(&rpc.CreateShortLinkResponse{
		Code: link.Code,
		Path: "/s/" + link.Code,
	}), nil
}

// ResolveShortLink looks up the calculation behind a code.
func (s *ShortLinkService) ResolveShortLink(ctx context.Context, req *connect.Request[rpc.ResolveShortLinkRequest]) (*connect.Response[rpc.ResolveShortLinkResponse], error) {
	link, err := s.links.Resolve(ctx, req.Msg.Code)
	if err != nil {
		return nil, toConnectError("ResolveShortLink", err, "code", req.Msg.Code)
	}

	return connect.NewResponse(&rpc.ResolveShortLinkResponse{
		CalculationID:   link.CalculationID,
		CalculationType: link.CalculationType,
		RedirectPath:    shortlink.RedirectPath(link),
	}), nil
}

func (s *ShortLinkService) checkExists(ctx context.Context, calcType models.CalculationType, calcID string) error {
	var err error
	if calcType == models.CalculationTypeBasic {
		_, err = s.store.GetCalculation(ctx, calcID)
	} else {
		_, err = s.store.GetExpertCalculation(ctx, calcID)
	}
	if err != nil {
		return fmt.Errorf("cannot link %s calculation: %w", calcType, err)
	}
	return nil
}
