package rpc

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	CalculatorServiceName        = "nekolators.v1.CalculatorService"
	CalculationServiceName       = "nekolators.v1.CalculationService"
	ExpertCalculationServiceName = "nekolators.v1.ExpertCalculationService"
	ShortLinkServiceName         = "nekolators.v1.ShortLinkService"
)

const (
	CalculatorServiceCalculateFlatProcedure   = "/" + CalculatorServiceName + "/CalculateFlat"
	CalculatorServiceCalculateExpertProcedure = "/" + CalculatorServiceName + "/CalculateExpert"

	CalculationServiceCreateCalculationProcedure = "/" + CalculationServiceName + "/CreateCalculation"
	CalculationServiceGetCalculationProcedure    = "/" + CalculationServiceName + "/GetCalculation"
	CalculationServiceUpdateCalculationProcedure = "/" + CalculationServiceName + "/UpdateCalculation"

	ExpertCalculationServiceCreateExpertCalculationProcedure = "/" + ExpertCalculationServiceName + "/CreateExpertCalculation"
	ExpertCalculationServiceGetExpertCalculationProcedure    = "/" + ExpertCalculationServiceName + "/GetExpertCalculation"
	ExpertCalculationServiceUpdateExpertCalculationProcedure = "/" + ExpertCalculationServiceName + "/UpdateExpertCalculation"

	ShortLinkServiceCreateShortLinkProcedure  = "/" + ShortLinkServiceName + "/CreateShortLink"
	ShortLinkServiceResolveShortLinkProcedure = "/" + ShortLinkServiceName + "/ResolveShortLink"
)

// IsProcedurePath reports whether an HTTP path belongs to one of the services.
func IsProcedurePath(path string) bool {
	return strings.HasPrefix(path, "/nekolators.v1.")
}

// route dispatches by exact procedure path.
func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// CalculatorServiceHandler computes splits without persisting anything.
type CalculatorServiceHandler interface {
	CalculateFlat(context.Context, *connect.Request[CalculateFlatRequest]) (*connect.Response[CalculateFlatResponse], error)
	CalculateExpert(context.Context, *connect.Request[CalculateExpertRequest]) (*connect.Response[CalculateExpertResponse], error)
}

// NewCalculatorServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewCalculatorServiceHandler(svc CalculatorServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + CalculatorServiceName + "/", route(map[string]http.Handler{
		CalculatorServiceCalculateFlatProcedure:   connect.NewUnaryHandler(CalculatorServiceCalculateFlatProcedure, svc.CalculateFlat, opts...),
		CalculatorServiceCalculateExpertProcedure: connect.NewUnaryHandler(CalculatorServiceCalculateExpertProcedure, svc.CalculateExpert, opts...),
	})
}

// CalculatorServiceClient is a client for the calculator service.
type CalculatorServiceClient struct {
	calculateFlat   *connect.Client[CalculateFlatRequest, CalculateFlatResponse]
	calculateExpert *connect.Client[CalculateExpertRequest, CalculateExpertResponse]
}

// NewCalculatorServiceClient constructs a client for the calculator service
// at baseURL, e.g. "http://localhost:8080".
func NewCalculatorServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CalculatorServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &CalculatorServiceClient{
		calculateFlat:   connect.NewClient[CalculateFlatRequest, CalculateFlatResponse](httpClient, baseURL+CalculatorServiceCalculateFlatProcedure, opts...),
		calculateExpert: connect.NewClient[CalculateExpertRequest, CalculateExpertResponse](httpClient, baseURL+CalculatorServiceCalculateExpertProcedure, opts...),
	}
}

func (c *CalculatorServiceClient) CalculateFlat(ctx context.Context, req *connect.Request[CalculateFlatRequest]) (*connect.Response[CalculateFlatResponse], error) {
	return c.calculateFlat.CallUnary(ctx, req)
}

func (c *CalculatorServiceClient) CalculateExpert(ctx context.Context, req *connect.Request[CalculateExpertRequest]) (*connect.Response[CalculateExpertResponse], error) {
	return c.calculateExpert.CallUnary(ctx, req)
}

// CalculationServiceHandler stores basic calculations.
type CalculationServiceHandler interface {
	CreateCalculation(context.Context, *connect.Request[CreateCalculationRequest]) (*connect.Response[CreateCalculationResponse], error)
	GetCalculation(context.Context, *connect.Request[GetCalculationRequest]) (*connect.Response[GetCalculationResponse], error)
	UpdateCalculation(context.Context, *connect.Request[UpdateCalculationRequest]) (*connect.Response[UpdateCalculationResponse], error)
}

// NewCalculationServiceHandler builds an HTTP handler for the calculation service.
func NewCalculationServiceHandler(svc CalculationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + CalculationServiceName + "/", route(map[string]http.Handler{
		CalculationServiceCreateCalculationProcedure: connect.NewUnaryHandler(CalculationServiceCreateCalculationProcedure, svc.CreateCalculation, opts...),
		CalculationServiceGetCalculationProcedure:    connect.NewUnaryHandler(CalculationServiceGetCalculationProcedure, svc.GetCalculation, opts...),
		CalculationServiceUpdateCalculationProcedure: connect.NewUnaryHandler(CalculationServiceUpdateCalculationProcedure, svc.UpdateCalculation, opts...),
	})
}

// CalculationServiceClient is a client for the calculation service.
type CalculationServiceClient struct {
	create *connect.Client[CreateCalculationRequest, CreateCalculationResponse]
	get    *connect.Client[GetCalculationRequest, GetCalculationResponse]
	update *connect.Client[UpdateCalculationRequest, UpdateCalculationResponse]
}

// NewCalculationServiceClient constructs a client for the calculation service.
func NewCalculationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *CalculationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &CalculationServiceClient{
		create: connect.NewClient[CreateCalculationRequest, CreateCalculationResponse](httpClient, baseURL+CalculationServiceCreateCalculationProcedure, opts...),
		get:    connect.NewClient[GetCalculationRequest, GetCalculationResponse](httpClient, baseURL+CalculationServiceGetCalculationProcedure, opts...),
		update: connect.NewClient[UpdateCalculationRequest, UpdateCalculationResponse](httpClient, baseURL+CalculationServiceUpdateCalculationProcedure, opts...),
	}
}

func (c *CalculationServiceClient) CreateCalculation(ctx context.Context, req *connect.Request[CreateCalculationRequest]) (*connect.Response[CreateCalculationResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *CalculationServiceClient) GetCalculation(ctx context.Context, req *connect.Request[GetCalculationRequest]) (*connect.Response[GetCalculationResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *CalculationServiceClient) UpdateCalculation(ctx context.Context, req *connect.Request[UpdateCalculationRequest]) (*connect.Response[UpdateCalculationResponse], error) {
	return c.update.CallUnary(ctx, req)
}

// ExpertCalculationServiceHandler stores itemized calculations.
type ExpertCalculationServiceHandler interface {
	CreateExpertCalculation(context.Context, *connect.Request[CreateExpertCalculationRequest]) (*connect.Response[CreateExpertCalculationResponse], error)
	GetExpertCalculation(context.Context, *connect.Request[GetExpertCalculationRequest]) (*connect.Response[GetExpertCalculationResponse], error)
	UpdateExpertCalculation(context.Context, *connect.Request[UpdateExpertCalculationRequest]) (*connect.Response[UpdateExpertCalculationResponse], error)
}

// NewExpertCalculationServiceHandler builds an HTTP handler for the expert
// calculation service.
func NewExpertCalculationServiceHandler(svc ExpertCalculationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + ExpertCalculationServiceName + "/", route(map[string]http.Handler{
		ExpertCalculationServiceCreateExpertCalculationProcedure: connect.NewUnaryHandler(ExpertCalculationServiceCreateExpertCalculationProcedure, svc.CreateExpertCalculation, opts...),
		ExpertCalculationServiceGetExpertCalculationProcedure:    connect.NewUnaryHandler(ExpertCalculationServiceGetExpertCalculationProcedure, svc.GetExpertCalculation, opts...),
		ExpertCalculationServiceUpdateExpertCalculationProcedure: connect.NewUnaryHandler(ExpertCalculationServiceUpdateExpertCalculationProcedure, svc.UpdateExpertCalculation, opts...),
	})
}

// ExpertCalculationServiceClient is a client for the expert calculation service.
type ExpertCalculationServiceClient struct {
	create *connect.Client[CreateExpertCalculationRequest, CreateExpertCalculationResponse]
	get    *connect.Client[GetExpertCalculationRequest, GetExpertCalculationResponse]
	update *connect.Client[UpdateExpertCalculationRequest, UpdateExpertCalculationResponse]
}

// NewExpertCalculationServiceClient constructs a client for the expert
// calculation service.
func NewExpertCalculationServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpertCalculationServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ExpertCalculationServiceClient{
		create: connect.NewClient[CreateExpertCalculationRequest, CreateExpertCalculationResponse](httpClient, baseURL+ExpertCalculationServiceCreateExpertCalculationProcedure, opts...),
		get:    connect.NewClient[GetExpertCalculationRequest, GetExpertCalculationResponse](httpClient, baseURL+ExpertCalculationServiceGetExpertCalculationProcedure, opts...),
		update: connect.NewClient[UpdateExpertCalculationRequest, UpdateExpertCalculationResponse](httpClient, baseURL+ExpertCalculationServiceUpdateExpertCalculationProcedure, opts...),
	}
}

func (c *ExpertCalculationServiceClient) CreateExpertCalculation(ctx context.Context, req *connect.Request[CreateExpertCalculationRequest]) (*connect.Response[CreateExpertCalculationResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *ExpertCalculationServiceClient) GetExpertCalculation(ctx context.Context, req *connect.Request[GetExpertCalculationRequest]) (*connect.Response[GetExpertCalculationResponse], error) {
	return c.get.CallUnary(ctx, req)
}

func (c *ExpertCalculationServiceClient) UpdateExpertCalculation(ctx context.Context, req *connect.Request[UpdateExpertCalculationRequest]) (*connect.Response[UpdateExpertCalculationResponse], error) {
	return c.update.CallUnary(ctx, req)
}

// ShortLinkServiceHandler creates and resolves share codes.
type ShortLinkServiceHandler interface {
	CreateShortLink(context.Context, *connect.Request[CreateShortLinkRequest]) (*connect.Response[CreateShortLinkResponse], error)
	ResolveShortLink(context.Context, *connect.Request[ResolveShortLinkRequest]) (*connect.Response[ResolveShortLinkResponse], error)
}

// NewShortLinkServiceHandler builds an HTTP handler for the short link service.
func NewShortLinkServiceHandler(svc ShortLinkServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + ShortLinkServiceName + "/", route(map[string]http.Handler{
		ShortLinkServiceCreateShortLinkProcedure:  connect.NewUnaryHandler(ShortLinkServiceCreateShortLinkProcedure, svc.CreateShortLink, opts...),
		ShortLinkServiceResolveShortLinkProcedure: connect.NewUnaryHandler(ShortLinkServiceResolveShortLinkProcedure, svc.ResolveShortLink, opts...),
	})
}

// ShortLinkServiceClient is a client for the short link service.
type ShortLinkServiceClient struct {
	create  *connect.Client[CreateShortLinkRequest, CreateShortLinkResponse]
	resolve *connect.Client[ResolveShortLinkRequest, ResolveShortLinkResponse]
}

// NewShortLinkServiceClient constructs a client for the short link service.
func NewShortLinkServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ShortLinkServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ShortLinkServiceClient{
		create:  connect.NewClient[CreateShortLinkRequest, CreateShortLinkResponse](httpClient, baseURL+ShortLinkServiceCreateShortLinkProcedure, opts...),
		resolve: connect.NewClient[ResolveShortLinkRequest, ResolveShortLinkResponse](httpClient, baseURL+ShortLinkServiceResolveShortLinkProcedure, opts...),
	}
}

func (c *ShortLinkServiceClient) CreateShortLink(ctx context.Context, req *connect.Request[CreateShortLinkRequest]) (*connect.Response[CreateShortLinkResponse], error) {
	return c.create.CallUnary(ctx, req)
}

func (c *ShortLinkServiceClient) ResolveShortLink(ctx context.Context, req *connect.Request[ResolveShortLinkRequest]) (*connect.Response[ResolveShortLinkResponse], error) {
	return c.resolve.CallUnary(ctx, req)
}
