package service

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/middleware"
	"github.com/mmynk/nekolators/internal/rpc"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage/sqlite"
)

type testClients struct {
	calculator  *rpc.CalculatorServiceClient
	calculation *rpc.CalculationServiceClient
	expert      *rpc.ExpertCalculationServiceClient
	links       *rpc.ShortLinkServiceClient
}

// setupTestServer serves every service over HTTP against a temporary SQLite
// database and returns clients for them.
func setupTestServer(t *testing.T) testClients {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor())

	mux := http.NewServeMux()
	mux.Handle(rpc.NewCalculatorServiceHandler(NewCalculatorService(), interceptors))
	mux.Handle(rpc.NewCalculationServiceHandler(NewCalculationService(store), interceptors))
	mux.Handle(rpc.NewExpertCalculationServiceHandler(NewExpertCalculationService(store), interceptors))
	mux.Handle(rpc.NewShortLinkServiceHandler(NewShortLinkService(store, shortlink.NewService(store)), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return testClients{
		calculator:  rpc.NewCalculatorServiceClient(http.DefaultClient, server.URL),
		calculation: rpc.NewCalculationServiceClient(http.DefaultClient, server.URL),
		expert:      rpc.NewExpertCalculationServiceClient(http.DefaultClient, server.URL),
		links:       rpc.NewShortLinkServiceClient(http.DefaultClient, server.URL),
	}
}

func requireCode(t *testing.T, want connect.Code, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, want, connect.CodeOf(err), "error: %v", err)
}
