package live

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/nekolators/internal/service"
)

type testReply struct {
	Mode   Mode           `json:"mode"`
	ID     string         `json:"id"`
	Result map[string]any `json:"result"`
	Error  string         `json:"error"`
}

func dial(t *testing.T, origins []string, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	server := httptest.NewServer(NewHandler(service.NewCalculatorService(), origins))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func TestLiveTotals(t *testing.T) {
	conn, _, err := dial(t, []string{"*"}, nil)
	require.NoError(t, err)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{
		"mode": "flat",
		"id": "d1",
		"persons": [{"id": "a", "price": "5000+7000"}, {"id": "b", "price": "8000"}],
		"discountValue": "2000",
		"taxValue": "1000"
	}`)))

	var flat testReply
	require.NoError(t, conn.ReadJSON(&flat))
	assert.Equal(t, ModeFlat, flat.Mode)
	assert.Equal(t, "d1", flat.ID)
	assert.Empty(t, flat.Error)
	assert.Equal(t, 20000.0, flat.Result["overallTotal"])
	assert.InDelta(t, 19000, flat.Result["finalTotal"], 1e-9)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{
		"mode": "expert",
		"id": "d2",
		"items": [{"id": "i1", "price": 200}, {"id": "i2", "price": 100}],
		"persons": [{"id": "p1"}, {"id": "p2"}],
		"assignments": [{"itemId": "i1", "personId": "p1"}, {"itemId": "i2", "personId": "p2"}],
		"discount": 30,
		"tax": 15
	}`)))

	var expert testReply
	require.NoError(t, conn.ReadJSON(&expert))
	assert.Equal(t, "d2", expert.ID)
	totals, ok := expert.Result["totals"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 285.0, totals["finalTotal"])
	personTotals, ok := totals["personTotals"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 190, personTotals["p1"], 1e-9)
}

func TestLiveErrors(t *testing.T) {
	conn, _, err := dial(t, nil, nil)
	require.NoError(t, err)

	tests := []struct {
		message string
		want    string
	}{
		{message: `not json`, want: "invalid message"},
		{message: `{"mode": "sideways"}`, want: "unknown mode"},
		{message: `{"mode": "flat", "persons": [{"id": "a", "price": "Infinity"}]}`, want: "finite"},
	}

	for _, tt := range tests {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.message)))

		var reply testReply
		require.NoError(t, conn.ReadJSON(&reply))
		assert.Contains(t, reply.Error, tt.want)
		assert.Nil(t, reply.Result)
	}
}

func TestCheckOrigin(t *testing.T) {
	_, resp, err := dial(t, []string{"http://localhost:5173"}, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, _, err = dial(t, []string{"http://localhost:5173"}, http.Header{"Origin": {"http://localhost:5173"}})
	require.NoError(t, err)
}
