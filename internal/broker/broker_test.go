package broker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(Options{APIKey: "key", APISecret: "secret", BaseURL: server.URL}, nil)
}

func TestPositionNotFoundMeansNoPosition(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/positions/VTI", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"code":40410000,"message":"position does not exist"}`))
	})

	_, ok, err := client.Position(context.Background(), "VTI")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPositionConvertsGainToPercent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"symbol":"VTI","qty":"10","qty_available":"8","avg_entry_price":"200",` +
			`"market_value":"2100","unrealized_plpc":"0.05","unrealized_intraday_plpc":"-0.01"}`))
	})

	position, ok, err := client.Position(context.Background(), "VTI")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 8.0, position.QtyAvailable)
	assert.Equal(t, 2000.0, position.Value())
	require.NotNil(t, position.MarketValue)
	assert.Equal(t, 2100.0, *position.MarketValue)
	require.NotNil(t, position.UnrealizedGainTotalPercent)
	assert.InDelta(t, 5.0, *position.UnrealizedGainTotalPercent, 1e-9)
	assert.InDelta(t, -1.0, *position.UnrealizedGainTodayPercent, 1e-9)
}

func TestPositionReturnsOtherAPIErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":40310000,"message":"forbidden"}`))
	})

	_, ok, err := client.Position(context.Background(), "VTI")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "fetch position VTI")
}

func TestNoopHasNoPositions(t *testing.T) {
	_, ok, err := NewNoop(nil).Position(context.Background(), "VTI")
	require.NoError(t, err)
	assert.False(t, ok)
}
