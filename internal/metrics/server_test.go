package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerExposesCounters(t *testing.T) {
	FramesReceivedTotal.WithLabelValues("test0").Add(3)
	FramesDroppedTotal.WithLabelValues("test0", DropTruncated).Inc()

	rec := httptest.NewRecorder()
	Handler("").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `flowsniff_frames_received_total{interface="test0"} 3`)
	assert.Contains(t, body, `flowsniff_frames_dropped_total{interface="test0",reason="truncated"} 1`)
}

func TestHandlerCustomPath(t *testing.T) {
	h := Handler("/prom")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prom", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListenServesAndShutsDown(t *testing.T) {
	FlowsActive.WithLabelValues("test1").Set(2)

	e, err := Listen("127.0.0.1:0", "/metrics")
	require.NoError(t, err)

	resp, err := http.Get("http://" + e.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `flowsniff_flows_active{interface="test1"} 2`)

	require.NoError(t, e.Shutdown(context.Background()))
	_, err = http.Get("http://" + e.Addr() + "/metrics")
	assert.Error(t, err)
}

func TestListenAddressInUse(t *testing.T) {
	first, err := Listen("127.0.0.1:0", "")
	require.NoError(t, err)
	defer first.Shutdown(context.Background())

	_, err = Listen(first.Addr(), "")
	assert.Error(t, err)
}
