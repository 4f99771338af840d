package http

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/VictoriaMetrics/metrics"
	"github.com/matryer/is"
)

func setupTest(t *testing.T, config common.ServerConfig) (*is.I, *httptest.Server) {
	is := is.New(t)

	srv := NewHttpServerTransport().(*httpServerTransport)
	srv.RegisterHandler(func(shardID uint64, req []byte) []byte {
		return []byte(fmt.Sprintf("%d:%s", shardID, req))
	})
	ts := httptest.NewServer(srv.Router(config))
	t.Cleanup(ts.Close)

	return is, ts
}

func TestRoundTrip(t *testing.T) {
	is, ts := setupTest(t, common.ServerConfig{})

	c := NewHttpClientTransport()
	is.NoErr(c.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 2, RetryCount: 2}))
	defer c.Close()

	resp, err := c.Send(42, []byte("ping"))
	is.NoErr(err)
	is.Equal(string(resp), "42:ping")

	// the body is sent again on every call
	resp, err = c.Send(7, []byte("pong"))
	is.NoErr(err)
	is.Equal(string(resp), "7:pong")
}

func TestRoundRobin(t *testing.T) {
	is, first := setupTest(t, common.ServerConfig{})
	_, second := setupTest(t, common.ServerConfig{})

	c := NewHttpClientTransport()
	is.NoErr(c.Connect(common.ClientConfig{Endpoints: []string{first.URL, second.URL}, TimeoutSecond: 2}))
	defer c.Close()

	for i := 0; i < 4; i++ {
		_, err := c.Send(1, []byte("x"))
		is.NoErr(err)
	}
}

func TestInvalidShard(t *testing.T) {
	is, ts := setupTest(t, common.ServerConfig{})

	resp, err := http.Post(ts.URL+"/abc", "application/octet-stream", strings.NewReader("x"))
	is.NoErr(err)
	defer resp.Body.Close()
	is.Equal(resp.StatusCode, http.StatusBadRequest)
}

func TestHTTPErrorStatus(t *testing.T) {
	is := is.New(t)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewHttpClientTransport()
	is.NoErr(c.Connect(common.ClientConfig{Endpoints: []string{ts.URL}, TimeoutSecond: 2}))
	_, err := c.Send(1, nil)
	is.True(err != nil)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics.GetOrCreateCounter("duid_transport_test_total").Inc()

	tests := []struct {
		name    string
		enabled bool
		status  int
	}{
		{"enabled", true, http.StatusOK},
		{"disabled", false, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			is, ts := setupTest(t, common.ServerConfig{Metrics: tt.enabled})

			resp, err := http.Get(ts.URL + "/metrics")
			is.NoErr(err)
			defer resp.Body.Close()
			is.Equal(resp.StatusCode, tt.status)

			if tt.enabled {
				body, err := io.ReadAll(resp.Body)
				is.NoErr(err)
				is.True(strings.Contains(string(body), "duid_transport_test_total 1"))
			}
		})
	}
}

func TestSendWithoutConnect(t *testing.T) {
	is := is.New(t)
	_, err := NewHttpClientTransport().Send(1, nil)
	is.True(err != nil)

	err = NewHttpClientTransport().Connect(common.ClientConfig{})
	is.True(err != nil) // no endpoints
}
