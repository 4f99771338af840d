package http

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dUID/rpc/common"
	"github.com/ValentinKolb/dUID/rpc/transport"
)

func NewHttpClientTransport() transport.IRPCClientTransport {
	return &httpClientTransport{}
}

type httpClientTransport struct {
	serverURLs []*url.URL
	client     *http.Client
	counter    atomic.Uint32
	retryCount int
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *httpClientTransport) Connect(config common.ClientConfig) error {
	if len(config.Endpoints) == 0 {
		return fmt.Errorf("http transport: no endpoints configured")
	}

	parsedURLs := make([]*url.URL, len(config.Endpoints))
	for i, server := range config.Endpoints {
		parsedURL, err := url.Parse(server)
		if err != nil {
			return err
		}
		parsedURLs[i] = parsedURL
	}

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	t.client = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     timeout,
		},
	}
	t.serverURLs = parsedURLs
	t.retryCount = max(config.RetryCount, 1)
	return nil
}

func (t *httpClientTransport) Send(shardID uint64, req []byte) ([]byte, error) {
	if t.client == nil {
		return nil, fmt.Errorf("http transport not initialized")
	}

	// round-robin over the endpoints
	idx := t.counter.Add(1) % uint32(len(t.serverURLs))
	requestURL := fmt.Sprintf("%s/%d", t.serverURLs[idx].String(), shardID)

	var (
		resp *http.Response
		err  error
	)
	for i := 0; i < t.retryCount; i++ {
		resp, err = t.client.Post(requestURL, "application/octet-stream", bytes.NewReader(req))
		if err == nil {
			break
		}
		Logger.Debugf("request to %s failed (attempt %d/%d): %v", requestURL, i+1, t.retryCount, err)
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			Logger.Errorf("Failed to close response body: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http error: %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (t *httpClientTransport) Close() error {
	if t.client != nil {
		t.client.CloseIdleConnections()
	}
	t.client = nil
	t.serverURLs = nil
	return nil
}
