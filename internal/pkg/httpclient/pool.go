package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

var (
	defaultClient     *PooledClient
	defaultClientOnce sync.Once
)

type Config struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	MaxConnsPerHost     int
	IdleConnTimeout     time.Duration
	TLSHandshakeTimeout time.Duration
	ResponseTimeout     time.Duration
	KeepAlive           time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ResponseTimeout:     120 * time.Second,
		KeepAlive:           30 * time.Second,
	}
}

type PooledClient struct {
	client *http.Client
	config Config
}

func NewPooledClient(config Config) *PooledClient {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: config.KeepAlive,
		}).DialContext,
		MaxIdleConns:        config.MaxIdleConns,
		MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		IdleConnTimeout:     config.IdleConnTimeout,
		TLSHandshakeTimeout: config.TLSHandshakeTimeout,
		ForceAttemptHTTP2:   true,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   config.ResponseTimeout,
	}

	return &PooledClient{
		client: client,
		config: config,
	}
}

func Default() *PooledClient {
	defaultClientOnce.Do(func() {
		defaultClient = NewPooledClient(DefaultConfig())
	})
	return defaultClient
}

func (p *PooledClient) Do(req *http.Request) (*http.Response, error) {
	return p.client.Do(req)
}

func (p *PooledClient) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return p.Do(req)
}

func (p *PooledClient) PostJSON(ctx context.Context, url string, body io.Reader) (*http.Response, error) {
	return p.Post(ctx, url, "application/json", body)
}

func (p *PooledClient) CloseIdleConnections() {
	p.client.CloseIdleConnections()
}
