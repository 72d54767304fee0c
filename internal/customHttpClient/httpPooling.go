package customHttpClient

import (
	"net/http"
	"sync"

	"github.com/akolanti/docgenie/internal/config"
)

// the embedding and llm clients share one pooled transport so repeated
// capability calls reuse connections
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
	ForceAttemptHTTP2:   true,
}

var once sync.Once
var client *http.Client

// GetHttpClient returns the process wide pooled client. Per call deadlines
// come from the caller's context, so the client itself has no timeout.
func GetHttpClient() *http.Client {
	once.Do(func() {
		client = &http.Client{Transport: customTransport}
	})
	return client
}

// CloseIdle drops pooled connections, used on shutdown.
func CloseIdle() {
	customTransport.CloseIdleConnections()
}
