package llm

import (
	"net/http"
	"net/url"

	"github.com/ppiankov/weitblick/internal/model"
)

// NewHTTPClient builds the client shared by all vendors. No client-level
// timeout is set: every call carries its own deadline through the context.
func NewHTTPClient(cfg model.HTTPConfig) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               proxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			MaxIdleConnsPerHost: 4,
		},
	}
}

// proxyFunc prefers explicit proxy URLs and falls back to the environment
func proxyFunc(httpProxy, httpsProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
