package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/mattressworks/stockboard/pkg/config"
	"github.com/mattressworks/stockboard/pkg/errors"
	pkghttp "github.com/mattressworks/stockboard/pkg/httputil"
	"github.com/mattressworks/stockboard/pkg/logger"
)

// Proxy forwards the login and token refresh calls to the stock API unchanged
type Proxy struct {
	log        *logger.Logger
	stockProxy *httputil.ReverseProxy
}

// NewProxy creates a new proxy instance
func NewProxy(cfg *config.StockAPIConfig, log *logger.Logger) (*Proxy, error) {
	p := &Proxy{
		log: log.WithComponent("proxy"),
	}

	stockProxy, err := p.createProxy(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	p.stockProxy = stockProxy

	return p, nil
}

func (p *Proxy) createProxy(targetURL string) (*httputil.ReverseProxy, error) {
	target, err := url.Parse(targetURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target %q", targetURL)
	}

	proxy := httputil.NewSingleHostReverseProxy(target)

	originalDirector := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalDirector(req)
		req.Host = target.Host
		if id := pkghttp.GetRequestID(req.Context()); id != "" {
			req.Header.Set(pkghttp.RequestIDHeader, id)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		p.log.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
		pkghttp.Error(w, errors.Unavailable("stock API unavailable", err))
	}

	return proxy, nil
}

// ForwardToStockAPI forwards the request to the stock API
func (p *Proxy) ForwardToStockAPI(w http.ResponseWriter, r *http.Request) {
	p.stockProxy.ServeHTTP(w, r)
}
