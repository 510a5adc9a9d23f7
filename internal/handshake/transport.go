package handshake

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"golang.org/x/net/publicsuffix"
)

// NewHTTPClient creates the client used for the login and probe calls. It keeps
// cookies between calls so the session issued by login is sent with the probe,
// and caches cacheable responses, on disk when cacheDir is set.
func NewHTTPClient(cacheDir string) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	var cache httpcache.Cache = httpcache.NewMemoryCache()
	if cacheDir != "" {
		cache = diskcache.New(cacheDir)
	}

	return &http.Client{
		Jar:       jar,
		Transport: httpcache.NewTransport(cache),
	}, nil
}
