package net

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	maxIdleConns     = 10
	timeoutInSeconds = 60
	clientAgent      = "ecopipe"
)

var reqTransport = &http.Transport{
	MaxIdleConns:          maxIdleConns,
	IdleConnTimeout:       timeoutInSeconds * time.Second,
	DisableCompression:    true,
	DisableKeepAlives:     false,
	ResponseHeaderTimeout: time.Duration(timeoutInSeconds) * time.Second,
}

// GetHTTPClient returns the shared unauthenticated client.
func GetHTTPClient() *http.Client {
	return &http.Client{
		Transport: reqTransport,
		Timeout:   timeoutInSeconds * time.Second,
	}
}

// GetBearerClient returns a client that sends the token as a Bearer
// authorization header on every request.
func GetBearerClient(ctx context.Context, token string) *http.Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{
			TokenType:   "Bearer",
			AccessToken: token,
		},
	)
	return oauth2.NewClient(ctx, ts)
}
