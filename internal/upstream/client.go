// Package upstream talks to the engagement-logging service. Two wire
// variants exist, selected once at construction from which API key is
// configured; both expose the same create/update operations and the same
// failure contract.
package upstream

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/termrelay/termrelay/internal/config"
	"github.com/termrelay/termrelay/internal/model"
)

const userAgent = "termrelay/1.2.0"

// Client creates and updates oplog records on the upstream service.
// Implementations must bound every call by the configured timeout and
// return *Error for every failure.
type Client interface {
	// CreateEntry records a new entry upstream and returns its remote ID.
	CreateEntry(ctx context.Context, e *model.Entry) (int64, error)
	// UpdateEntry rewrites the remote record identified by e.RemoteID.
	UpdateEntry(ctx context.Context, e *model.Entry) (int64, error)
}

// New selects and constructs the wire variant from configuration. The
// GraphQL variant takes precedence when both API keys are present.
func New(cfg *config.Config) (Client, error) {
	if !strings.HasPrefix(cfg.GwURL, "http") {
		return nil, fmt.Errorf("invalid upstream URL %q", cfg.GwURL)
	}
	if cfg.GwOplogID < 1 {
		return nil, fmt.Errorf("oplog ID must be a positive integer, got %d", cfg.GwOplogID)
	}
	if cfg.GwGraphQLAPIKey == "" && cfg.GwRestAPIKey == "" {
		return nil, fmt.Errorf("no upstream API key configured")
	}

	if cfg.GwGraphQLAPIKey != "" {
		rc := newRestyClient(cfg, "Bearer "+cfg.GwGraphQLAPIKey)
		return &graphQLClient{rc: rc, oplogID: cfg.GwOplogID}, nil
	}
	rc := newRestyClient(cfg, "Api-Key "+cfg.GwRestAPIKey)
	return &restClient{rc: rc, oplogID: cfg.GwOplogID}, nil
}

func newRestyClient(cfg *config.Config, authorization string) *resty.Client {
	rc := resty.New().
		SetBaseURL(cfg.GwURL).
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", authorization).
		SetTimeout(cfg.Timeout())
	if !cfg.GwSSLCheck {
		// Opt-out for self-signed upstream deployments.
		rc.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	return rc
}
