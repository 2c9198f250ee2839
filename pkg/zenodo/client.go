package zenodo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/sustainlab/ecopipe/pkg/config"
	"github.com/sustainlab/ecopipe/pkg/net"
)

// The deposit API runs in two environments that differ only in persistence
// and official DOI issuance.
const (
	EnvSandbox    = "sandbox"
	EnvProduction = "production"

	SandboxBaseURL    = "https://sandbox.zenodo.org"
	ProductionBaseURL = "https://zenodo.org"
)

// BaseURLFor maps an environment name to its API host.
func BaseURLFor(env string) (string, error) {
	switch env {
	case EnvSandbox:
		return SandboxBaseURL, nil
	case EnvProduction:
		return ProductionBaseURL, nil
	default:
		return "", fmt.Errorf("unknown archive environment %q (want %s or %s)", env, EnvSandbox, EnvProduction)
	}
}

// DepositionLinks are the REST entry points the archive hands back on
// deposition create.
type DepositionLinks struct {
	Bucket  string `json:"bucket"`
	HTML    string `json:"html,omitempty"`
	Publish string `json:"publish,omitempty"`
}

// Deposition is a draft (or published) record on the archive.
type Deposition struct {
	ID    int             `json:"id"`
	State string          `json:"state,omitempty"`
	DOI   string          `json:"doi,omitempty"`
	Links DepositionLinks `json:"links"`
}

// Client talks to the archive deposit API with bearer authentication.
type Client struct {
	baseURL string
	hc      *http.Client
}

// NewClient builds a deposit client for the given API host. The token is
// supplied out-of-band; there is no interactive auth flow.
func NewClient(ctx context.Context, baseURL, token string) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("archive base URL required")
	}
	if token == "" {
		return nil, errors.New("archive token required (set ZENODO_TOKEN or run auth)")
	}
	return &Client{
		baseURL: baseURL,
		hc:      net.GetBearerClient(ctx, token),
	}, nil
}

// CreateDeposition opens a new draft deposition with the given metadata.
func (c *Client) CreateDeposition(ctx context.Context, meta *config.DepositMeta) (*Deposition, error) {
	if meta == nil {
		return nil, errors.New("deposit metadata required")
	}
	if err := meta.Validate(); err != nil {
		return nil, fmt.Errorf("invalid deposit metadata: %w", err)
	}

	var dep Deposition
	u := c.baseURL + "/api/deposit/depositions"
	if err := net.PostJSON(ctx, c.hc, u, map[string]any{"metadata": meta}, &dep); err != nil {
		return nil, fmt.Errorf("creating deposition: %w", err)
	}
	if dep.Links.Bucket == "" {
		return nil, fmt.Errorf("deposition %d has no bucket link", dep.ID)
	}
	return &dep, nil
}

// UploadFile puts one local file into the deposition bucket under its base
// name.
func (c *Client) UploadFile(ctx context.Context, dep *Deposition, path string) error {
	if dep == nil || dep.Links.Bucket == "" {
		return errors.New("deposition with bucket link required")
	}

	u := dep.Links.Bucket + "/" + url.PathEscape(filepath.Base(path))
	if err := net.PutFile(ctx, c.hc, u, path); err != nil {
		return fmt.Errorf("uploading %s to deposition %d: %w", filepath.Base(path), dep.ID, err)
	}
	return nil
}

// Publish makes the draft deposition public. Irreversible on the production
// environment.
func (c *Client) Publish(ctx context.Context, dep *Deposition) (*Deposition, error) {
	if dep == nil {
		return nil, errors.New("deposition required")
	}

	u := dep.Links.Publish
	if u == "" {
		u = fmt.Sprintf("%s/api/deposit/depositions/%d/actions/publish", c.baseURL, dep.ID)
	}

	var out Deposition
	if err := net.PostJSON(ctx, c.hc, u, nil, &out); err != nil {
		return nil, fmt.Errorf("publishing deposition %d: %w", dep.ID, err)
	}
	return &out, nil
}
