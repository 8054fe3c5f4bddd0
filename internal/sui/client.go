// internal/sui/client.go
package sui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jason-s-yu/stakettt/internal/models"
)

// ErrUpstream marks a failed call to the fullnode itself (as opposed to a missing object).
var ErrUpstream = errors.New("sui: upstream request failed")

// DefaultExplorerURL is the explorer searched by SearchByType.
const DefaultExplorerURL = "https://explorer.sui.io"

var defaultFullnodes = map[models.Network]string{
	models.Mainnet: "https://fullnode.mainnet.sui.io:443",
	models.Testnet: "https://fullnode.testnet.sui.io:443",
}

// Config holds client endpoints. Empty fields fall back to the public defaults.
type Config struct {
	Fullnodes   map[models.Network]string
	ExplorerURL string
	Timeout     time.Duration
}

// Client talks to a Sui fullnode (REST object reads and JSON-RPC) and the explorer.
type Client struct {
	fullnodes  map[models.Network]string
	explorer   string
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	nodes := make(map[models.Network]string, len(defaultFullnodes))
	for n, u := range defaultFullnodes {
		nodes[n] = u
	}
	for n, u := range cfg.Fullnodes {
		if u != "" {
			nodes[n] = u
		}
	}
	explorer := cfg.ExplorerURL
	if explorer == "" {
		explorer = DefaultExplorerURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		fullnodes:  nodes,
		explorer:   strings.TrimRight(explorer, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FullnodeURL returns the fullnode base URL for network without a trailing slash.
func (c *Client) FullnodeURL(network models.Network) (string, error) {
	u, ok := c.fullnodes[network]
	if !ok || u == "" {
		return "", fmt.Errorf("no fullnode configured for network %q", network)
	}
	return strings.TrimRight(u, "/"), nil
}

// GetObject fetches {fullnode}/objects/{id} and returns the decoded JSON body.
func (c *Client) GetObject(ctx context.Context, network models.Network, id string) (any, error) {
	base, err := c.FullnodeURL(network)
	if err != nil {
		return nil, err
	}
	var out any
	if err := c.getJSON(ctx, base+"/objects/"+url.PathEscape(id), &out); err != nil {
		return nil, fmt.Errorf("get object %s: %w", id, err)
	}
	return out, nil
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

// OwnedObjects calls sui_getObjectsOwnedByAddress and returns the result array.
// A missing or non-array result yields an empty slice.
func (c *Client) OwnedObjects(ctx context.Context, network models.Network, address string) ([]any, error) {
	base, err := c.FullnodeURL(network)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "sui_getObjectsOwnedByAddress",
		Params:  []any{address},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fullnode rpc status %d", ErrUpstream, resp.StatusCode)
	}

	var payload any
	if err := decodeJSON(resp, &payload); err != nil {
		// an unreadable body is treated like an empty result
		return []any{}, nil
	}
	refs, ok := lookup(payload, "result").([]any)
	if !ok {
		return []any{}, nil
	}
	return refs, nil
}

// SearchByType queries the explorer with each candidate URL shape in turn and returns the
// first non-empty array found (top-level, "data" or "result"). All failures yield nil.
func (c *Client) SearchByType(ctx context.Context, network models.Network, typ string) []any {
	q := url.QueryEscape(typ)
	n := url.QueryEscape(string(network))
	candidates := []string{
		fmt.Sprintf("%s/api/objects/by_type?type=%s&network=%s", c.explorer, q, n),
		fmt.Sprintf("%s/api/v1/objects/by_type?type=%s&network=%s", c.explorer, q, n),
		fmt.Sprintf("%s/api/search?query=%s&network=%s", c.explorer, q, n),
	}
	for _, u := range candidates {
		var body any
		if err := c.getJSON(ctx, u, &body); err != nil {
			continue
		}
		var found []any
		switch {
		case asArray(body) != nil:
			found = asArray(body)
		case asArray(lookup(body, "data")) != nil:
			found = asArray(lookup(body, "data"))
		case asArray(lookup(body, "result")) != nil:
			found = asArray(lookup(body, "result"))
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("api status %d", resp.StatusCode)
	}
	return decodeJSON(resp, out)
}

// decodeJSON keeps numbers as json.Number so u64 values and state codes survive intact.
func decodeJSON(resp *http.Response, out any) error {
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(out)
}

func lookup(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func asArray(v any) []any {
	a, _ := v.([]any)
	return a
}
