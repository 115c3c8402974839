// Package ledgerhttp talks to the ledger gateway over HTTP and its event
// stream over websocket.
package ledgerhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"marrakech/internal/config"
	"marrakech/internal/ledger"
)

// Client serves one game address for one identity.
type Client struct {
	base     string
	address  string
	identity string
	http     *http.Client
	dialer   *websocket.Dialer
}

var (
	_ ledger.Gateway  = (*Client)(nil)
	_ ledger.Notifier = (*Client)(nil)
)

// New builds a client from the mirror settings.
func New(cfg config.Mirror) *Client {
	return &Client{
		base:     strings.TrimRight(cfg.Gateway, "/"),
		address:  cfg.Address,
		identity: cfg.Identity,
		http:     &http.Client{Timeout: cfg.RequestTimeout},
		dialer:   &websocket.Dialer{HandshakeTimeout: cfg.RequestTimeout},
	}
}

type sendRequest struct {
	From string         `json:"from"`
	Args map[string]any `json:"args"`
}

type sendResponse struct {
	TxHash string `json:"tx_hash"`
}

type receiptResponse struct {
	Status ledger.TxStatus `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) gamePath(parts ...string) string {
	p := c.base + "/games/" + url.PathEscape(c.address)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// Snapshot reads the published state.
func (c *Client) Snapshot(ctx context.Context) (*ledger.Snapshot, error) {
	var snap ledger.Snapshot
	if err := c.do(ctx, http.MethodGet, c.gamePath("state"), nil, &snap); err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	return &snap, nil
}

// Send submits a write and returns its transaction hash.
func (c *Client) Send(ctx context.Context, call ledger.Call) (string, error) {
	var out sendResponse
	body := sendRequest{From: c.identity, Args: call.Args}
	if err := c.do(ctx, http.MethodPost, c.gamePath(call.Name), body, &out); err != nil {
		return "", fmt.Errorf("send %s: %w", call.Name, err)
	}
	if out.TxHash == "" {
		return "", fmt.Errorf("send %s: gateway returned no transaction hash", call.Name)
	}
	return out.TxHash, nil
}

// Receipt looks up a submitted write.
func (c *Client) Receipt(ctx context.Context, txHash string) (ledger.TxStatus, error) {
	var out receiptResponse
	if err := c.do(ctx, http.MethodGet, c.base+"/tx/"+url.PathEscape(txHash), nil, &out); err != nil {
		return "", fmt.Errorf("receipt %s: %w", txHash, err)
	}
	switch out.Status {
	case ledger.TxPending, ledger.TxSuccess, ledger.TxReverted:
		return out.Status, nil
	}
	return "", fmt.Errorf("receipt %s: unknown status %q", txHash, out.Status)
}

func (c *Client) do(ctx context.Context, method, target string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var e errorResponse
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("gateway %d: %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("gateway %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Subscribe dials the event stream. Each message becomes one signal; the
// payload is not interpreted, the mirror re-reads the state instead.
func (c *Client) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	target, err := wsURL(c.gamePath("events"))
	if err != nil {
		return nil, err
	}
	conn, _, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		return nil, fmt.Errorf("dial events: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(out)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			select {
			case out <- struct{}{}:
			default:
			}
		}
	}()
	return out, nil
}

func wsURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.New("gateway url must be http(s) or ws(s)")
	}
	return u.String(), nil
}
