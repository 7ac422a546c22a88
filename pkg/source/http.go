package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mchmarny/menugate/pkg/menu"
)

// maxBodyBytes caps a remote menu document.
const maxBodyBytes = 4 << 20

// StatusError is returned when the remote answers with a non-2xx status.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s failed: %d", e.URL, e.Status)
}

// HTTP fetches the menu from a REST endpoint answering {success, data}.
type HTTP struct {
	URL      string
	Token    string
	Timeout  time.Duration
	Client   *http.Client
	Observer LoadObserver
}

func (h *HTTP) Load(ctx context.Context) (*menu.Menu, error) {
	m, err := h.fetch(ctx)
	if h.Observer != nil {
		h.Observer.ObserveLoad("http", err)
	}
	return m, err
}

func (h *HTTP) fetch(ctx context.Context) (*menu.Menu, error) {
	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build menu request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.Token != "" {
		req.Header.Set("Authorization", "Bearer "+h.Token)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch menu: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: h.URL, Status: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read menu response: %w", err)
	}

	m, err := Decode(b, FormatFor(pathOf(h.URL)))
	if err != nil {
		return nil, err
	}

	slog.Debug("menu fetched", "url", h.URL, "nodes", menu.Count(m.Items))

	return m, nil
}

// Ready fetches the menu once to confirm the remote is reachable.
func (h *HTTP) Ready(ctx context.Context) error {
	_, err := h.fetch(ctx)
	return err
}

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return http.DefaultClient
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}
