package csrf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	CookieName = "csrftoken"
	FieldName  = "csrfmiddlewaretoken"
)

// Resolver yields the anti-forgery token for state-changing requests.
// Order: the csrftoken cookie held by the client's jar, then the hidden
// csrfmiddlewaretoken field value, then "".
type Resolver struct {
	baseURL *url.URL
	client  *http.Client
	logger  *slog.Logger

	mu         sync.RWMutex
	fieldToken string
}

func NewResolver(baseURL string, client *http.Client, logger *slog.Logger) (*Resolver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if client == nil {
		client = &http.Client{}
	}
	return &Resolver{baseURL: u, client: client, logger: logger}, nil
}

// SetFieldToken records the hidden form field value used when no cookie is present.
func (r *Resolver) SetFieldToken(token string) {
	r.mu.Lock()
	r.fieldToken = token
	r.mu.Unlock()
}

// Token resolves the current token. It never fails; an empty string means none.
func (r *Resolver) Token() string {
	if r.client.Jar != nil {
		for _, c := range r.client.Jar.Cookies(r.baseURL) {
			if c.Name == CookieName && c.Value != "" {
				return c.Value
			}
		}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fieldToken
}

// Prime loads the backend home page so the jar receives the csrftoken
// cookie, and keeps the page's hidden field value as the fallback.
func (r *Resolver) Prime(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch home page: %w", err)
	}
	defer resp.Body.Close()

	if tok, ok := FieldToken(resp.Body); ok {
		r.SetFieldToken(tok)
		r.logger.Debug("csrf field token found", "status", resp.StatusCode)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// FieldToken scans an HTML document for the csrfmiddlewaretoken input.
func FieldToken(body io.Reader) (string, bool) {
	z := html.NewTokenizer(body)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.Input {
				continue
			}
			var name, value string
			for _, a := range tok.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "value":
					value = a.Val
				}
			}
			if name == FieldName {
				return value, true
			}
		}
	}
}
