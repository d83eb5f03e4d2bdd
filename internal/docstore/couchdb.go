package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/envutil"
	"github.com/inkwave/teamsync-backend/internal/platform/httpx"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
)

type Config struct {
	BaseURL    string
	Database   string
	Username   string
	Password   string
	Timeout    time.Duration
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:    strings.TrimSpace(os.Getenv("COUCHDB_URI")),
		Database:   envutil.String("COUCHDB_DATABASE", "teamsync"),
		Username:   strings.TrimSpace(os.Getenv("COUCHDB_USER")),
		Password:   strings.TrimSpace(os.Getenv("COUCHDB_PASSWORD")),
		Timeout:    time.Duration(envutil.Int("COUCHDB_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxRetries: envutil.Int("COUCHDB_MAX_RETRIES", 3),
	}
}

func NewCouchDBFromEnv(log *logger.Logger) (Store, error) {
	return NewCouchDB(log, ConfigFromEnv())
}

func NewCouchDB(log *logger.Logger, cfg Config) (Store, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing COUCHDB_URI")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &couchClient{
		log:        log.With("client", "CouchDBClient"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type couchClient struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

// HTTPError is a non-2xx response from the store.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "couchdb: <nil error>"
	}
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = "<empty body>"
	}
	if len(msg) > 2000 {
		msg = msg[:2000] + "..."
	}
	return fmt.Sprintf("couchdb http %d: %s", e.StatusCode, msg)
}

func (e *HTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *couchClient) docURL(id string) string {
	return c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.Database) + "/" + url.PathEscape(id)
}

func (c *couchClient) Get(ctx context.Context, id string, out any) (bool, error) {
	raw, err := c.do(ctx, http.MethodGet, c.docURL(id), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *couchClient) GetRev(ctx context.Context, id, rev string, out any) (bool, error) {
	raw, err := c.do(ctx, http.MethodGet, c.docURL(id)+"?rev="+url.QueryEscape(rev), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (c *couchClient) Put(ctx context.Context, doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	env, err := DecodeEnvelope(raw)
	if err != nil {
		return "", err
	}
	if env.ID == "" {
		return "", fmt.Errorf("put: %w: missing _id", pkgerrors.ErrInvalidArgument)
	}

	body, err := c.do(ctx, http.MethodPut, c.docURL(env.ID), raw)
	if err != nil {
		if isStatus(err, http.StatusConflict) {
			return "", fmt.Errorf("put %s: %w", env.ID, pkgerrors.ErrConflict)
		}
		return "", err
	}

	var resp struct {
		Rev string `json:"rev"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", err
	}
	return resp.Rev, nil
}

func (c *couchClient) ListPrefix(ctx context.Context, prefix string) ([]json.RawMessage, error) {
	startKey, _ := json.Marshal(prefix)
	endKey, _ := json.Marshal(prefix + "\ufff0")
	u := c.cfg.BaseURL + "/" + url.PathEscape(c.cfg.Database) +
		"/_all_docs?include_docs=true&startkey=" + url.QueryEscape(string(startKey)) +
		"&endkey=" + url.QueryEscape(string(endKey))

	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Rows []struct {
			Doc json.RawMessage `json:"doc"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}

	out := make([]json.RawMessage, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if len(row.Doc) == 0 {
			continue
		}
		env, err := DecodeEnvelope(row.Doc)
		if err != nil || env.Deleted {
			continue
		}
		out = append(out, row.Doc)
	}
	return out, nil
}

func (c *couchClient) Delete(ctx context.Context, id, rev string) error {
	_, err := c.do(ctx, http.MethodDelete, c.docURL(id)+"?rev="+url.QueryEscape(rev), nil)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return fmt.Errorf("delete %s: %w", id, pkgerrors.ErrNotFound)
		}
		if isStatus(err, http.StatusConflict) {
			return fmt.Errorf("delete %s: %w", id, pkgerrors.ErrConflict)
		}
		return err
	}
	return nil
}

func isStatus(err error, code int) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == code
}

func (c *couchClient) do(ctx context.Context, method, u string, body []byte) ([]byte, error) {
	backoff := 1 * time.Second

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, u, body)
		if err == nil {
			return raw, nil
		}
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			return nil, err
		}

		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("CouchDB request retrying",
			"method", method,
			"attempt", attempt+1,
			"max_retries", c.cfg.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		time.Sleep(sleepFor)
		backoff *= 2
	}
}

func (c *couchClient) doOnce(ctx context.Context, method, u string, body []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}
