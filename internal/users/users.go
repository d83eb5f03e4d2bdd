// Package users administers the server's _users database over HTTP: account
// provisioning for team members, role sync, password resets. Requires admin
// credentials; member clients never touch this surface.
package users

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/inkwave/teamsync-backend/internal/pkg/errors"
	"github.com/inkwave/teamsync-backend/internal/platform/logger"
	"github.com/inkwave/teamsync-backend/internal/types"
)

const userDocPrefix = "org.couchdb.user:"

// UserDoc mirrors a CouchDB _users document.
type UserDoc struct {
	ID       string   `json:"_id"`
	Rev      string   `json:"_rev,omitempty"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Roles    []string `json:"roles"`
	Password string   `json:"password,omitempty"`
}

// UserDocID returns the _users document id for a username.
func UserDocID(username string) string { return userDocPrefix + username }

// RolesForTeamRole maps a team role onto the server roles the write policy
// checks.
func RolesForTeamRole(role types.Role) []string {
	switch role {
	case types.RoleAdmin:
		return []string{"team_admin"}
	case types.RoleEditor:
		return []string{"team_editor"}
	case types.RoleViewer:
		return []string{"team_viewer"}
	}
	return nil
}

type Config struct {
	BaseURL       string
	AdminUser     string
	AdminPassword string
	Timeout       time.Duration
}

func ConfigFromEnv() Config {
	return Config{
		BaseURL:       strings.TrimSpace(os.Getenv("COUCHDB_URI")),
		AdminUser:     strings.TrimSpace(os.Getenv("COUCHDB_ADMIN_USER")),
		AdminPassword: strings.TrimSpace(os.Getenv("COUCHDB_ADMIN_PASSWORD")),
		Timeout:       30 * time.Second,
	}
}

type Client struct {
	log        *logger.Logger
	cfg        Config
	httpClient *http.Client
}

func NewClient(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("missing COUCHDB_URI")
	}
	if cfg.AdminUser == "" {
		return nil, fmt.Errorf("missing COUCHDB_ADMIN_USER")
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		log:        log.With("client", "UserDirectory"),
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *Client) userURL(username string) string {
	return c.cfg.BaseURL + "/_users/" + url.PathEscape(UserDocID(username))
}

// CreateUser provisions a server account with the roles implied by the team
// role.
func (c *Client) CreateUser(ctx context.Context, username, password string, role types.Role) error {
	if !role.Valid() {
		return fmt.Errorf("create user %s: %w: bad role %q", username, pkgerrors.ErrInvalidArgument, role)
	}
	doc := UserDoc{
		ID:       UserDocID(username),
		Name:     username,
		Type:     "user",
		Roles:    RolesForTeamRole(role),
		Password: password,
	}
	if _, err := c.do(ctx, http.MethodPut, c.userURL(username), doc); err != nil {
		return fmt.Errorf("create user %s: %w", username, err)
	}
	c.log.Info("User account created", "username", username, "role", string(role))
	return nil
}

// UpdateUserRole rewrites the account's roles to match a new team role.
func (c *Client) UpdateUserRole(ctx context.Context, username string, role types.Role) error {
	if !role.Valid() {
		return fmt.Errorf("update user %s: %w: bad role %q", username, pkgerrors.ErrInvalidArgument, role)
	}
	doc, err := c.fetch(ctx, username)
	if err != nil {
		return fmt.Errorf("update user %s: %w", username, err)
	}
	doc.Roles = RolesForTeamRole(role)
	doc.Password = ""
	if _, err := c.do(ctx, http.MethodPut, c.userURL(username), doc); err != nil {
		return fmt.Errorf("update user %s: %w", username, err)
	}
	return nil
}

// ResetPassword sets a new password on an existing account.
func (c *Client) ResetPassword(ctx context.Context, username, password string) error {
	doc, err := c.fetch(ctx, username)
	if err != nil {
		return fmt.Errorf("reset password %s: %w", username, err)
	}
	doc.Password = password
	if _, err := c.do(ctx, http.MethodPut, c.userURL(username), doc); err != nil {
		return fmt.Errorf("reset password %s: %w", username, err)
	}
	return nil
}

// DeleteUser removes the account. Fetches the current revision first.
func (c *Client) DeleteUser(ctx context.Context, username string) error {
	doc, err := c.fetch(ctx, username)
	if err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	u := c.userURL(username) + "?rev=" + url.QueryEscape(doc.Rev)
	if _, err := c.do(ctx, http.MethodDelete, u, nil); err != nil {
		return fmt.Errorf("delete user %s: %w", username, err)
	}
	c.log.Info("User account deleted", "username", username)
	return nil
}

// ListUsers returns every team account in the directory.
func (c *Client) ListUsers(ctx context.Context) ([]UserDoc, error) {
	startKey, _ := json.Marshal(userDocPrefix)
	endKey, _ := json.Marshal(userDocPrefix + "\ufff0")
	u := c.cfg.BaseURL + "/_users/_all_docs?include_docs=true&startkey=" +
		url.QueryEscape(string(startKey)) + "&endkey=" + url.QueryEscape(string(endKey))

	raw, err := c.do(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	var resp struct {
		Rows []struct {
			Doc UserDoc `json:"doc"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]UserDoc, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		if row.Doc.Name == "" {
			continue
		}
		row.Doc.Password = ""
		out = append(out, row.Doc)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context, username string) (*UserDoc, error) {
	raw, err := c.do(ctx, http.MethodGet, c.userURL(username), nil)
	if err != nil {
		return nil, err
	}
	var doc UserDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) do(ctx context.Context, method, u string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.SetBasicAuth(c.cfg.AdminUser, c.cfg.AdminPassword)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, pkgerrors.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return nil, pkgerrors.ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("users http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
