// Package drive is a small client for the Synology Drive web API: enough
// to log in, list a folder, create a folder and move files around.
package drive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	entryPath = "/webapi/entry.cgi"
	session   = "SynologyDrive"

	apiAuth  = "SYNO.API.Auth"
	apiFiles = "SYNO.SynologyDrive.Files"

	listLimit = 1000
)

// Item types reported by ListFolder.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// Item is one entry of a folder listing.
type Item struct {
	DisplayPath string `json:"display_path"`
	Name        string `json:"name"`
	Starred     bool   `json:"starred"`
	Type        string `json:"type"`
}

// IsFile reports whether the item is a regular file.
func (i Item) IsFile() bool {
	return i.Type == TypeFile
}

// APIError is a failed call reported by the NAS.
type APIError struct {
	Method string
	Code   int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("drive %s failed with code %d", e.Method, e.Code)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code int `json:"code"`
	} `json:"error"`
}

// Client talks to one NAS. It is not safe for concurrent logins.
type Client struct {
	http   *resty.Client
	sid    string
	logger *slog.Logger
}

// New creates a client for baseURL, e.g. http://nas.local:5000.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &Client{http: client, logger: logger}
}

// Login opens a session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var data struct {
		SID string `json:"sid"`
	}
	err := c.call(ctx, apiAuth, "login", 6, map[string]string{
		"account": username,
		"passwd":  password,
		"session": session,
		"format":  "sid",
	}, &data)
	if err != nil {
		return err
	}

	c.sid = data.SID
	c.logger.Debug("logged in to drive", "user", username)
	return nil
}

// Logout closes the session opened by Login.
func (c *Client) Logout(ctx context.Context) error {
	if c.sid == "" {
		return nil
	}

	err := c.call(ctx, apiAuth, "logout", 6, map[string]string{"session": session}, nil)
	c.sid = ""
	return err
}

// ListFolder lists the items directly inside path.
func (c *Client) ListFolder(ctx context.Context, path string) ([]Item, error) {
	var data struct {
		Items []Item `json:"items"`
	}
	err := c.call(ctx, apiFiles, "list", 2, map[string]string{
		"path":           path,
		"filter":         "{}",
		"sort_by":        "name",
		"sort_direction": "asc",
		"offset":         "0",
		"limit":          strconv.Itoa(listLimit),
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.Items, nil
}

// CreateFolder creates name inside parent.
func (c *Client) CreateFolder(ctx context.Context, name, parent string) error {
	return c.call(ctx, apiFiles, "create", 2, map[string]string{
		"path":            Join(parent, name),
		"type":            "folder",
		"conflict_action": "autorename",
	}, nil)
}

// Move moves the item at path into destFolder.
func (c *Client) Move(ctx context.Context, path, destFolder string) error {
	files, err := json.Marshal([]string{path})
	if err != nil {
		return err
	}

	return c.call(ctx, apiFiles, "update", 2, map[string]string{
		"files":            string(files),
		"to_parent_folder": destFolder,
		"conflict_action":  "autorename",
	}, nil)
}

func (c *Client) call(ctx context.Context, api, method string, version int, params map[string]string, out any) error {
	form := map[string]string{
		"api":     api,
		"method":  method,
		"version": strconv.Itoa(version),
	}
	for k, v := range params {
		form[k] = v
	}

	req := c.http.R().
		SetContext(ctx).
		SetFormData(form)
	if c.sid != "" {
		req.SetQueryParam("_sid", c.sid)
	}

	res, err := req.Post(entryPath)
	if err != nil {
		return fmt.Errorf("drive %s: %w", method, err)
	}
	if res.StatusCode() != http.StatusOK {
		return fmt.Errorf("drive %s: unexpected status %d", method, res.StatusCode())
	}

	var env envelope
	if err := json.Unmarshal(res.Body(), &env); err != nil {
		return fmt.Errorf("drive %s: failed to decode response: %w", method, err)
	}
	if !env.Success {
		code := 0
		if env.Error != nil {
			code = env.Error.Code
		}
		return &APIError{Method: method, Code: code}
	}

	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("drive %s: failed to decode data: %w", method, err)
	}
	return nil
}

// Join joins drive paths with a single slash.
func Join(parent, name string) string {
	for len(parent) > 0 && parent[len(parent)-1] == '/' {
		parent = parent[:len(parent)-1]
	}
	return parent + "/" + name
}
