package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// StatusError is returned when the REST endpoint answers with a non-2xx
// status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bad status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("bad status code: %d: %s", e.StatusCode, e.Body)
}

// RESTTree talks to a Firebase Realtime Database style REST endpoint: every
// node is addressable as <base>/<path>.json, PATCH merges children and DELETE
// removes a node.
type RESTTree struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewRESTTree creates a client for the database rooted at baseURL. secret is
// sent as the auth query parameter when non-empty.
func NewRESTTree(baseURL, secret string, client *http.Client) *RESTTree {
	if client == nil {
		client = http.DefaultClient
	}
	return &RESTTree{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  client,
	}
}

// ReadAll fetches the location/category node and returns its children.
func (r *RESTTree) ReadAll(ctx context.Context, location, category string) ([]Entry, error) {
	var children map[string]Record
	if err := r.do(ctx, http.MethodGet, r.nodeURL(location, category), nil, &children); err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", location, category, err)
	}

	entries := make([]Entry, 0, len(children))
	for id, rec := range children {
		if rec == nil {
			continue
		}
		entries = append(entries, Entry{ID: id, Record: rec})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries, nil
}

// Read fetches a single record. The database answers null for missing
// nodes.
func (r *RESTTree) Read(ctx context.Context, path Path) (Record, bool, error) {
	if err := path.Validate(); err != nil {
		return nil, false, err
	}

	var rec Record
	if err := r.do(ctx, http.MethodGet, r.pathURL(path), nil, &rec); err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rec, rec != nil, nil
}

// Update sends a PATCH, which merges the given children into the node.
func (r *RESTTree) Update(ctx context.Context, path Path, fields Record) error {
	if err := path.Validate(); err != nil {
		return err
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if err := r.do(ctx, http.MethodPatch, r.pathURL(path), body, nil); err != nil {
		return fmt.Errorf("failed to update %s: %w", path, err)
	}
	return nil
}

// Remove deletes the node at path.
func (r *RESTTree) Remove(ctx context.Context, path Path) error {
	if err := path.Validate(); err != nil {
		return err
	}

	if err := r.do(ctx, http.MethodDelete, r.pathURL(path), nil, nil); err != nil {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

func (r *RESTTree) pathURL(path Path) string {
	return r.nodeURL(path.Location, path.Category, path.ID)
}

func (r *RESTTree) nodeURL(segments ...string) string {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}

	u := r.baseURL + "/" + strings.Join(escaped, "/") + ".json"
	if r.secret != "" {
		u += "?auth=" + url.QueryEscape(r.secret)
	}
	return u
}

func (r *RESTTree) do(ctx context.Context, method, u string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
