package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadError describes a rejected or failed upload.
type UploadError struct {
	Name   string
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload %s: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("upload %s: %s", e.Name, e.Reason)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Uploader stores an image somewhere reachable and returns its URL.
type Uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// CheckImage sniffs data and rejects anything that is not an image. It
// returns the detected content type.
func CheckImage(name string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", &UploadError{Name: name, Reason: "empty file"}
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", &UploadError{Name: name, Reason: "not an image (" + contentType + ")"}
	}
	return contentType, nil
}

// HTTPUploader posts images to an imgbb-compatible API: a multipart form
// with an "image" field, the API key in the "key" query parameter and the
// hosted URL returned as data.url.
type HTTPUploader struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPUploader creates an uploader for endpoint.
func NewHTTPUploader(endpoint, apiKey string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPUploader{Endpoint: endpoint, APIKey: apiKey, Client: client}
}

type uploadResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
	Success bool `json:"success"`
}

// Upload sends data and returns the hosted URL.
func (u *HTTPUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if _, err := CheckImage(name, data); err != nil {
		return "", err
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("image", filepath.Base(name))
	if err != nil {
		return "", &UploadError{Name: name, Reason: "failed to build form", Err: err}
	}
	if _, err := part.Write(data); err != nil {
		return "", &UploadError{Name: name, Reason: "failed to build form", Err: err}
	}
	if err := form.Close(); err != nil {
		return "", &UploadError{Name: name, Reason: "failed to build form", Err: err}
	}

	endpoint, err := url.Parse(u.Endpoint)
	if err != nil {
		return "", &UploadError{Name: name, Reason: "invalid endpoint", Err: err}
	}
	if u.APIKey != "" {
		q := endpoint.Query()
		q.Set("key", u.APIKey)
		endpoint.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return "", &UploadError{Name: name, Reason: "failed to create request", Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := u.Client.Do(req)
	if err != nil {
		return "", &UploadError{Name: name, Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UploadError{Name: name, Reason: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UploadError{Name: name, Reason: fmt.Sprintf("bad status code: %d", resp.StatusCode)}
	}

	var result uploadResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", &UploadError{Name: name, Reason: "invalid response", Err: err}
	}
	if result.Data.URL == "" {
		return "", &UploadError{Name: name, Reason: "response has no url"}
	}

	return result.Data.URL, nil
}

// DirUploader keeps uploads in a local directory, each under a fresh UUID,
// and serves them from BaseURL.
type DirUploader struct {
	dir     string
	baseURL string
}

// NewDirUploader creates the directory if it doesn't exist.
func NewDirUploader(dir, baseURL string) (*DirUploader, error) {
	// 0700: owner-only access
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &DirUploader{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the directory uploads are written to.
func (d *DirUploader) Dir() string {
	return d.dir
}

// Upload writes data and returns its URL.
func (d *DirUploader) Upload(_ context.Context, name string, data []byte) (string, error) {
	contentType, err := CheckImage(name, data)
	if err != nil {
		return "", err
	}

	filename := uuid.New().String() + extension(contentType, name)

	// 0600: owner-only read/write
	if err := os.WriteFile(filepath.Join(d.dir, filename), data, 0o600); err != nil {
		return "", &UploadError{Name: name, Reason: "failed to write file", Err: err}
	}

	return d.baseURL + "/" + filename, nil
}

func extension(contentType, name string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	}
	return strings.ToLower(filepath.Ext(name))
}
