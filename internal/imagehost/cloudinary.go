package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultCloudinaryBaseURL is the upload API root.
const DefaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"

// Account is one unsigned-upload account: a cloud name and the upload
// preset that authorizes anonymous uploads to it.
type Account struct {
	CloudName    string
	UploadPreset string
}

// HostError is an upload rejected by the image host.
type HostError struct {
	Status  int
	Message string
}

func (e *HostError) Error() string {
	return fmt.Sprintf("image host returned %d: %s", e.Status, e.Message)
}

// Cloudinary uploads through the unsigned multipart upload endpoint.
// Uploads rotate through the configured accounts.
type Cloudinary struct {
	client   *resty.Client
	baseURL  string
	accounts []Account
	next     atomic.Uint64
}

// NewCloudinary creates an uploader for the given accounts. baseURL may
// be empty to use DefaultCloudinaryBaseURL.
func NewCloudinary(baseURL string, accounts []Account) (*Cloudinary, error) {
	if len(accounts) == 0 {
		return nil, errors.New("imagehost: no accounts configured")
	}
	for i, a := range accounts {
		if a.CloudName == "" || a.UploadPreset == "" {
			return nil, fmt.Errorf("imagehost: account %d is incomplete", i)
		}
	}
	if baseURL == "" {
		baseURL = DefaultCloudinaryBaseURL
	}

	client := resty.New()
	client.SetTimeout(60 * time.Second)

	return &Cloudinary{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		accounts: accounts,
	}, nil
}

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type uploadError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, u Upload) (string, error) {
	acct := c.pick()

	var result uploadResult
	var failure uploadError
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("file", u.Filename, bytes.NewReader(u.Data)).
		SetFormData(map[string]string{"upload_preset": acct.UploadPreset}).
		SetResult(&result).
		SetError(&failure).
		Post(c.baseURL + "/" + acct.CloudName + "/image/upload")
	if err != nil {
		return "", fmt.Errorf("image upload to %s: %w", acct.CloudName, err)
	}

	if resp.IsError() {
		msg := failure.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode())
		}
		return "", &HostError{Status: resp.StatusCode(), Message: msg}
	}
	if result.SecureURL == "" {
		return "", &HostError{Status: resp.StatusCode(), Message: "response has no secure_url"}
	}

	slog.Info("image uploaded", "cloud", acct.CloudName, "public_id", result.PublicID)
	return result.SecureURL, nil
}

func (c *Cloudinary) pick() Account {
	n := c.next.Add(1) - 1
	return c.accounts[n%uint64(len(c.accounts))]
}
