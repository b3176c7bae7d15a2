// Package media talks to the external image-hosting API: one shared
// account-level credential, a liveness probe, a token-exchange refresh and a
// multipart image upload.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultRequestTimeout = 30 * time.Second

// Config carries the long-lived client credentials. All fields are required;
// a missing one is a configuration error surfaced at startup.
type Config struct {
	BaseURL      string // e.g. https://api.imgur.com/3
	AuthURL      string // e.g. https://api.imgur.com/oauth2/token
	ClientID     string
	ClientSecret string
	RefreshToken string
}

func (c Config) validate() error {
	if strings.TrimSpace(c.BaseURL) == "" || strings.TrimSpace(c.AuthURL) == "" {
		return errors.New("media: base and auth URLs are required")
	}
	if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
		return errors.New("media: client credentials are not configured")
	}
	return nil
}

// Image is the remote record returned by an upload.
type Image struct {
	Link       string `json:"link"`
	ID         string `json:"id"`
	DeleteHash string `json:"deletehash"`
	Type       string `json:"type"`
}

// Client is a thin typed wrapper over the image host's HTTP API. It holds no
// credential state; the access token is passed per call by the manager.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient validates the config and builds a Client.
func NewClient(cfg Config, httpClient *http.Client) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{cfg: cfg, http: httpClient}, nil
}

// RefreshAccessToken exchanges the refresh secret plus client credentials for
// a new access token. Errors are not retried here.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("refresh_token", c.cfg.RefreshToken)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("grant_type", "refresh_token")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token exchange: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("token exchange: decode response: %w", err)
	}
	if strings.TrimSpace(body.AccessToken) == "" {
		return "", errors.New("token exchange: response carries no access token")
	}
	return body.AccessToken, nil
}

// CheckToken probes the account endpoint with the given access token. Any
// failure, transport or HTTP, means the token must be treated as invalid;
// the true TTL is not exposed by the remote API.
func (c *Client) CheckToken(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return errors.New("probe: empty access token")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/account/me", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// UploadImage posts the image bytes as multipart form data and returns the
// remote record.
func (c *Client) UploadImage(ctx context.Context, accessToken, filename string, data io.Reader) (Image, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, data); err != nil {
			pw.CloseWithError(err)
			return
		}
		if err := mw.WriteField("client_id", c.cfg.ClientID); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/image", pr)
	if err != nil {
		return Image{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Image{}, fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Data *Image `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Image{}, fmt.Errorf("upload: decode response: %w", err)
	}
	if body.Data == nil || body.Data.Link == "" {
		return Image{}, errors.New("upload: response carries no image data")
	}
	return *body.Data, nil
}
