// Package bannerbear performs HTTP calls to the Bannerbear collection API.
// A collection call fans one hero image and message out across every
// template in the configured template set; generation is asynchronous, so
// the client polls until the collection completes.
package bannerbear

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("bannerbear: api key is required")

// pollIntervals staggers completion polling; later polls back off further.
var pollIntervals = []time.Duration{
	3 * time.Second, 5 * time.Second, 5 * time.Second,
	10 * time.Second, 10 * time.Second, 15 * time.Second, 15 * time.Second,
}

// Options configures the Bannerbear client.
type Options struct {
	APIKey         string
	CollectionID   string
	BaseURL        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
	// MaxWait bounds the total polling time for one collection.
	MaxWait time.Duration
	// PollIntervals overrides the stepped waits between polls (tests).
	PollIntervals []time.Duration
}

// Client drives collection creation, polling, and asset download.
type Client struct {
	apiKey        string
	collectionID  string
	baseURL       string
	httpClient    *http.Client
	logger        *infra.Logger
	maxWait       time.Duration
	pollIntervals []time.Duration
}

// CollectionRequest carries the per-product inputs for one collection run.
type CollectionRequest struct {
	Message      string
	HeroImageURL string
	RequestID    string
}

// CollectionImage is one completed template output with its format URLs.
type CollectionImage struct {
	PNGURL string
	JPGURL string
	Width  int
	Height int
}

type modification struct {
	Name       string  `json:"name"`
	Text       string  `json:"text,omitempty"`
	ImageURL   string  `json:"image_url,omitempty"`
	Color      *string `json:"color"`
	Background *string `json:"background"`
}

type createRequest struct {
	TemplateSet   string         `json:"template_set"`
	Modifications []modification `json:"modifications"`
	WebhookURL    *string        `json:"webhook_url"`
	Metadata      *string        `json:"metadata"`
}

type collectionResponse struct {
	UID    string `json:"uid"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Images []struct {
		ImageURLPNG string `json:"image_url_png"`
		ImageURLJPG string `json:"image_url_jpg"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
	} `json:"images"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.bannerbear.com/v2"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	maxWait := opts.MaxWait
	if maxWait <= 0 {
		maxWait = 2 * time.Minute
	}
	intervals := opts.PollIntervals
	if len(intervals) == 0 {
		intervals = pollIntervals
	}
	return &Client{
		apiKey:        strings.TrimSpace(opts.APIKey),
		collectionID:  strings.TrimSpace(opts.CollectionID),
		baseURL:       baseURL,
		httpClient:    httpClient,
		logger:        logger,
		maxWait:       maxWait,
		pollIntervals: intervals,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != "" && c.collectionID != ""
}

// CreateCollection kicks off generation and waits for all template outputs.
func (c *Client) CreateCollection(ctx context.Context, req CollectionRequest) ([]CollectionImage, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(req.HeroImageURL) == "" {
		return nil, errors.New("bannerbear: hero image url is required")
	}

	payload := createRequest{
		TemplateSet: c.collectionID,
		Modifications: []modification{
			{Name: "message", Text: req.Message},
			{Name: "hero_image", ImageURL: req.HeroImageURL},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/collections", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bannerbear: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: read response: %w", err)
	}
	// 201 for synchronous, 202 for queued collections.
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		return nil, fmt.Errorf("bannerbear: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded collectionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("bannerbear: decode response: %w", err)
	}
	if decoded.UID == "" {
		return nil, errors.New("bannerbear: no collection uid in response")
	}
	c.logger.Debug().Str("uid", decoded.UID).Str("request_id", req.RequestID).Msg("bannerbear: collection created")

	return c.waitForCompletion(ctx, decoded.UID)
}

func (c *Client) waitForCompletion(ctx context.Context, uid string) ([]CollectionImage, error) {
	deadline := time.Now().Add(c.maxWait)
	for poll := 0; ; poll++ {
		resp, err := c.fetchCollection(ctx, uid)
		if err != nil {
			return nil, err
		}
		switch resp.Status {
		case "completed":
			images := collectImages(*resp)
			if len(images) == 0 {
				return nil, errors.New("bannerbear: collection completed without image data")
			}
			c.logger.Debug().Str("uid", uid).Int("images", len(images)).Msg("bannerbear: collection completed")
			return images, nil
		case "failed":
			msg := resp.Error
			if msg == "" {
				msg = "unknown error"
			}
			return nil, fmt.Errorf("bannerbear: collection failed: %s", msg)
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("bannerbear: collection %s timed out after %s", uid, c.maxWait)
		}
		interval := c.pollIntervals[len(c.pollIntervals)-1]
		if poll < len(c.pollIntervals) {
			interval = c.pollIntervals[poll]
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (c *Client) fetchCollection(ctx context.Context, uid string) (*collectionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/collections/"+uid, nil)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: build poll request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: poll request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: read poll response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bannerbear: poll status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded collectionResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("bannerbear: decode poll response: %w", err)
	}
	return &decoded, nil
}

func collectImages(resp collectionResponse) []CollectionImage {
	images := make([]CollectionImage, 0, len(resp.Images))
	for _, img := range resp.Images {
		if img.ImageURLPNG == "" && img.ImageURLJPG == "" {
			continue
		}
		if img.Width == 0 || img.Height == 0 {
			continue
		}
		images = append(images, CollectionImage{
			PNGURL: img.ImageURLPNG,
			JPGURL: img.ImageURLJPG,
			Width:  img.Width,
			Height: img.Height,
		})
	}
	return images
}

// Download fetches one rendered asset.
func (c *Client) Download(ctx context.Context, assetURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, assetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: download asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("bannerbear: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bannerbear: read asset: %w", err)
	}
	return data, nil
}
