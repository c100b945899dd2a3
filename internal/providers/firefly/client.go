// Package firefly performs HTTP calls to the Adobe Firefly text-to-image API.
// Authentication uses the IMS client-credentials flow; generated images come
// back as presigned URLs that the client downloads eagerly.
package firefly

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/peteworth/creative-automation-pipeline/internal/infra"
)

// ErrMissingCredentials indicates that the client was configured without an
// Adobe client ID/secret pair.
var ErrMissingCredentials = errors.New("firefly: client credentials are required")

const imsScope = "openid,AdobeID,firefly_enterprise,ff_apis"

// Options configures the Firefly client.
type Options struct {
	ClientID       string
	ClientSecret   string
	BaseURL        string
	IMSBaseURL     string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client calls the Firefly generation endpoint.
type Client struct {
	clientID     string
	clientSecret string
	baseURL      string
	imsBaseURL   string
	httpClient   *http.Client
	logger       *infra.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// ImageRequest captures the required inputs for one generation call.
type ImageRequest struct {
	Prompt    string
	Locale    string
	RequestID string
}

// ImageAsset is the normalized result from the Firefly API.
type ImageAsset struct {
	URL    string
	Data   []byte
	Format string
	Width  int
	Height int
}

type generationRequest struct {
	Prompt          string         `json:"prompt"`
	ContentClass    string         `json:"contentClass"`
	Size            generationSize `json:"size"`
	VisualIntensity int            `json:"visualIntensity"`
	LocaleCode      string         `json:"promptBiasingLocaleCode,omitempty"`
}

type generationSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type generationResponse struct {
	Outputs []struct {
		Image struct {
			PresignedURL string `json:"presignedUrl"`
		} `json:"image"`
	} `json:"outputs"`
	Size generationSize `json:"size"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type errorResponse struct {
	ErrorCode string `json:"error_code"`
	Message   string `json:"message"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://firefly-api.adobe.io"
	}
	imsBaseURL := strings.TrimRight(opts.IMSBaseURL, "/")
	if imsBaseURL == "" {
		imsBaseURL = "https://ims-na1.adobelogin.com"
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		clientID:     strings.TrimSpace(opts.ClientID),
		clientSecret: strings.TrimSpace(opts.ClientSecret),
		baseURL:      baseURL,
		imsBaseURL:   imsBaseURL,
		httpClient:   httpClient,
		logger:       logger,
	}, nil
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// token returns a cached IMS access token, refreshing it when expired.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("grant_type", "client_credentials")
	form.Set("scope", imsScope)

	endpoint := c.imsBaseURL + "/ims/token/v3"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("firefly: build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("firefly: token request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("firefly: read token response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("firefly: token status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded tokenResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("firefly: decode token response: %w", err)
	}
	if decoded.AccessToken == "" {
		return "", errors.New("firefly: empty access token")
	}
	ttl := time.Duration(decoded.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.accessToken = decoded.AccessToken
	// Refresh one minute early to avoid using a token at its expiry edge.
	c.tokenExpiry = time.Now().Add(ttl - time.Minute)
	c.logger.Debug().Msg("firefly: obtained ims access token")
	return c.accessToken, nil
}

// GenerateImage invokes the Firefly API once and returns a single image asset.
func (c *Client) GenerateImage(ctx context.Context, req ImageRequest) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingCredentials
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("firefly: prompt is required")
	}

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	locale := strings.TrimSpace(req.Locale)
	if locale == "" {
		locale = "en-US"
	}
	payload := generationRequest{
		Prompt:          prompt,
		ContentClass:    "photo",
		Size:            generationSize{Width: 2048, Height: 2048},
		VisualIntensity: 6,
		LocaleCode:      locale,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("firefly: encode request: %w", err)
	}

	endpoint := c.baseURL + "/v2/images/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("firefly: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-Api-Key", c.clientID)
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", req.RequestID)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("firefly: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("firefly: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return nil, fmt.Errorf("firefly: %s (%s)", detail.Message, detail.ErrorCode)
		}
		return nil, fmt.Errorf("firefly: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("firefly: decode response: %w", err)
	}
	presigned := firstPresignedURL(decoded)
	if presigned == "" {
		return nil, errors.New("firefly: no image in response")
	}

	data, format, err := c.download(ctx, presigned)
	if err != nil {
		return nil, err
	}
	width, height := decoded.Size.Width, decoded.Size.Height
	if width == 0 || height == 0 {
		width, height = payload.Size.Width, payload.Size.Height
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("locale", locale).
		Msg("firefly: generated image asset")
	return &ImageAsset{URL: presigned, Data: data, Format: format, Width: width, Height: height}, nil
}

func (c *Client) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(strings.TrimSpace(imageURL))
	if err != nil || parsed.Scheme == "" {
		return nil, "", fmt.Errorf("firefly: invalid image url: %s", imageURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("firefly: build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("firefly: download image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("firefly: download status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("firefly: read image: %w", err)
	}
	format := resp.Header.Get("Content-Type")
	if format == "" {
		format = "image/jpeg"
	}
	return data, format, nil
}

func firstPresignedURL(resp generationResponse) string {
	for _, output := range resp.Outputs {
		if u := strings.TrimSpace(output.Image.PresignedURL); u != "" {
			return u
		}
	}
	return ""
}
