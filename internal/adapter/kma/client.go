package kma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/weatherlab/sfc-etl/internal/domain"
)

// DefaultBaseURL is the sfctm2 hourly surface observation endpoint.
const DefaultBaseURL = "https://apihub.kma.go.kr/api/typ01/url/kma_sfctm2.php"

// previewLen bounds the response body quoted in error messages.
const previewLen = 300

// ErrNoAuthKey is returned when a fetch is attempted without an API key.
var ErrNoAuthKey = errors.New("kma: auth key is not set")

// Client fetches raw sfctm2 text from the KMA API hub. It makes exactly one
// attempt per call and implements pipeline.RawSource.
type Client struct {
	authKey    string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a KMA client. An empty baseURL uses DefaultBaseURL.
func NewClient(authKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		authKey: authKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Fetch returns the response body for one hour. Non-200 responses are
// errors carrying a short preview of the body.
func (c *Client) Fetch(ctx context.Context, r domain.FetchRequest) (string, error) {
	if c.authKey == "" {
		return "", ErrNoAuthKey
	}

	help := "0"
	if r.Help {
		help = "1"
	}
	params := url.Values{
		"tm":      {r.TM},
		"stn":     {strconv.Itoa(r.Station)},
		"help":    {help},
		"authKey": {c.authKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error includes the full URL, auth key included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return "", fmt.Errorf("sfctm2 request tm=%s stn=%d: %w", r.TM, r.Station, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("sfctm2 response",
		"tm", r.TM,
		"stn", r.Station,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	if resp.StatusCode != http.StatusOK {
		preview := body
		if len(preview) > previewLen {
			preview = preview[:previewLen]
		}
		return "", fmt.Errorf("kma API error: status %d: %s", resp.StatusCode, preview)
	}
	return string(body), nil
}
