package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client translates one segment of text.
type Client interface {
	Translate(ctx context.Context, q, from, to string) (string, error)
}

type response struct {
	ErrorCode   string   `json:"errorCode"`
	Message     string   `json:"msg"`
	Translation []string `json:"translation"`
}

type youdao struct {
	endpoint  string
	appKey    string
	appSecret string
	http      *http.Client
	now       func() time.Time
	salt      func() string
}

// NewClient creates a Youdao v3 client. The request context is the only
// deadline applied to calls.
func NewClient(cfg *Config, hc *http.Client) Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &youdao{
		endpoint:  cfg.Endpoint,
		appKey:    cfg.AppKey,
		appSecret: cfg.AppSecret,
		http:      hc,
		now:       time.Now,
		salt:      func() string { return uuid.NewString() },
	}
}

func (y *youdao) Translate(ctx context.Context, q, from, to string) (string, error) {
	salt := y.salt()
	curtime := strconv.FormatInt(y.now().Unix(), 10)

	form := url.Values{
		"q":        {q},
		"from":     {from},
		"to":       {to},
		"appKey":   {y.appKey},
		"salt":     {salt},
		"sign":     {Sign(y.appKey, q, salt, curtime, y.appSecret)},
		"signType": {"v3"},
		"curtime":  {curtime},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := y.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}

	if body.ErrorCode != "" && body.ErrorCode != "0" {
		return "", fmt.Errorf("%w: errorCode=%s %s", ErrUpstream, body.ErrorCode, body.Message)
	}
	if len(body.Translation) == 0 {
		return "", fmt.Errorf("%w: empty translation", ErrUpstream)
	}

	return body.Translation[0], nil
}
