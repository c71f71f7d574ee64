package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/platform/apperr"
)

// ErrUserNotFound is returned when the identity service has no such username.
var ErrUserNotFound = apperr.New(apperr.NotFound, "user not found")

// UserInfo is the public view of a user returned by the identity service.
type UserInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
}

// LookupClient resolves usernames to subject ids through the identity
// service. Other services never read the credential store directly.
type LookupClient struct {
	baseURL string
	client  *http.Client
}

func NewLookupClient(baseURL string, timeout time.Duration) *LookupClient {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &LookupClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// LookupUsername returns ErrUserNotFound for an unknown username and an
// UpstreamUnavailable error when the identity service cannot answer.
func (l *LookupClient) LookupUsername(ctx context.Context, username string) (*UserInfo, error) {
	endpoint := l.baseURL + "/users/by-username/" + url.PathEscape(username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("upstream", l.baseURL).Msg("user lookup failed")
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, ErrUpstreamUnavailable.Message, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, upstreamStatus(resp.StatusCode, "lookup", lookupRefusals)
	}

	var info UserInfo
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&info); err != nil {
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, ErrUpstreamUnavailable.Message,
			fmt.Errorf("decode lookup response: %w", err))
	}
	return &info, nil
}
