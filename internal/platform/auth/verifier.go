package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medisched/medisched/internal/platform/apperr"
)

// DefaultVerifyTimeout bounds a single round-trip to the identity service.
const DefaultVerifyTimeout = 5 * time.Second

var (
	ErrUnauthorized        = apperr.New(apperr.Unauthorized, "invalid token")
	ErrUpstreamUnavailable = apperr.New(apperr.UpstreamUnavailable, "auth service unavailable")
)

// Verifier turns a bearer token into a principal.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}

// VerifyResponse is the body of a successful GET /verify.
type VerifyResponse struct {
	Valid bool    `json:"valid"`
	User  *Claims `json:"user"`
}

// RemoteVerifier forwards tokens to the identity service's /verify endpoint.
// Every call is one round-trip: results are not cached and failures are not
// retried.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client
}

// NewRemoteVerifier creates a verifier for the identity service at baseURL.
// A non-positive timeout falls back to DefaultVerifyTimeout.
func NewRemoteVerifier(baseURL string, timeout time.Duration) *RemoteVerifier {
	if timeout <= 0 {
		timeout = DefaultVerifyTimeout
	}
	return &RemoteVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Verify maps the authority's answer onto the error taxonomy: a 400, 401 or
// 403 is Unauthorized, anything else that prevents an answer (a throttled or
// misrouted request included) is UpstreamUnavailable.
func (v *RemoteVerifier) Verify(ctx context.Context, token string) (*Principal, error) {
	logger := zerolog.Ctx(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/verify", nil)
	if err != nil {
		return nil, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		logger.Warn().Err(err).Str("upstream", v.baseURL).Msg("token verification failed")
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, ErrUpstreamUnavailable.Message, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		err := upstreamStatus(resp.StatusCode, "verify", verifyRefusals)
		if apperr.Is(err, apperr.UpstreamUnavailable) {
			logger.Warn().Int("status", resp.StatusCode).Str("upstream", v.baseURL).Msg("token verification failed")
		}
		return nil, err
	}

	var body VerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, apperr.Wrap(apperr.UpstreamUnavailable, ErrUpstreamUnavailable.Message,
			fmt.Errorf("decode verify response: %w", err))
	}
	if !body.Valid || body.User == nil || !body.User.Role.Valid() {
		return nil, ErrUnauthorized
	}
	return body.User.Principal(), nil
}

// LocalVerifier verifies tokens in-process with the signer. Only the identity
// service holds a signer, so only it can use this.
type LocalVerifier struct {
	signer *Signer
}

func NewLocalVerifier(signer *Signer) *LocalVerifier {
	return &LocalVerifier{signer: signer}
}

func (v *LocalVerifier) Verify(_ context.Context, token string) (*Principal, error) {
	claims, err := v.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	return claims.Principal(), nil
}
