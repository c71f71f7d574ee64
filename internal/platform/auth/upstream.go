package auth

import (
	"fmt"
	"net/http"

	"github.com/medisched/medisched/internal/platform/apperr"
)

// upstreamStatus classifies a non-200 answer from the identity service.
// Statuses in refusals are the authority's own verdict and map to the given
// error; every other status, including 404 and 429, means the authority
// could not answer and is UpstreamUnavailable.
func upstreamStatus(status int, op string, refusals map[int]error) error {
	if err, ok := refusals[status]; ok {
		return err
	}
	return apperr.Wrap(apperr.UpstreamUnavailable, ErrUpstreamUnavailable.Message,
		fmt.Errorf("%s returned status %d", op, status))
}

var (
	verifyRefusals = map[int]error{
		http.StatusBadRequest:   ErrUnauthorized,
		http.StatusUnauthorized: ErrUnauthorized,
		http.StatusForbidden:    ErrUnauthorized,
	}
	lookupRefusals = map[int]error{
		http.StatusNotFound: ErrUserNotFound,
	}
)
