package ai

import "errors"

// errRateLimited marks quota-class provider failures, the only kind worth
// retrying with a different model variant.
var errRateLimited = errors.New("rate limit exceeded")

func isRateLimit(err error) bool {
	return errors.Is(err, errRateLimited)
}
