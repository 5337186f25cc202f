package collector

import "errors"

var (
	// ErrNoData means the provider answered but had nothing usable for the instrument.
	ErrNoData = errors.New("no data")
	// ErrRateLimited means the local per-provider limiter refused the call.
	ErrRateLimited = errors.New("rate limited")
	// ErrMissingKey means the tier needs an API key that is not configured.
	ErrMissingKey = errors.New("api key not configured")
	// ErrSoftLimit means a 200 response carried a provider limit notice.
	ErrSoftLimit = errors.New("provider soft limit reached")
	// ErrRateMissing means a completed rate lookup lacked the quote currency.
	ErrRateMissing = errors.New("quote currency missing from rate response")
	// ErrBadPayload means the response could not be decoded into the expected shape.
	ErrBadPayload = errors.New("unusable payload")
	// ErrUnsupported means the provider does not serve this instrument class.
	ErrUnsupported = errors.New("instrument class not supported")
	// ErrAllTiersFailed wraps the joined per-tier errors of a chain.
	ErrAllTiersFailed = errors.New("all provider tiers failed")
)
