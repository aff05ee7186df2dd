package aggregator

import "errors"

// ErrNoValidQuotes indicates that no quotes were fetched for a token.
var ErrNoValidQuotes = errors.New("no valid quotes")
