package oracle

import "errors"

var (
	// ErrAllTokensFailed indicates a task where no token succeeded.
	ErrAllTokensFailed = errors.New("all tokens failed")
	// ErrNoPricesAvailable indicates no cached prices exist to work from.
	ErrNoPricesAvailable = errors.New("no prices available")
)
