package providers

import "errors"

var (
	// ErrUnknownToken indicates a token missing from a provider's symbol table.
	ErrUnknownToken = errors.New("unknown token")
	// ErrEmptyCatalog indicates a registry with no providers.
	ErrEmptyCatalog = errors.New("provider catalog is empty")
	// ErrDuplicateProvider indicates two providers sharing a name.
	ErrDuplicateProvider = errors.New("duplicate provider name")
	// ErrIncompleteSymbols indicates a symbol table not covering every token.
	ErrIncompleteSymbols = errors.New("incomplete symbol table")
)
