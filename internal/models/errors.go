package models

import "errors"

var (
	// ErrInvalidConfiguration indicates bad chunking or pipeline settings
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidArgument indicates bad query or call parameters
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmbeddingUnavailable indicates the embedding collaborator failed
	// or returned vectors of the wrong count or dimension
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")

	// ErrRetrievalUnavailable indicates a query was issued before any
	// documents were indexed
	ErrRetrievalUnavailable = errors.New("retrieval unavailable: no documents indexed")

	// ErrGenerationUnavailable indicates the answer generator failed
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrTimeoutExceeded indicates a collaborator call ran past its deadline
	ErrTimeoutExceeded = errors.New("timeout exceeded")
)
