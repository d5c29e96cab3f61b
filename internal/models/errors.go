package models

import "errors"

// ErrMissingDocuments is returned when a request has no document URL.
var ErrMissingDocuments = errors.New("documents is required")
