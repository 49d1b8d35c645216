package repository

import "errors"

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = errors.New("not found")
