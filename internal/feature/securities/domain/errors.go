// Package domain holds errors shared by the securities feature.
package domain

import "errors"

// ErrNotFound is returned when an update targets an instrument that does not exist.
var ErrNotFound = errors.New("instrument not found")
