// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CampusLink Contributors

package posts

import "errors"

// ErrNotFound is returned when a post does not exist or is unpublished.
var ErrNotFound = errors.New("post not found")

// ValidationError reports a rejected draft field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
