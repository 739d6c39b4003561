// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package uuid mints the identifiers used for rows and storage keys.
//
// Version 7 values sort by creation time, so new comparisons land at the end
// of the primary-key index and storage keys list in upload order.
package uuid

import "github.com/google/uuid"

// New returns a UUIDv7 string. It panics only if the system entropy source
// fails.
func New() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Valid reports whether s parses as a UUID of any version.
func Valid(s string) bool {
	return uuid.Validate(s) == nil
}
