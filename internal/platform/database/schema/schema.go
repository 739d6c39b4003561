// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the PostgreSQL tables and columns created by
// data/migrations so stores build queries from one source of truth.
package schema

import "strings"

// List joins column names for a SELECT or INSERT column list.
func List(columns ...string) string {
	return strings.Join(columns, ", ")
}

// Qualified prefixes every column with a table alias.
func Qualified(alias string, columns ...string) string {
	qualified := make([]string, len(columns))
	for i, column := range columns {
		qualified[i] = alias + "." + column
	}
	return List(qualified...)
}
