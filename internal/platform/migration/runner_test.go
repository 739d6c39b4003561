// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertToPgx5DSN(t *testing.T) {
	tests := map[string]string{
		"postgres://u:p@db:5432/motion":   "pgx5://u:p@db:5432/motion",
		"postgresql://u:p@db:5432/motion": "pgx5://u:p@db:5432/motion",
		"pgx5://u:p@db:5432/motion":       "pgx5://u:p@db:5432/motion",
		"host=db user=u":                  "host=db user=u",
	}

	for input, want := range tests {
		assert.Equal(t, want, convertToPgx5DSN(input), input)
	}
}

func TestMigrateLogger_Verbose(t *testing.T) {
	quiet := newMigrateLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelInfo})))
	assert.False(t, quiet.Verbose())

	loud := newMigrateLogger(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
	assert.True(t, loud.Verbose())
}
