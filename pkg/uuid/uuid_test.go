// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/motionmaster/pkg/uuid"
)

func TestNew_Sortable(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.NotEqual(t, first, second)
	assert.Equal(t, byte('7'), first[14], "version nibble")
}

func TestValid(t *testing.T) {
	assert.False(t, uuid.Valid(""))
	assert.False(t, uuid.Valid("comparison-1"))
	assert.True(t, uuid.Valid("0190f2a1-aaaa-7bbb-8ccc-0123456789ab"))
}
