// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"fmt"

	"github.com/taibuivan/motionmaster/pkg/slug"
	"github.com/taibuivan/motionmaster/pkg/uuid"
)

// ComparisonKey builds a unique key for a blob that belongs to one video slot of a comparison.
//
// Example:
//
//	ComparisonKey("0190...", "user", "My Squat.MP4") // comparisons/0190.../user/0191...-my-squat.mp4
func ComparisonKey(comparisonID, role, fileName string) string {
	base, ext := slug.FileName(fileName, role)
	return fmt.Sprintf("comparisons/%s/%s/%s-%s%s", comparisonID, role, uuid.New(), base, ext)
}
