// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// MediaComparisonTable represents the 'media.comparison' table
type MediaComparisonTable struct {
	Table     string
	ID        string
	OwnerID   string
	Title     string
	CreatedAt string
	UpdatedAt string
}

// MediaComparison is the schema definition for media.comparison
var MediaComparison = MediaComparisonTable{
	Table:     "media.comparison",
	ID:        "id",
	OwnerID:   "ownerid",
	Title:     "title",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
}

// Columns returns all standard column names
func (t MediaComparisonTable) Columns() []string {
	return []string{t.ID, t.OwnerID, t.Title, t.CreatedAt, t.UpdatedAt}
}
