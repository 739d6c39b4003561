// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// MediaAnalysisTable represents the 'media.analysis' table
type MediaAnalysisTable struct {
	Table        string
	ComparisonID string
	Alignment    string
	Timing       string
	Overall      string
	Feedback     string
	Tips         string
	CompletedAt  string
}

// MediaAnalysis is the schema definition for media.analysis
var MediaAnalysis = MediaAnalysisTable{
	Table:        "media.analysis",
	ComparisonID: "comparisonid",
	Alignment:    "alignment",
	Timing:       "timing",
	Overall:      "overall",
	Feedback:     "feedback",
	Tips:         "tips",
	CompletedAt:  "completedat",
}

// Columns returns all standard column names
func (t MediaAnalysisTable) Columns() []string {
	return []string{t.ComparisonID, t.Alignment, t.Timing, t.Overall, t.Feedback, t.Tips, t.CompletedAt}
}
