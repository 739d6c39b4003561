// Copyright (c) 2026 MotionMaster. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// MediaVideoTable represents the 'media.video' table
//
// The selection is stored as four nullable columns in native pixels; either
// all four are set or none is.
type MediaVideoTable struct {
	Table           string
	ID              string
	ComparisonID    string
	Role            string
	FileName        string
	StorageKey      string
	MimeType        string
	SizeBytes       string
	SHA256          string
	Width           string
	Height          string
	FrameKey        string
	SelectionX      string
	SelectionY      string
	SelectionWidth  string
	SelectionHeight string
	CreatedAt       string
	UpdatedAt       string
}

// MediaVideo is the schema definition for media.video
var MediaVideo = MediaVideoTable{
	Table:           "media.video",
	ID:              "id",
	ComparisonID:    "comparisonid",
	Role:            "role",
	FileName:        "filename",
	StorageKey:      "storagekey",
	MimeType:        "mimetype",
	SizeBytes:       "sizebytes",
	SHA256:          "sha256",
	Width:           "width",
	Height:          "height",
	FrameKey:        "framekey",
	SelectionX:      "selectionx",
	SelectionY:      "selectiony",
	SelectionWidth:  "selectionwidth",
	SelectionHeight: "selectionheight",
	CreatedAt:       "createdat",
	UpdatedAt:       "updatedat",
}

// Columns returns all standard column names
func (t MediaVideoTable) Columns() []string {
	return []string{
		t.ID, t.ComparisonID, t.Role, t.FileName, t.StorageKey, t.MimeType, t.SizeBytes, t.SHA256,
		t.Width, t.Height, t.FrameKey, t.SelectionX, t.SelectionY, t.SelectionWidth, t.SelectionHeight,
		t.CreatedAt, t.UpdatedAt,
	}
}
