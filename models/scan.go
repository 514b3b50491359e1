package models

import "time"

// Scan is one processed receipt image: the stored upload plus the chosen
// preprocessing mode, its scores and the extracted fields. Totals holds the
// ordered amount candidates newline-joined; Date keeps the string exactly as
// it appeared on the receipt (punctuation style is not normalized).
type Scan struct {
	ID             uint `gorm:"primaryKey"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	UserID         uint   `gorm:"index;not null;uniqueIndex:idx_user_scan_file"`
	FileName       string `gorm:"size:255;not null;uniqueIndex:idx_user_scan_file"`
	StorePath      string `gorm:"column:store_path;size:512"`
	ContentType    string `gorm:"size:128"`
	Mode           string `gorm:"size:32;not null"`
	MeanConfidence float64
	BlendedScore   float64
	Merchant       string `gorm:"size:255"`
	Date           string `gorm:"size:32"`
	Totals         string `gorm:"type:text"`
	RawText        string `gorm:"type:text"`
	CleanText      string `gorm:"type:text"`
	// A scan whose OCR pass failed is kept for review instead of deleted.
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
