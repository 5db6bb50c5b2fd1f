package models

import "time"

// AnalyticType is what a visitor interacted with.
type AnalyticType string

const (
	AnalyticPage    AnalyticType = "PAGE"
	AnalyticProduct AnalyticType = "PRODUCT"
	AnalyticButton  AnalyticType = "BUTTON"
)

// UnknownLocation is stored when an event's IP could not be geolocated.
const UnknownLocation = "Unknown"

// Analytic is a single visitor event.
type Analytic struct {
	ID        string       `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Type      AnalyticType `json:"type" gorm:"type:varchar(10);not null;index"`
	TargetID  string       `json:"target_id" gorm:"type:varchar(100);index"`
	URL       string       `json:"url" gorm:"type:varchar(500);not null"`
	IPAddress string       `json:"ip_address" gorm:"type:varchar(64);not null"`
	Location  string       `json:"location" gorm:"type:varchar(100);not null"`
	CreatedAt time.Time    `json:"created_at" gorm:"index"`
}
