package models

import (
	"time"

	"gorm.io/datatypes"
)

// SectionType names the building blocks a page is made of.
type SectionType string

const (
	SectionBanner       SectionType = "BANNER"
	SectionAchievements SectionType = "ACHIEVEMENTS"
	SectionValues       SectionType = "VALUES"
	SectionAddress      SectionType = "ADDRESS"
	SectionInfo         SectionType = "INFO"
	SectionGoals        SectionType = "GOALS"
	SectionHistory      SectionType = "HISTORY"
)

// Page is a CMS page addressed by slug.
type Page struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug      string    `json:"slug" gorm:"type:varchar(100);not null;uniqueIndex" validate:"required,min=1,max=100"`
	Title     string    `json:"title" gorm:"type:varchar(255)" validate:"max=255"`
	Sections  []Section `json:"sections" gorm:"foreignKey:PageID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section is one ordered block of a page; Data is free-form JSON edited by the admin UI.
type Section struct {
	ID        string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	PageID    string         `json:"page_id" gorm:"type:varchar(36);not null;index"`
	Type      SectionType    `json:"type" gorm:"type:varchar(20);not null;index"`
	Order     int            `json:"order" gorm:"column:sort_order;not null"`
	Data      datatypes.JSON `json:"data"`
	Visible   bool           `json:"visible" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}
