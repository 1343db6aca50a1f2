package types

import (
	"time"

	"github.com/google/uuid"
)

type Lesson struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SectionID uuid.UUID      `gorm:"type:uuid;not null;index" json:"section_id"`
	Section   *CourseSection `gorm:"constraint:OnDelete:CASCADE;foreignKey:SectionID;references:ID" json:"-"`
	Position  int            `gorm:"column:position;not null;default:0" json:"position"`
	Title     string         `gorm:"column:title;not null" json:"title"`
	Duration  string         `gorm:"column:duration" json:"duration"`
	Content   string         `gorm:"column:content" json:"content"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
}

func (Lesson) TableName() string { return "lesson" }
