package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Article struct {
	ID        uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string                      `json:"title" gorm:"type:varchar(255);not null"`
	Content   string                      `json:"content" gorm:"type:text;not null"`
	Blurb     string                      `json:"blurb" gorm:"type:text"`
	ImageURLs datatypes.JSONSlice[string] `json:"imageUrls" gorm:"column:image_urls"`
	AuthorID  uuid.UUID                   `json:"authorId" gorm:"type:uuid;not null;index"`
	Published bool                        `json:"published" gorm:"not null;default:false"`
	CreatedAt time.Time                   `json:"created_at"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
