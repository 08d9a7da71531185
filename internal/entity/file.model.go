package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type FileType string

const (
	FileTypeDocument FileType = "DOCUMENT"
	FileTypeAvatar   FileType = "AVATAR"
)

type FileMetadata struct {
	FileName   string   `json:"fileName"`
	Viewers    []string `json:"viewers"`
	FolderPath []string `json:"folderPath"`
}

func (m FileMetadata) HasViewer(userID uuid.UUID) bool {
	id := userID.String()
	for _, v := range m.Viewers {
		if v == id {
			return true
		}
	}
	return false
}

type File struct {
	ID          uuid.UUID                        `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID                        `json:"userId" gorm:"type:uuid;not null;index"`
	Bucket      string                           `json:"bucket" gorm:"type:varchar(255);not null"`
	Path        string                           `json:"path" gorm:"type:text;not null"`
	Type        FileType                         `json:"type" gorm:"type:varchar(20);not null;index"`
	ContentType string                           `json:"contentType" gorm:"type:varchar(255)"`
	Size        int64                            `json:"size"`
	Metadata    datatypes.JSONType[FileMetadata] `json:"metadata"`
	CreatedAt   time.Time                        `json:"created_at"`
	UpdatedAt   time.Time                        `json:"updated_at"`
}

func (f *File) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
