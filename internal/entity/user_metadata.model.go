package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleHR       Role = "hr"
	RoleAdmin    Role = "admin"
)

type UserMetadata struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	IsAdmin           bool       `json:"is_admin" gorm:"not null;default:false"`
	IsHR              bool       `json:"is_hr" gorm:"column:is_hr;not null;default:false"`
	Position          string     `json:"position" gorm:"type:varchar(100)"`
	EmployeeFirstName string     `json:"employeeFirstName" gorm:"type:varchar(100)"`
	EmployeeLastName  string     `json:"employeeLastName" gorm:"type:varchar(100)"`
	AvatarFileID      *uuid.UUID `json:"avatarFileId,omitempty" gorm:"type:uuid"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (UserMetadata) TableName() string {
	return "user_metadata"
}

func (u *UserMetadata) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Role collapses the two stored flags into one value. Admin wins over HR.
func (u *UserMetadata) Role() Role {
	switch {
	case u.IsAdmin:
		return RoleAdmin
	case u.IsHR:
		return RoleHR
	default:
		return RoleEmployee
	}
}

func (u *UserMetadata) DisplayName() string {
	name := u.EmployeeFirstName
	if u.EmployeeLastName != "" {
		if name != "" {
			name += " "
		}
		name += u.EmployeeLastName
	}
	return name
}
