package utils

import (
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
)

func IsAuthenticated(user *entity.UserMetadata) bool {
	return user != nil && user.ID != uuid.Nil
}

func IsAdmin(user *entity.UserMetadata) bool {
	return IsAuthenticated(user) && user.IsAdmin
}

// IsHROrAdmin gates the people-management operations. Position titles such as
// "Manager" grant nothing.
func IsHROrAdmin(user *entity.UserMetadata) bool {
	return IsAuthenticated(user) && (user.IsAdmin || user.IsHR)
}

// CanViewEmployee reports whether user may read another employee's time-off or evaluation records.
func CanViewEmployee(user *entity.UserMetadata, employeeID uuid.UUID) bool {
	if !IsAuthenticated(user) {
		return false
	}
	return user.ID == employeeID || IsHROrAdmin(user)
}

func CanReadFile(user *entity.UserMetadata, file *entity.File) bool {
	if !IsAuthenticated(user) || file == nil {
		return false
	}
	if file.UserID == user.ID || user.IsAdmin {
		return true
	}
	return file.Metadata.Data().HasViewer(user.ID)
}
