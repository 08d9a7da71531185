package utils

import (
	"github.com/kerem-kaynak/hrportal/internal/entity"
)

func EmployeeToDocument(user *entity.UserMetadata) map[string]interface{} {
	return map[string]interface{}{
		"id":         user.ID.String(),
		"first_name": user.EmployeeFirstName,
		"last_name":  user.EmployeeLastName,
		"full_name":  user.DisplayName(),
		"position":   user.Position,
		"role":       string(user.Role()),
	}
}
