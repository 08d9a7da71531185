package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type EmployeeEvaluation struct {
	ID                  uuid.UUID                          `json:"id" gorm:"type:uuid;primaryKey"`
	OverallRating       int                                `json:"overallRating"`
	Ratings             datatypes.JSONType[map[string]int] `json:"ratings"`
	Accomplishments     string                             `json:"accomplishments" gorm:"type:text"`
	Strengths           string                             `json:"strengths" gorm:"type:text"`
	AreasForImprovement string                             `json:"areasForImprovement" gorm:"type:text"`
	Goals               string                             `json:"goals" gorm:"type:text"`
	Comments            string                             `json:"comments" gorm:"type:text"`
	CreatedAt           time.Time                          `json:"created_at"`
	UpdatedAt           time.Time                          `json:"updated_at"`
}

func (e *EmployeeEvaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

type EmployeeEvaluationMetadata struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	EvaluationID uuid.UUID `json:"evaluationId" gorm:"type:uuid;not null"`
	EmployeeID   uuid.UUID `json:"employeeId" gorm:"type:uuid;not null;uniqueIndex:idx_eval_employee_submitter_year"`
	SubmitterID  uuid.UUID `json:"submitterId" gorm:"type:uuid;not null;uniqueIndex:idx_eval_employee_submitter_year"`
	Year         int       `json:"year" gorm:"not null;uniqueIndex:idx_eval_employee_submitter_year"`
	SubmittedAt  time.Time `json:"submittedAt" gorm:"not null"`
}

func (EmployeeEvaluationMetadata) TableName() string {
	return "employee_evaluation_metadata"
}

func (m *EmployeeEvaluationMetadata) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (m *EmployeeEvaluationMetadata) IsSelf() bool {
	return m.EmployeeID == m.SubmitterID
}
