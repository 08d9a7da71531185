package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TimeOffStatus string

const (
	TimeOffPending  TimeOffStatus = "PENDING"
	TimeOffApproved TimeOffStatus = "APPROVED"
	TimeOffDeclined TimeOffStatus = "DECLINED"
)

func (s TimeOffStatus) Valid() bool {
	switch s {
	case TimeOffPending, TimeOffApproved, TimeOffDeclined:
		return true
	}
	return false
}

type LeaveType string

const (
	LeaveVacation    LeaveType = "VACATION"
	LeaveSick        LeaveType = "SICK"
	LeavePersonal    LeaveType = "PERSONAL"
	LeaveBereavement LeaveType = "BEREAVEMENT"
	LeaveParental    LeaveType = "PARENTAL"
	LeaveJuryDuty    LeaveType = "JURY_DUTY"
	LeaveOther       LeaveType = "OTHER"
)

func (t LeaveType) Valid() bool {
	switch t {
	case LeaveVacation, LeaveSick, LeavePersonal, LeaveBereavement, LeaveParental, LeaveJuryDuty, LeaveOther:
		return true
	}
	return false
}

type TimeOffRequest struct {
	ID             uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	EmployeeID     uuid.UUID     `json:"employeeId" gorm:"type:uuid;not null;index:idx_time_off_employee_status"`
	LeaveType      LeaveType     `json:"leaveType" gorm:"type:varchar(30);not null"`
	OtherLeaveType string        `json:"otherLeaveType" gorm:"type:varchar(100)"`
	StartDate      time.Time     `json:"startDate" gorm:"type:date;not null"`
	EndDate        time.Time     `json:"endDate" gorm:"type:date;not null"`
	Comments       string        `json:"comments" gorm:"type:text"`
	Status         TimeOffStatus `json:"status" gorm:"type:varchar(20);default:'PENDING';index:idx_time_off_employee_status"`
	RequestDate    time.Time     `json:"requestDate" gorm:"not null"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (r *TimeOffRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Days is the inclusive calendar-day span of the request.
func (r *TimeOffRequest) Days() int {
	return int(r.EndDate.Sub(r.StartDate).Hours()/24) + 1
}

func (r *TimeOffRequest) IsPending() bool {
	return r.Status == "" || r.Status == TimeOffPending
}
