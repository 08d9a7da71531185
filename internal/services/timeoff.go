package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AnnualAllotment is the number of approved time-off days an employee may take per calendar year.
const AnnualAllotment = 20

type TimeOffFilter string

const (
	TimeOffFilterAll        TimeOffFilter = "all"
	TimeOffFilterEmployee   TimeOffFilter = "employee"
	TimeOffFilterPending    TimeOffFilter = "pending"
	TimeOffFilterNonPending TimeOffFilter = "nonpending"
)

type TimeOffInput struct {
	LeaveType      entity.LeaveType
	OtherLeaveType string
	StartDate      time.Time
	EndDate        time.Time
	Comments       string
}

type TimeOffRequestView struct {
	entity.TimeOffRequest
	EmployeeName string `json:"employeeName"`
}

type TimeOffBalance struct {
	EmployeeID    uuid.UUID `json:"employeeId"`
	Year          int       `json:"year"`
	Allotment     int       `json:"allotment"`
	ApprovedDays  int       `json:"approvedDays"`
	DaysAvailable int       `json:"daysAvailable"`
	PendingCount  int64     `json:"pendingCount"`
}

type TimeOffService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    Clock
}

func NewTimeOffService(db *gorm.DB, logger *zap.Logger, now Clock) *TimeOffService {
	if now == nil {
		now = SystemClock
	}
	return &TimeOffService{db: db, logger: logger, now: now}
}

func (s *TimeOffService) CreateRequest(ctx context.Context, employeeID uuid.UUID, in TimeOffInput) (*entity.TimeOffRequest, error) {
	if employeeID == uuid.Nil {
		return nil, validationf("employeeId is required")
	}
	if !in.LeaveType.Valid() {
		return nil, validationf("leaveType %q is not a recognised leave type", in.LeaveType)
	}
	other := strings.TrimSpace(in.OtherLeaveType)
	if in.LeaveType == entity.LeaveOther && other == "" {
		return nil, validationf("otherLeaveType is required when leaveType is OTHER")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, validationf("startDate and endDate are required")
	}

	now := s.now()
	today := truncateToDay(now)
	start := truncateToDay(in.StartDate)
	end := truncateToDay(in.EndDate)

	if start.Before(today) {
		return nil, validationf("Start date must be in the future")
	}
	if end.Before(start) {
		return nil, validationf("End date must be on or after the start date")
	}
	if end.Year() != today.Year() {
		return nil, validationf("End date must be within the current calendar year (%d)", today.Year())
	}

	request := &entity.TimeOffRequest{
		EmployeeID:     employeeID,
		LeaveType:      in.LeaveType,
		OtherLeaveType: other,
		StartDate:      start,
		EndDate:        end,
		Comments:       strings.TrimSpace(in.Comments),
		Status:         entity.TimeOffPending,
		RequestDate:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		approved, err := approvedDays(tx, employeeID, today.Year(), uuid.Nil)
		if err != nil {
			return err
		}
		remaining := AnnualAllotment - approved
		if request.Days() > remaining {
			return validationf("Requested %d days exceeds the %d days available", request.Days(), max(remaining, 0))
		}
		return tx.Create(request).Error
	})
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create time-off request: %w", err)
	}

	s.logger.Info("Time-off request created",
		zap.String("request_id", request.ID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.Int("days", request.Days()),
	)
	return request, nil
}

func (s *TimeOffService) ListRequests(ctx context.Context, filter TimeOffFilter, employeeID uuid.UUID) ([]TimeOffRequestView, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&entity.TimeOffRequest{})

	switch filter {
	case "", TimeOffFilterAll:
	case TimeOffFilterEmployee:
		if employeeID == uuid.Nil {
			return nil, validationf("employeeId is required for type=employee")
		}
	case TimeOffFilterPending:
		query = query.Where("(status = ? OR status IS NULL OR status = '')", entity.TimeOffPending)
	case TimeOffFilterNonPending:
		query = query.Where("status IN ?", []entity.TimeOffStatus{entity.TimeOffApproved, entity.TimeOffDeclined})
	default:
		return nil, validationf("type must be one of all, employee, pending, nonpending")
	}
	if employeeID != uuid.Nil {
		query = query.Where("employee_id = ?", employeeID)
	}

	var requests []entity.TimeOffRequest
	if err := query.Order("request_date DESC").Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("failed to list time-off requests: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(requests))
	for _, r := range requests {
		ids = append(ids, r.EmployeeID)
	}
	users, err := lookupUsers(db, ids)
	if err != nil {
		return nil, err
	}

	views := make([]TimeOffRequestView, 0, len(requests))
	for _, r := range requests {
		view := TimeOffRequestView{TimeOffRequest: r}
		if u, ok := users[r.EmployeeID]; ok {
			view.EmployeeName = u.DisplayName()
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *TimeOffService) GetRequest(ctx context.Context, id uuid.UUID) (*entity.TimeOffRequest, error) {
	var request entity.TimeOffRequest
	if err := s.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get time-off request: %w", err)
	}
	return &request, nil
}

// UpdateStatus moves a request between statuses. Pending requests may be approved or declined,
// any request may be reverted to pending, and re-applying the current status is a no-op.
func (s *TimeOffService) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.TimeOffStatus) (*entity.TimeOffRequest, error) {
	if !status.Valid() {
		return nil, validationf("status must be one of PENDING, APPROVED, DECLINED")
	}

	var request entity.TimeOffRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&request, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		current := request.Status
		if current == "" {
			current = entity.TimeOffPending
		}
		if current == status {
			return nil
		}
		if status != entity.TimeOffPending && !request.IsPending() {
			return validationf("Only pending requests can be set to %s", status)
		}

		if status == entity.TimeOffApproved {
			approved, err := approvedDays(tx, request.EmployeeID, request.StartDate.Year(), request.ID)
			if err != nil {
				return err
			}
			if approved+request.Days() > AnnualAllotment {
				return validationf("Approving %d days would exceed the annual allotment of %d (already approved: %d)",
					request.Days(), AnnualAllotment, approved)
			}
		}

		if err := tx.Model(&request).Update("status", status).Error; err != nil {
			return err
		}
		request.Status = status
		return nil
	})
	if err != nil {
		if IsValidation(err) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update time-off status: %w", err)
	}

	s.logger.Info("Time-off request status updated",
		zap.String("request_id", request.ID.String()),
		zap.String("status", string(request.Status)),
	)
	return &request, nil
}

func (s *TimeOffService) Balance(ctx context.Context, employeeID uuid.UUID) (*TimeOffBalance, error) {
	db := s.db.WithContext(ctx)
	year := s.now().Year()

	approved, err := approvedDays(db, employeeID, year, uuid.Nil)
	if err != nil {
		return nil, err
	}

	var pending int64
	if err := db.Model(&entity.TimeOffRequest{}).
		Where("employee_id = ?", employeeID).
		Where("(status = ? OR status IS NULL OR status = '')", entity.TimeOffPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("failed to count pending requests: %w", err)
	}

	return &TimeOffBalance{
		EmployeeID:    employeeID,
		Year:          year,
		Allotment:     AnnualAllotment,
		ApprovedDays:  approved,
		DaysAvailable: min(max(AnnualAllotment-approved, 0), AnnualAllotment),
		PendingCount:  pending,
	}, nil
}

func approvedDays(db *gorm.DB, employeeID uuid.UUID, year int, exclude uuid.UUID) (int, error) {
	from, to := yearBounds(year)

	query := db.Model(&entity.TimeOffRequest{}).
		Where("employee_id = ? AND status = ?", employeeID, entity.TimeOffApproved).
		Where("start_date >= ? AND start_date <= ?", from, to)
	if exclude != uuid.Nil {
		query = query.Where("id <> ?", exclude)
	}

	var approved []entity.TimeOffRequest
	if err := query.Find(&approved).Error; err != nil {
		return 0, fmt.Errorf("failed to load approved requests: %w", err)
	}

	days := 0
	for _, r := range approved {
		days += r.Days()
	}
	return days, nil
}
