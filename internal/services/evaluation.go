package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SelfEvaluationRequired is the message returned when a reviewer submits before the employee has.
const SelfEvaluationRequired = "Employee must submit their evaluation before manager/HR can submit for the same year."

type EvaluationContent struct {
	OverallRating       int            `json:"overallRating"`
	Ratings             map[string]int `json:"ratings"`
	Accomplishments     string         `json:"accomplishments"`
	Strengths           string         `json:"strengths"`
	AreasForImprovement string         `json:"areasForImprovement"`
	Goals               string         `json:"goals"`
	Comments            string         `json:"comments"`
}

func (c EvaluationContent) validate() error {
	if c.OverallRating != 0 && (c.OverallRating < 1 || c.OverallRating > 5) {
		return validationf("overallRating must be between 1 and 5")
	}
	for category, rating := range c.Ratings {
		if rating < 1 || rating > 5 {
			return validationf("rating for %q must be between 1 and 5", category)
		}
	}
	return nil
}

func (c EvaluationContent) columns() map[string]interface{} {
	return map[string]interface{}{
		"overall_rating":        c.OverallRating,
		"ratings":               datatypes.NewJSONType(c.Ratings),
		"accomplishments":       c.Accomplishments,
		"strengths":             c.Strengths,
		"areas_for_improvement": c.AreasForImprovement,
		"goals":                 c.Goals,
		"comments":              c.Comments,
	}
}

type EvaluationMeta struct {
	EmployeeID  uuid.UUID
	SubmitterID uuid.UUID
	Year        int
}

type EvaluationRecord struct {
	Metadata   entity.EmployeeEvaluationMetadata `json:"metadata"`
	Evaluation entity.EmployeeEvaluation         `json:"evaluation"`
	Created    bool                              `json:"created"`
}

type Reviewer struct {
	SubmitterID uuid.UUID `json:"submitterId"`
	Initials    string    `json:"initials"`
	IsSelf      bool      `json:"isSelf"`
}

type EvaluationSummary struct {
	Metadata   entity.EmployeeEvaluationMetadata `json:"metadata"`
	Evaluation entity.EmployeeEvaluation         `json:"evaluation"`
	Reviewers  []Reviewer                        `json:"reviewers"`
}

type EvaluationHistoryEntry struct {
	entity.EmployeeEvaluationMetadata
	SubmitterInitials string `json:"submitterInitials"`
}

type EvaluationService struct {
	db     *gorm.DB
	logger *zap.Logger
	now    Clock
}

func NewEvaluationService(db *gorm.DB, logger *zap.Logger, now Clock) *EvaluationService {
	if now == nil {
		now = SystemClock
	}
	return &EvaluationService{db: db, logger: logger, now: now}
}

// Submit records an evaluation for (employee, submitter, year). A repeated submission
// for the same triple rewrites the existing content instead of adding a row.
func (s *EvaluationService) Submit(ctx context.Context, content EvaluationContent, meta EvaluationMeta) (*EvaluationRecord, error) {
	if meta.EmployeeID == uuid.Nil {
		return nil, validationf("employeeId is required")
	}
	if meta.SubmitterID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if meta.Year == 0 {
		meta.Year = s.now().Year()
	}
	if err := content.validate(); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if meta.SubmitterID != meta.EmployeeID {
		submitter, err := findUser(db, meta.SubmitterID)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrForbidden
		}
		if err != nil {
			return nil, err
		}
		if !submitter.IsAdmin && !submitter.IsHR {
			return nil, ErrForbidden
		}
	}

	record, err := s.upsert(db, content, meta)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		s.logger.Warn("Concurrent evaluation submission, retrying",
			zap.String("employee_id", meta.EmployeeID.String()),
			zap.String("submitter_id", meta.SubmitterID.String()),
			zap.Int("year", meta.Year),
		)
		record, err = s.upsert(db, content, meta)
	}
	if err != nil {
		if IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to submit evaluation: %w", err)
	}
	return record, nil
}

func (s *EvaluationService) upsert(db *gorm.DB, content EvaluationContent, meta EvaluationMeta) (*EvaluationRecord, error) {
	record := &EvaluationRecord{}
	err := db.Transaction(func(tx *gorm.DB) error {
		if meta.SubmitterID != meta.EmployeeID {
			if err := requireSelfEvaluation(tx, meta.EmployeeID, meta.Year); err != nil {
				return err
			}
		}

		var existing entity.EmployeeEvaluationMetadata
		err := tx.Where("employee_id = ? AND submitter_id = ? AND year = ?", meta.EmployeeID, meta.SubmitterID, meta.Year).
			First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&entity.EmployeeEvaluation{}).Where("id = ?", existing.EvaluationID).
				Updates(content.columns()).Error; err != nil {
				return err
			}
			now := s.now()
			if err := tx.Model(&existing).Update("submitted_at", now).Error; err != nil {
				return err
			}
			existing.SubmittedAt = now
			record.Metadata = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			evaluation := content.toEntity()
			if err := tx.Create(&evaluation).Error; err != nil {
				return err
			}
			record.Metadata = entity.EmployeeEvaluationMetadata{
				EvaluationID: evaluation.ID,
				EmployeeID:   meta.EmployeeID,
				SubmitterID:  meta.SubmitterID,
				Year:         meta.Year,
				SubmittedAt:  s.now(),
			}
			if err := tx.Create(&record.Metadata).Error; err != nil {
				return err
			}
			record.Created = true
		default:
			return err
		}

		return tx.First(&record.Evaluation, "id = ?", record.Metadata.EvaluationID).Error
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Update rewrites the content behind an existing metadata row. Only the original
// submitter or HR/admin may do so.
func (s *EvaluationService) Update(ctx context.Context, metadataID uuid.UUID, content EvaluationContent, actor *entity.UserMetadata) (*EvaluationRecord, error) {
	if actor == nil {
		return nil, ErrUnauthorized
	}
	if err := content.validate(); err != nil {
		return nil, err
	}

	record := &EvaluationRecord{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&record.Metadata, "id = ?", metadataID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		meta := record.Metadata

		if actor.ID != meta.SubmitterID && !actor.IsAdmin && !actor.IsHR {
			return ErrForbidden
		}
		if !meta.IsSelf() {
			if err := requireSelfEvaluation(tx, meta.EmployeeID, meta.Year); err != nil {
				return err
			}
		}

		if err := tx.Model(&entity.EmployeeEvaluation{}).Where("id = ?", meta.EvaluationID).
			Updates(content.columns()).Error; err != nil {
			return err
		}
		now := s.now()
		if err := tx.Model(&record.Metadata).Update("submitted_at", now).Error; err != nil {
			return err
		}
		record.Metadata.SubmittedAt = now
		return tx.First(&record.Evaluation, "id = ?", meta.EvaluationID).Error
	})
	if err != nil {
		if IsValidation(err) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update evaluation: %w", err)
	}
	return record, nil
}

func (s *EvaluationService) LatestWithReviewers(ctx context.Context, employeeID uuid.UUID, year int) (*EvaluationSummary, error) {
	db := s.db.WithContext(ctx)

	var rows []entity.EmployeeEvaluationMetadata
	if err := db.Where("employee_id = ? AND year = ?", employeeID, year).
		Order("submitted_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load evaluation metadata: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	summary := &EvaluationSummary{Metadata: rows[0]}
	if err := db.First(&summary.Evaluation, "id = ?", rows[0].EvaluationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load evaluation: %w", err)
	}

	submitters := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		if !seen[r.SubmitterID] {
			seen[r.SubmitterID] = true
			submitters = append(submitters, r.SubmitterID)
		}
	}
	users, err := lookupUsers(db, submitters)
	if err != nil {
		return nil, err
	}

	for _, id := range submitters {
		var user *entity.UserMetadata
		if u, ok := users[id]; ok {
			user = &u
		}
		summary.Reviewers = append(summary.Reviewers, Reviewer{
			SubmitterID: id,
			Initials:    Initials(user, id),
			IsSelf:      id == employeeID,
		})
	}
	return summary, nil
}

func (s *EvaluationService) History(ctx context.Context, employeeID uuid.UUID) ([]EvaluationHistoryEntry, error) {
	db := s.db.WithContext(ctx)

	var rows []entity.EmployeeEvaluationMetadata
	if err := db.Where("employee_id = ?", employeeID).
		Order("year DESC").Order("submitted_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load evaluation history: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.SubmitterID)
	}
	users, err := lookupUsers(db, ids)
	if err != nil {
		return nil, err
	}

	entries := make([]EvaluationHistoryEntry, 0, len(rows))
	for _, r := range rows {
		var user *entity.UserMetadata
		if u, ok := users[r.SubmitterID]; ok {
			user = &u
		}
		entries = append(entries, EvaluationHistoryEntry{
			EmployeeEvaluationMetadata: r,
			SubmitterInitials:          Initials(user, r.SubmitterID),
		})
	}
	return entries, nil
}

func (c EvaluationContent) toEntity() entity.EmployeeEvaluation {
	return entity.EmployeeEvaluation{
		OverallRating:       c.OverallRating,
		Ratings:             datatypes.NewJSONType(c.Ratings),
		Accomplishments:     c.Accomplishments,
		Strengths:           c.Strengths,
		AreasForImprovement: c.AreasForImprovement,
		Goals:               c.Goals,
		Comments:            c.Comments,
	}
}

func requireSelfEvaluation(tx *gorm.DB, employeeID uuid.UUID, year int) error {
	var count int64
	if err := tx.Model(&entity.EmployeeEvaluationMetadata{}).
		Where("employee_id = ? AND submitter_id = ? AND year = ?", employeeID, employeeID, year).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return validationf("%s", SelfEvaluationRequired)
	}
	return nil
}

// Initials renders a reviewer as two letters: first and last name initials, else the
// initials of the position words, else the first two characters of the id.
func Initials(user *entity.UserMetadata, id uuid.UUID) string {
	if user != nil {
		if initials := firstRune(user.EmployeeFirstName) + firstRune(user.EmployeeLastName); initials != "" {
			return strings.ToUpper(initials)
		}
		var initials string
		for _, word := range strings.Fields(user.Position) {
			initials += firstRune(word)
		}
		if initials != "" {
			return strings.ToUpper(initials)
		}
	}
	return strings.ToUpper(id.String()[:2])
}

func firstRune(s string) string {
	for _, r := range strings.TrimSpace(s) {
		return string(r)
	}
	return ""
}
