package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinPasswordLength  = 8
	directorySearchMax = 50
)

type UserInput struct {
	IsAdmin   bool   `json:"isAdmin"`
	IsHR      bool   `json:"isHR"`
	Position  string `json:"position"`
	FirstName string `json:"employeeFirstName"`
	LastName  string `json:"employeeLastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type UserService struct {
	db     *gorm.DB
	logger *zap.Logger
	index  DirectoryIndex
}

// NewUserService builds the user service. index may be nil, in which case directory
// searches are answered from the database.
func NewUserService(db *gorm.DB, logger *zap.Logger, index DirectoryIndex) *UserService {
	return &UserService{db: db, logger: logger, index: index}
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*entity.UserMetadata, error) {
	return findUser(s.db.WithContext(ctx), id)
}

func (s *UserService) GetAccount(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var account entity.Account
	if err := s.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// Upsert writes the metadata row for id, creating it when missing. When an email is
// given the sign-in account is created or its email updated.
func (s *UserService) Upsert(ctx context.Context, id uuid.UUID, in UserInput) (*entity.UserMetadata, error) {
	if id == uuid.Nil {
		return nil, validationf("user id is required")
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if in.Password != "" && len(in.Password) < MinPasswordLength {
		return nil, validationf("password must be at least %d characters", MinPasswordLength)
	}

	user := entity.UserMetadata{
		ID:                id,
		IsAdmin:           in.IsAdmin,
		IsHR:              in.IsHR,
		Position:          strings.TrimSpace(in.Position),
		EmployeeFirstName: strings.TrimSpace(in.FirstName),
		EmployeeLastName:  strings.TrimSpace(in.LastName),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_admin", "is_hr", "position", "employee_first_name", "employee_last_name", "updated_at",
			}),
		}).Create(&user).Error; err != nil {
			return err
		}

		if email == "" {
			return nil
		}

		var account entity.Account
		err := tx.First(&account, "id = ?", id).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = entity.Account{ID: id, Email: email}
			if in.Password != "" {
				hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				account.PasswordHash = string(hash)
			}
			return tx.Create(&account).Error
		case err != nil:
			return err
		}

		updates := map[string]interface{}{"email": email}
		if in.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			updates["password_hash"] = string(hash)
		}
		return tx.Model(&account).Updates(updates).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, validationf("email %s is already in use", email)
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	stored, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, *stored)
	return stored, nil
}

// Search returns employees matching query, served by the directory index when one is
// configured and from the database otherwise.
func (s *UserService) Search(ctx context.Context, query string) ([]entity.UserMetadata, error) {
	query = strings.TrimSpace(query)
	db := s.db.WithContext(ctx)

	if s.index != nil && query != "" {
		ids, err := s.index.Search(ctx, query, directorySearchMax)
		if err == nil {
			users, err := lookupUsers(db, ids)
			if err != nil {
				return nil, err
			}
			ordered := make([]entity.UserMetadata, 0, len(ids))
			for _, id := range ids {
				if u, ok := users[id]; ok {
					ordered = append(ordered, u)
				}
			}
			return ordered, nil
		}
		s.logger.Warn("Directory index search failed, falling back to database", zap.Error(err))
	}

	q := db.Model(&entity.UserMetadata{})
	if query != "" {
		pattern := "%" + strings.ToLower(query) + "%"
		q = q.Where("(LOWER(employee_first_name) LIKE ? OR LOWER(employee_last_name) LIKE ? OR LOWER(position) LIKE ?)",
			pattern, pattern, pattern)
	}

	var users []entity.UserMetadata
	if err := q.Order("employee_last_name").Order("employee_first_name").
		Limit(directorySearchMax).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

// ReindexAll pushes every employee to the directory index.
func (s *UserService) ReindexAll(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	var users []entity.UserMetadata
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load users for indexing: %w", err)
	}
	if err := s.index.Index(ctx, users); err != nil {
		return err
	}
	s.logger.Info("Employee directory indexed", zap.Int("count", len(users)))
	return nil
}

func (s *UserService) reindex(ctx context.Context, user entity.UserMetadata) {
	if s.index == nil {
		return
	}
	if err := s.index.Index(ctx, []entity.UserMetadata{user}); err != nil {
		s.logger.Warn("Failed to index employee", zap.String("user_id", user.ID.String()), zap.Error(err))
	}
}

func findUser(db *gorm.DB, id uuid.UUID) (*entity.UserMetadata, error) {
	var user entity.UserMetadata
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user metadata: %w", err)
	}
	return &user, nil
}

// lookupUsers loads the metadata rows for ids in one query, keyed by id.
func lookupUsers(db *gorm.DB, ids []uuid.UUID) (map[uuid.UUID]entity.UserMetadata, error) {
	result := make(map[uuid.UUID]entity.UserMetadata, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	var users []entity.UserMetadata
	if err := db.Where("id IN ?", unique).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to look up users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
