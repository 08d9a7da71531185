package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/kerem-kaynak/hrportal/internal/entity"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthService struct {
	db       *gorm.DB
	logger   *zap.Logger
	sessions *SessionStore
	mailer   Mailer
	siteURL  string
}

func NewAuthService(db *gorm.DB, logger *zap.Logger, sessions *SessionStore, mailer Mailer, siteURL string) *AuthService {
	return &AuthService{
		db:       db,
		logger:   logger,
		sessions: sessions,
		mailer:   mailer,
		siteURL:  strings.TrimRight(siteURL, "/"),
	}
}

func (s *AuthService) AccountByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return &account, nil
}

// SignIn checks an email/password pair. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*entity.Account, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, validationf("email and password are required")
	}
	account, err := s.AccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if account.PasswordHash == "" {
		return nil, ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrUnauthorized
	}
	return account, nil
}

// ForgotPassword emails a single-use reset link when the account exists. It reports
// success either way so callers cannot tell which accounts exist.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	account, err := s.AccountByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		s.logger.Info("Password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	token, err := randomToken()
	if err != nil {
		return err
	}
	if err := s.sessions.StoreResetToken(ctx, token, account.ID); err != nil {
		return err
	}

	if s.mailer == nil {
		s.logger.Warn("No mailer configured, password reset email not sent", zap.String("account_id", account.ID.String()))
		return nil
	}

	var name string
	if user, err := findUser(s.db.WithContext(ctx), account.ID); err == nil {
		name = user.DisplayName()
	}
	resetURL := s.siteURL + "/reset-password?token=" + url.QueryEscape(token)
	if err := s.mailer.SendPasswordReset(ctx, account.Email, name, resetURL); err != nil {
		return err
	}
	return nil
}

func (s *AuthService) ResetPassword(ctx context.Context, token, password string) error {
	if token == "" {
		return validationf("token is required")
	}
	if len(password) < MinPasswordLength {
		return validationf("password must be at least %d characters", MinPasswordLength)
	}

	accountID, err := s.sessions.ConsumeResetToken(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return validationf("reset link is invalid or has expired")
	}
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	result := s.db.WithContext(ctx).Model(&entity.Account{}).Where("id = ?", accountID).
		Update("password_hash", string(hash))
	if result.Error != nil {
		return fmt.Errorf("failed to store password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.logger.Info("Password reset", zap.String("account_id", accountID.String()))
	return nil
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
