package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.UserMetadata{},
		&entity.Account{},
		&entity.TimeOffRequest{},
		&entity.EmployeeEvaluation{},
		&entity.EmployeeEvaluationMetadata{},
		&entity.File{},
		&entity.Article{},
	))
	return db
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func createUser(t *testing.T, db *gorm.DB, first, last string, hr, admin bool) *entity.UserMetadata {
	t.Helper()
	user := &entity.UserMetadata{
		EmployeeFirstName: first,
		EmployeeLastName:  last,
		IsHR:              hr,
		IsAdmin:           admin,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type fakeStore struct {
	mu        sync.Mutex
	bucket    string
	objects   map[string][]byte
	putErr    error
	deleteErr error
	deleted   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{bucket: "test-bucket", objects: map[string][]byte{}}
}

func (s *fakeStore) Bucket() string { return s.bucket }

func (s *fakeStore) Put(_ context.Context, path string, body io.Reader, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *fakeStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, path)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, path)
	return nil
}

func (s *fakeStore) SignedURL(_ context.Context, path string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://signed.example/%s/%s?ttl=%d", s.bucket, path, int(expires.Seconds())), nil
}

type fakeMailer struct {
	to  string
	url string
	err error
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, toEmail, _ string, resetURL string) error {
	m.to = toEmail
	m.url = resetURL
	return m.err
}

type fakeIndex struct {
	indexed map[uuid.UUID]entity.UserMetadata
	results []uuid.UUID
	err     error
}

func (f *fakeIndex) Index(_ context.Context, users []entity.UserMetadata) error {
	if f.indexed == nil {
		f.indexed = map[uuid.UUID]entity.UserMetadata{}
	}
	for _, u := range users {
		f.indexed[u.ID] = u
	}
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _ int) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

var errBoom = errors.New("boom")

func body(s string) io.Reader { return bytes.NewBufferString(s) }

var testLogger = zap.NewNop()
