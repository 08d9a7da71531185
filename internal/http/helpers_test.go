package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *memoryStore) Bucket() string { return "portal-test" }

func (s *memoryStore) Put(_ context.Context, path string, body io.Reader, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[path] = data
	return nil
}

func (s *memoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, path)
	return nil
}

func (s *memoryStore) SignedURL(_ context.Context, path string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.example/%s?expires=%d", path, int(expires.Seconds())), nil
}

type testServer struct {
	t       *testing.T
	ctx     *appcontext.Context
	handler http.Handler
	redis   *miniredis.Miniredis
	store   *memoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := &memoryStore{objects: map[string][]byte{}}
	ctx := &appcontext.Context{
		DB:          db,
		Logger:      zap.NewNop(),
		Storage:     store,
		Redis:       client,
		Environment: "test",
		SiteURL:     "https://portal.example",
		JWTSecret:   []byte("http-test-secret"),
		SessionTTL:  time.Hour,
	}
	ctx.WireServices(func() time.Time { return testNow })

	return &testServer{
		t:       t,
		ctx:     ctx,
		handler: NewHTTPService(ctx).Engine(),
		redis:   mr,
		store:   store,
	}
}

func (s *testServer) createUser(first, last string, hr, admin bool) *entity.UserMetadata {
	s.t.Helper()
	user := &entity.UserMetadata{EmployeeFirstName: first, EmployeeLastName: last, IsHR: hr, IsAdmin: admin}
	require.NoError(s.t, s.ctx.DB.Create(user).Error)
	return user
}

func (s *testServer) token(user *entity.UserMetadata) string {
	s.t.Helper()
	token, _, err := utils.GenerateJWT(s.ctx.JWTSecret, user.ID, "", s.ctx.SessionTTL)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, payload interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

