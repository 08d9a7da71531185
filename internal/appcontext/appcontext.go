package appcontext

import (
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/services"
	"github.com/kerem-kaynak/hrportal/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

type Context struct {
	DB     *gorm.DB
	Logger *zap.Logger

	Storage   storage.ObjectStore
	Directory services.DirectoryIndex
	Redis     *redis.Client
	Mailer    services.Mailer

	OAuth2Config *oauth2.Config

	Environment     string
	AllowedOrigins  []string
	SiteURL         string
	JWTSecret       []byte
	SessionTTL      time.Duration
	ArticleAuthorID uuid.UUID

	Sessions    *services.SessionStore
	Auth        *services.AuthService
	Users       *services.UserService
	TimeOff     *services.TimeOffService
	Evaluations *services.EvaluationService
	Documents   *services.DocumentService
	Articles    *services.ArticleService
}

// WireServices builds the domain services from the shared handles already set on c.
func (c *Context) WireServices(clock services.Clock) {
	c.Sessions = services.NewSessionStore(c.Redis)
	c.Auth = services.NewAuthService(c.DB, c.Logger, c.Sessions, c.Mailer, c.SiteURL)
	c.Users = services.NewUserService(c.DB, c.Logger, c.Directory)
	c.TimeOff = services.NewTimeOffService(c.DB, c.Logger, clock)
	c.Evaluations = services.NewEvaluationService(c.DB, c.Logger, clock)
	c.Documents = services.NewDocumentService(c.DB, c.Logger, c.Storage, clock)
	c.Articles = services.NewArticleService(c.DB, c.Logger, c.ArticleAuthorID)
}

func (c *Context) IsProduction() bool {
	return c.Environment == "production"
}
