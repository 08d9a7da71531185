package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/services"
	gcs "github.com/kerem-kaynak/hrportal/internal/storage"
	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Settings struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	SiteURL        string

	DatabaseDriver string
	DatabaseURL    string

	JWTSecret  string
	SessionTTL time.Duration

	GCSBucketName string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	MeilisearchHost   string
	MeilisearchAPIKey string

	RedisAddr     string
	RedisPassword string

	SendGridAPIKey string
	MailFrom       string

	ArticleAuthorID uuid.UUID
	LogFile         string
	OTLPEndpoint    string
}

// LoadSettings reads the process environment, after merging in a .env file if present.
func LoadSettings() (*Settings, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	s := &Settings{
		Port:               getEnv("PORT", "8080"),
		Environment:        getEnv("ENVIRONMENT", "development"),
		AllowedOrigins:     splitList(os.Getenv("ALLOWED_ORIGINS")),
		SiteURL:            os.Getenv("SITE_URL"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionTTL:         24 * time.Hour,
		GCSBucketName:      os.Getenv("GCS_BUCKET_NAME"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		MeilisearchHost:    os.Getenv("MEILISEARCH_HOST"),
		MeilisearchAPIKey:  os.Getenv("MEILISEARCH_API_KEY"),
		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RedisPassword:      os.Getenv("REDIS_PASSWORD"),
		SendGridAPIKey:     os.Getenv("SENDGRID_API_KEY"),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@hrportal.local"),
		LogFile:            os.Getenv("LOG_FILE"),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	if s.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if s.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	if raw := os.Getenv("SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid SESSION_TTL %q", raw)
		}
		s.SessionTTL = ttl
	}

	if raw := os.Getenv("ARTICLE_AUTHOR_ID"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ARTICLE_AUTHOR_ID: %w", err)
		}
		s.ArticleAuthorID = id
	}

	return s, nil
}

func InitContext(settings *Settings) (*appcontext.Context, error) {
	logger, err := InitLogger(settings)
	if err != nil {
		return nil, err
	}

	db, err := InitDB(settings)
	if err != nil {
		return nil, err
	}

	ctx := &appcontext.Context{
		DB:     db,
		Logger: logger,

		OAuth2Config: &oauth2.Config{
			ClientID:     settings.GoogleClientID,
			ClientSecret: settings.GoogleClientSecret,
			RedirectURL:  settings.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},

		Environment:     settings.Environment,
		AllowedOrigins:  settings.AllowedOrigins,
		SiteURL:         settings.SiteURL,
		JWTSecret:       []byte(settings.JWTSecret),
		SessionTTL:      settings.SessionTTL,
		ArticleAuthorID: settings.ArticleAuthorID,
	}

	if settings.GCSBucketName != "" {
		gcsClient, err := InitGCSClient()
		if err != nil {
			return nil, err
		}
		ctx.Storage = gcs.NewGCSStore(gcsClient, settings.GCSBucketName)
	} else {
		logger.Warn("GCS_BUCKET_NAME not set, document storage disabled")
	}

	if settings.MeilisearchHost != "" {
		client, err := InitMeilisearch(settings)
		if err != nil {
			return nil, err
		}
		ctx.Directory = services.NewMeilisearchDirectory(client)
	}

	if settings.RedisAddr != "" {
		client, err := InitRedis(settings)
		if err != nil {
			return nil, err
		}
		ctx.Redis = client
	} else {
		logger.Warn("REDIS_ADDR not set, sign-out revocation and password reset disabled")
	}

	if settings.SendGridAPIKey != "" {
		ctx.Mailer = services.NewSendGridMailer(settings.SendGridAPIKey, settings.MailFrom)
	}

	ctx.WireServices(services.SystemClock)

	if ctx.Directory != nil {
		if err := ctx.Users.ReindexAll(context.Background()); err != nil {
			logger.Warn("Failed to index employee directory", zap.Error(err))
		}
	}

	return ctx, nil
}

func InitDB(settings *Settings) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch settings.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(settings.DatabaseURL)
	case "mysql":
		dialector = mysql.Open(settings.DatabaseURL)
	case "sqlite":
		dialector = sqlite.Open(settings.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", settings.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.UserMetadata{},
		&entity.Account{},
		&entity.TimeOffRequest{},
		&entity.EmployeeEvaluation{},
		&entity.EmployeeEvaluationMetadata{},
		&entity.File{},
		&entity.Article{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// InitLogger builds the production zap logger, teeing JSON output into a rotating
// file when LOG_FILE is set.
func InitLogger(settings *Settings) (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if settings.LogFile == "" {
		return logger, nil
	}

	logWriter := &lumberjack.Logger{
		Filename:   settings.LogFile,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	level := zap.InfoLevel
	if settings.Environment != "production" {
		level = zap.DebugLevel
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logWriter), level)

	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	})), nil
}

func InitGCSClient() (*storage.Client, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
	}
	return client, nil
}

func InitRedis(settings *Settings) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     settings.RedisAddr,
		Password: settings.RedisPassword,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func InitMeilisearch(settings *Settings) (*meilisearch.Client, error) {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   settings.MeilisearchHost,
		APIKey: settings.MeilisearchAPIKey,
	})

	task, err := client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        services.EmployeesIndex,
		PrimaryKey: "id",
	})
	if err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("failed to create index: %w", err)
		}
	} else if _, err := client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for index creation: %w", err)
	}

	task, err = client.Index(services.EmployeesIndex).UpdateFilterableAttributes(&[]string{
		"role",
		"position",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update filterable attributes: %w", err)
	}
	if _, err = client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for filterable attributes update: %w", err)
	}

	task, err = client.Index(services.EmployeesIndex).UpdateSearchableAttributes(&[]string{
		"full_name",
		"first_name",
		"last_name",
		"position",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update searchable attributes: %w", err)
	}
	if _, err = client.WaitForTask(task.TaskUID); err != nil {
		return nil, fmt.Errorf("failed to wait for searchable attributes update: %w", err)
	}

	return client, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
