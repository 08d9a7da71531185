package http

import (
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kerem-kaynak/hrportal/internal/appcontext"
	"github.com/kerem-kaynak/hrportal/internal/http/middleware"
	"github.com/kerem-kaynak/hrportal/web"
	"go.uber.org/zap"
)

type APIService struct {
	engine  *gin.Engine
	context *appcontext.Context
}

func NewHTTPService(ctx *appcontext.Context) *APIService {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.Tracing())
	engine.Use(middleware.RequestLogger(ctx.Logger))
	engine.Use(middleware.CORSMiddleware(ctx))

	service := &APIService{
		engine:  engine,
		context: ctx,
	}
	service.setupRoutes()
	return service
}

func (h *APIService) Engine() *gin.Engine {
	return h.engine
}

func (h *APIService) setupRoutes() {
	api := h.engine.Group("/api")
	h.setupAuthRoutes(api)
	h.setupArticleRoutes(api)
	h.setupTimeOffRoutes(api)
	h.setupEvaluationRoutes(api)
	h.setupDocumentRoutes(api)
	h.setupUserRoutes(api)

	api.GET("/debug/user-info", middleware.SessionMiddleware(h.context), DebugUserInfo(h.context))

	h.setupPageRoutes()
}

func (h *APIService) setupPageRoutes() {
	pages, err := fs.Sub(web.Static, "static")
	if err != nil {
		h.context.Logger.Fatal("Failed to load static pages", zap.Error(err))
	}

	h.engine.StaticFS("/static", http.FS(pages))
	h.engine.GET("/sign-in", servePage(pages, "sign-in.html"))
	h.engine.GET("/reset-password", servePage(pages, "reset-password.html"))
	h.engine.GET("/", middleware.SessionMiddleware(h.context), servePage(pages, "index.html"))
}

func servePage(pages fs.FS, name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := fs.ReadFile(pages, name)
		if err != nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", body)
	}
}

func (h *APIService) setupAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")

	auth.POST("/sign-in", SignIn(h.context))
	auth.GET("/login", Login(h.context))
	auth.GET("/callback", Callback(h.context))
	auth.POST("/sign-out", SignOut(h.context))
	auth.POST("/forgot-password", ForgotPassword(h.context))
	auth.POST("/reset-password", ResetPassword(h.context))
	auth.GET("/me", middleware.SessionMiddleware(h.context), GetUserInfo(h.context))
}

func (h *APIService) setupArticleRoutes(group *gin.RouterGroup) {
	articles := group.Group("/articles")
	articles.Use(middleware.SessionMiddleware(h.context))

	articles.GET("", GetArticles(h.context))
	articles.POST("", CreateArticle(h.context))
	articles.PUT("", UpdateArticle(h.context))
	articles.DELETE("", DeleteArticle(h.context))
}

func (h *APIService) setupTimeOffRoutes(group *gin.RouterGroup) {
	timeOff := group.Group("/time-off-req")
	timeOff.Use(middleware.SessionMiddleware(h.context))

	timeOff.GET("", GetTimeOffRequests(h.context))
	timeOff.GET("/balance", GetTimeOffBalance(h.context))
	timeOff.POST("", CreateTimeOffRequest(h.context))
	timeOff.PUT("", middleware.HROrAdmin(), UpdateTimeOffStatus(h.context))
}

func (h *APIService) setupEvaluationRoutes(group *gin.RouterGroup) {
	evals := group.Group("/employee-evals")
	evals.Use(middleware.SessionMiddleware(h.context))

	evals.GET("", GetEvaluations(h.context))
	evals.POST("", SubmitEvaluation(h.context))
	evals.PUT("", UpdateEvaluation(h.context))
}

func (h *APIService) setupDocumentRoutes(group *gin.RouterGroup) {
	documents := group.Group("/documents")
	documents.Use(middleware.SessionMiddleware(h.context))

	documents.GET("", GetDocuments(h.context))
	documents.POST("", UploadDocument(h.context))
	documents.PUT("", UpdateDocument(h.context))
	documents.DELETE("", DeleteDocument(h.context))
}

func (h *APIService) setupUserRoutes(group *gin.RouterGroup) {
	users := group.Group("/users")
	users.Use(middleware.SessionMiddleware(h.context))

	users.GET("", SearchUsers(h.context))
	users.POST("/me/avatar", UploadAvatar(h.context))
	users.GET("/:id/avatar", GetAvatar(h.context))
	users.PUT("/:id", middleware.AdminOnly(), UpsertUser(h.context))
}
