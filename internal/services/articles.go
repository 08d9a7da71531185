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

const blurbLength = 160

type ArticleInput struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Blurb     string   `json:"blurb"`
	ImageURLs []string `json:"imageUrls"`
	Published *bool    `json:"published"`
}

// ArticleService manages career-development articles. Only one configured account may write.
type ArticleService struct {
	db       *gorm.DB
	logger   *zap.Logger
	authorID uuid.UUID
}

func NewArticleService(db *gorm.DB, logger *zap.Logger, authorID uuid.UUID) *ArticleService {
	return &ArticleService{db: db, logger: logger, authorID: authorID}
}

func (s *ArticleService) IsAuthor(userID uuid.UUID) bool {
	return s.authorID != uuid.Nil && userID == s.authorID
}

func (s *ArticleService) List(ctx context.Context, viewer uuid.UUID) ([]entity.Article, error) {
	query := s.db.WithContext(ctx).Model(&entity.Article{})
	if !s.IsAuthor(viewer) {
		query = query.Where("published = ?", true)
	}

	var articles []entity.Article
	if err := query.Order("created_at DESC").Find(&articles).Error; err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return articles, nil
}

func (s *ArticleService) Get(ctx context.Context, id uuid.UUID, viewer uuid.UUID) (*entity.Article, error) {
	article, err := s.get(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if !article.Published && !s.IsAuthor(viewer) {
		return nil, ErrNotFound
	}
	return article, nil
}

func (s *ArticleService) Create(ctx context.Context, requester uuid.UUID, in ArticleInput) (*entity.Article, error) {
	if !s.IsAuthor(requester) {
		return nil, ErrForbidden
	}
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, validationf("title and content are required")
	}

	article := &entity.Article{
		Title:     title,
		Content:   content,
		Blurb:     blurbOrDefault(in.Blurb, content),
		ImageURLs: datatypes.JSONSlice[string](nonNil(in.ImageURLs)),
		AuthorID:  requester,
		Published: in.Published == nil || *in.Published,
	}
	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}
	s.logger.Info("Article created", zap.String("article_id", article.ID.String()))
	return article, nil
}

func (s *ArticleService) Update(ctx context.Context, requester uuid.UUID, id uuid.UUID, in ArticleInput) (*entity.Article, error) {
	if !s.IsAuthor(requester) {
		return nil, ErrForbidden
	}
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, validationf("title and content are required")
	}

	db := s.db.WithContext(ctx)
	article, err := s.get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title":      title,
		"content":    content,
		"blurb":      blurbOrDefault(in.Blurb, content),
		"image_urls": datatypes.JSONSlice[string](nonNil(in.ImageURLs)),
	}
	if in.Published != nil {
		updates["published"] = *in.Published
	}
	if err := db.Model(article).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return s.get(db, id)
}

func (s *ArticleService) Delete(ctx context.Context, requester uuid.UUID, id uuid.UUID) error {
	if !s.IsAuthor(requester) {
		return ErrForbidden
	}
	result := s.db.WithContext(ctx).Delete(&entity.Article{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete article: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ArticleService) get(db *gorm.DB, id uuid.UUID) (*entity.Article, error) {
	var article entity.Article
	if err := db.First(&article, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return &article, nil
}

func blurbOrDefault(blurb, content string) string {
	if b := strings.TrimSpace(blurb); b != "" {
		return b
	}
	runes := []rune(content)
	if len(runes) <= blurbLength {
		return content
	}
	return strings.TrimSpace(string(runes[:blurbLength]))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
