package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/kerem-kaynak/hrportal/internal/storage"
	"github.com/kerem-kaynak/hrportal/internal/utils"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SignedURLTTL is how long a download link handed to a client stays valid.
const SignedURLTTL = 60 * time.Second

const maxObjectNameLength = 128

type UploadInput struct {
	FileName    string
	Viewers     []string
	FolderPath  []string
	Body        io.Reader
	Size        int64
	ContentType string
	Type        entity.FileType
}

type SharingInput struct {
	FileName   *string   `json:"fileName"`
	Viewers    *[]string `json:"viewers"`
	FolderPath *[]string `json:"folderPath"`
}

type DocumentView struct {
	entity.File
	OwnerName string `json:"ownerName"`
	IsOwner   bool   `json:"isOwner"`
}

type ViewerInfo struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Initials string    `json:"initials"`
}

type DocumentPermissions struct {
	FileID  uuid.UUID    `json:"fileId"`
	OwnerID uuid.UUID    `json:"ownerId"`
	Viewers []ViewerInfo `json:"viewers"`
}

type DocumentService struct {
	db     *gorm.DB
	logger *zap.Logger
	store  storage.ObjectStore
	now    Clock
}

func NewDocumentService(db *gorm.DB, logger *zap.Logger, store storage.ObjectStore, now Clock) *DocumentService {
	if now == nil {
		now = SystemClock
	}
	return &DocumentService{db: db, logger: logger, store: store, now: now}
}

// Upload writes the bytes to the object store and then records the file row. If the
// row cannot be written the object is removed again. A new avatar replaces the previous one.
func (s *DocumentService) Upload(ctx context.Context, userID uuid.UUID, in UploadInput) (*entity.File, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	if in.Body == nil {
		return nil, validationf("file is required")
	}
	if s.store == nil {
		return nil, errors.New("object storage is not configured")
	}
	if in.Type == "" {
		in.Type = entity.FileTypeDocument
	}
	if in.Type != entity.FileTypeDocument && in.Type != entity.FileTypeAvatar {
		return nil, validationf("unsupported file type %q", in.Type)
	}

	viewers, err := normalizeViewers(in.Viewers, userID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = "file"
	}

	path := fmt.Sprintf("%s/%d-%s", userID, s.now().UnixMilli(), SanitizeFileName(name))
	if err := s.store.Put(ctx, path, in.Body, in.ContentType); err != nil {
		return nil, err
	}

	file := &entity.File{
		UserID:      userID,
		Bucket:      s.store.Bucket(),
		Path:        path,
		Type:        in.Type,
		ContentType: in.ContentType,
		Size:        in.Size,
		Metadata: datatypes.NewJSONType(entity.FileMetadata{
			FileName:   name,
			Viewers:    viewers,
			FolderPath: normalizeFolderPath(in.FolderPath),
		}),
	}

	var replaced *entity.File
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		if file.Type != entity.FileTypeAvatar {
			return nil
		}

		previous, err := currentAvatar(tx, userID)
		if err != nil {
			return err
		}
		if previous != nil {
			if err := tx.Delete(&entity.File{}, "id = ?", previous.ID).Error; err != nil {
				return err
			}
			replaced = previous
		}
		return tx.Model(&entity.UserMetadata{}).Where("id = ?", userID).
			Update("avatar_file_id", file.ID).Error
	})
	if err != nil {
		if delErr := s.store.Delete(context.WithoutCancel(ctx), path); delErr != nil {
			s.logger.Error("Failed to remove orphaned object after failed upload",
				zap.String("path", path),
				zap.String("bucket", s.store.Bucket()),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record uploaded file: %w", err)
	}
	if replaced != nil {
		s.removeObject(ctx, replaced)
	}

	s.logger.Info("File uploaded",
		zap.String("file_id", file.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("type", string(file.Type)),
	)
	return file, nil
}

// SignedURL hands out a short-lived download link for a document the requester may read.
func (s *DocumentService) SignedURL(ctx context.Context, fileID uuid.UUID, requester *entity.UserMetadata) (string, error) {
	file, err := s.get(ctx, fileID)
	if err != nil {
		return "", err
	}
	if s.store == nil || file.Bucket != s.store.Bucket() || file.Type != entity.FileTypeDocument {
		return "", ErrNotFound
	}
	if !utils.CanReadFile(requester, file) {
		return "", ErrForbidden
	}
	return s.store.SignedURL(ctx, file.Path, SignedURLTTL)
}

func (s *DocumentService) AvatarURL(ctx context.Context, userID uuid.UUID) (string, error) {
	user, err := findUser(s.db.WithContext(ctx), userID)
	if err != nil {
		return "", err
	}
	if user.AvatarFileID == nil {
		return "", ErrNotFound
	}
	file, err := s.get(ctx, *user.AvatarFileID)
	if err != nil {
		return "", err
	}
	if s.store == nil || file.Bucket != s.store.Bucket() || file.Type != entity.FileTypeAvatar {
		return "", ErrNotFound
	}
	return s.store.SignedURL(ctx, file.Path, SignedURLTTL)
}

// ListVisible returns the documents the requester owns or has been shared, ordered by
// folder path and then name. Admins see every document.
func (s *DocumentService) ListVisible(ctx context.Context, requester *entity.UserMetadata) ([]DocumentView, error) {
	if requester == nil {
		return nil, ErrUnauthorized
	}
	db := s.db.WithContext(ctx)

	var files []entity.File
	if err := db.Where("type = ?", entity.FileTypeDocument).Find(&files).Error; err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	visible := make([]entity.File, 0, len(files))
	owners := make([]uuid.UUID, 0, len(files))
	for i := range files {
		if utils.CanReadFile(requester, &files[i]) {
			visible = append(visible, files[i])
			owners = append(owners, files[i].UserID)
		}
	}

	users, err := lookupUsers(db, owners)
	if err != nil {
		return nil, err
	}

	views := make([]DocumentView, 0, len(visible))
	for _, f := range visible {
		view := DocumentView{File: f, IsOwner: f.UserID == requester.ID}
		if u, ok := users[f.UserID]; ok {
			view.OwnerName = u.DisplayName()
		}
		views = append(views, view)
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].Metadata.Data(), views[j].Metadata.Data()
		pa, pb := strings.Join(a.FolderPath, "/"), strings.Join(b.FolderPath, "/")
		if pa != pb {
			return pa < pb
		}
		return strings.ToLower(a.FileName) < strings.ToLower(b.FileName)
	})
	return views, nil
}

func (s *DocumentService) Permissions(ctx context.Context, fileID uuid.UUID, requester *entity.UserMetadata) (*DocumentPermissions, error) {
	file, err := s.get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if requester == nil || (requester.ID != file.UserID && !requester.IsAdmin) {
		return nil, ErrForbidden
	}

	meta := file.Metadata.Data()
	ids := make([]uuid.UUID, 0, len(meta.Viewers))
	for _, v := range meta.Viewers {
		if id, err := uuid.Parse(v); err == nil {
			ids = append(ids, id)
		}
	}
	users, err := lookupUsers(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	perms := &DocumentPermissions{FileID: file.ID, OwnerID: file.UserID, Viewers: make([]ViewerInfo, 0, len(ids))}
	for _, id := range ids {
		info := ViewerInfo{ID: id}
		var user *entity.UserMetadata
		if u, ok := users[id]; ok {
			user = &u
			info.Name = u.DisplayName()
		}
		info.Initials = Initials(user, id)
		perms.Viewers = append(perms.Viewers, info)
	}
	return perms, nil
}

func (s *DocumentService) UpdateSharing(ctx context.Context, fileID uuid.UUID, requester *entity.UserMetadata, in SharingInput) (*entity.File, error) {
	file, err := s.get(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if requester == nil || requester.ID != file.UserID {
		return nil, ErrForbidden
	}

	meta := file.Metadata.Data()
	if in.Viewers != nil {
		viewers, err := normalizeViewers(*in.Viewers, file.UserID)
		if err != nil {
			return nil, err
		}
		meta.Viewers = viewers
	}
	if in.FolderPath != nil {
		meta.FolderPath = normalizeFolderPath(*in.FolderPath)
	}
	if in.FileName != nil {
		name := strings.TrimSpace(*in.FileName)
		if name == "" {
			return nil, validationf("fileName cannot be empty")
		}
		meta.FileName = name
	}

	file.Metadata = datatypes.NewJSONType(meta)
	if err := s.db.WithContext(ctx).Model(file).Update("metadata", file.Metadata).Error; err != nil {
		return nil, fmt.Errorf("failed to update sharing: %w", err)
	}
	return file, nil
}

// Delete removes the file row and then the stored object. Object delete failures are logged only.
func (s *DocumentService) Delete(ctx context.Context, fileID uuid.UUID, requester *entity.UserMetadata) error {
	file, err := s.get(ctx, fileID)
	if err != nil {
		return err
	}
	if requester == nil || requester.ID != file.UserID {
		return ErrForbidden
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&entity.File{}, "id = ?", file.ID).Error; err != nil {
			return err
		}
		return tx.Model(&entity.UserMetadata{}).Where("avatar_file_id = ?", file.ID).
			Update("avatar_file_id", nil).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	s.removeObject(ctx, file)
	return nil
}

func (s *DocumentService) removeObject(ctx context.Context, file *entity.File) {
	if s.store == nil {
		return
	}
	if err := s.store.Delete(ctx, file.Path); err != nil {
		s.logger.Error("Failed to delete stored object",
			zap.String("file_id", file.ID.String()),
			zap.String("path", file.Path),
			zap.Error(err),
		)
	}
}

// currentAvatar returns the avatar file the user points at, or nil when there is none.
func currentAvatar(tx *gorm.DB, userID uuid.UUID) (*entity.File, error) {
	var user entity.UserMetadata
	err := tx.Select("id", "avatar_file_id").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.AvatarFileID == nil {
		return nil, nil
	}

	var file entity.File
	err = tx.First(&file, "id = ? AND type = ?", *user.AvatarFileID, entity.FileTypeAvatar).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (s *DocumentService) get(ctx context.Context, fileID uuid.UUID) (*entity.File, error) {
	var file entity.File
	if err := s.db.WithContext(ctx).First(&file, "id = ?", fileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return &file, nil
}

// SanitizeFileName makes a client-supplied name safe to embed in an object path.
func SanitizeFileName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	sanitized := strings.Trim(b.String(), "_.-")
	if len(sanitized) > maxObjectNameLength {
		sanitized = strings.TrimRight(sanitized[:maxObjectNameLength], "_.-")
	}
	if sanitized == "" {
		return "file"
	}
	return sanitized
}

func normalizeViewers(viewers []string, owner uuid.UUID) ([]string, error) {
	result := make([]string, 0, len(viewers))
	seen := make(map[uuid.UUID]bool, len(viewers))
	for _, v := range viewers {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, validationf("viewer %q is not a valid user id", v)
		}
		if id == owner || seen[id] {
			continue
		}
		seen[id] = true
		result = append(result, id.String())
	}
	return result, nil
}

func normalizeFolderPath(path []string) []string {
	result := make([]string, 0, len(path))
	for _, segment := range path {
		segment = strings.Trim(strings.TrimSpace(segment), "/")
		if segment != "" {
			result = append(result, segment)
		}
	}
	return result
}
