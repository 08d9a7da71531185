package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kerem-kaynak/hrportal/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var uploadTime = time.Date(2024, time.May, 2, 10, 0, 0, 0, time.UTC)

func newDocumentService(t *testing.T) (*DocumentService, *fakeStore, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStore()
	return NewDocumentService(db, testLogger, store, fixedClock(uploadTime)), store, db
}

func TestUploadStoresObjectAndRow(t *testing.T) {
	svc, store, db := newDocumentService(t)
	owner := createUser(t, db, "Olive", "Owner", false, false)
	viewer := createUser(t, db, "Vic", "Viewer", false, false)

	file, err := svc.Upload(context.Background(), owner.ID, UploadInput{
		FileName:    "Q1 report (final).pdf",
		Viewers:     []string{viewer.ID.String(), owner.ID.String(), viewer.ID.String()},
		FolderPath:  []string{" /reports/ ", "", "2024"},
		Body:        body("%PDF-1.7"),
		Size:        8,
		ContentType: "application/pdf",
	})
	require.NoError(t, err)

	wantPath := fmt.Sprintf("%s/%d-Q1_report_final_.pdf", owner.ID, uploadTime.UnixMilli())
	assert.Equal(t, wantPath, file.Path)
	assert.Equal(t, "test-bucket", file.Bucket)
	assert.Equal(t, entity.FileTypeDocument, file.Type)
	assert.Equal(t, []byte("%PDF-1.7"), store.objects[wantPath])

	meta := file.Metadata.Data()
	assert.Equal(t, "Q1 report (final).pdf", meta.FileName)
	assert.Equal(t, []string{viewer.ID.String()}, meta.Viewers)
	assert.Equal(t, []string{"reports", "2024"}, meta.FolderPath)

	var stored entity.File
	require.NoError(t, db.First(&stored, "id = ?", file.ID).Error)
	assert.Equal(t, wantPath, stored.Path)
}

func TestUploadRemovesObjectWhenRowFails(t *testing.T) {
	svc, store, db := newDocumentService(t)
	owner := createUser(t, db, "Olive", "Owner", false, false)
	require.NoError(t, db.Migrator().DropTable(&entity.File{}))

	_, err := svc.Upload(context.Background(), owner.ID, UploadInput{FileName: "contract.pdf", Body: body("data")})
	require.Error(t, err)

	require.Len(t, store.deleted, 1)
	assert.True(t, strings.HasSuffix(store.deleted[0], "-contract.pdf"))
	assert.Empty(t, store.objects)
}

func TestUploadStopsWhenStoreFails(t *testing.T) {
	svc, store, db := newDocumentService(t)
	owner := createUser(t, db, "Olive", "Owner", false, false)
	store.putErr = errBoom

	_, err := svc.Upload(context.Background(), owner.ID, UploadInput{FileName: "a.txt", Body: body("a")})
	assert.ErrorIs(t, err, errBoom)

	var count int64
	require.NoError(t, db.Model(&entity.File{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadRejectsInvalidViewer(t *testing.T) {
	svc, store, db := newDocumentService(t)
	owner := createUser(t, db, "Olive", "Owner", false, false)

	_, err := svc.Upload(context.Background(), owner.ID, UploadInput{FileName: "a.txt", Body: body("a"), Viewers: []string{"not-a-uuid"}})
	assert.True(t, IsValidation(err))
	assert.Empty(t, store.objects)
}

func TestSignedURLAccess(t *testing.T) {
	svc, store, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)
	viewer := createUser(t, db, "Vic", "Viewer", false, false)
	admin := createUser(t, db, "Ada", "Admin", false, true)
	hr := createUser(t, db, "Harper", "Reyes", true, false)
	stranger := createUser(t, db, "Stan", "Stranger", false, false)

	file, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "payslip.pdf", Body: body("x"), Viewers: []string{viewer.ID.String()}})
	require.NoError(t, err)

	for _, user := range []*entity.UserMetadata{owner, viewer, admin} {
		url, err := svc.SignedURL(ctx, file.ID, user)
		require.NoError(t, err, user.DisplayName())
		assert.Equal(t, "https://signed.example/test-bucket/"+file.Path+"?ttl=60", url)
	}

	for _, user := range []*entity.UserMetadata{stranger, hr} {
		_, err := svc.SignedURL(ctx, file.ID, user)
		assert.ErrorIs(t, err, ErrForbidden, user.DisplayName())
	}

	_, err = svc.SignedURL(ctx, uuid.New(), owner)
	assert.ErrorIs(t, err, ErrNotFound)

	store.bucket = "another-bucket"
	_, err = svc.SignedURL(ctx, file.ID, owner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListVisible(t *testing.T) {
	svc, _, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)
	viewer := createUser(t, db, "Vic", "Viewer", false, false)
	admin := createUser(t, db, "Ada", "Admin", false, true)

	upload := func(name string, folder []string, viewers ...string) {
		_, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: name, FolderPath: folder, Viewers: viewers, Body: body(name)})
		require.NoError(t, err)
	}
	upload("zeta.txt", nil, viewer.ID.String())
	upload("Alpha.txt", nil)
	upload("beta.txt", []string{"contracts"}, viewer.ID.String())

	_, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "me.png", Body: body("png"), Type: entity.FileTypeAvatar})
	require.NoError(t, err)

	ownerView, err := svc.ListVisible(ctx, owner)
	require.NoError(t, err)
	require.Len(t, ownerView, 3)
	assert.Equal(t, "Alpha.txt", ownerView[0].Metadata.Data().FileName)
	assert.Equal(t, "zeta.txt", ownerView[1].Metadata.Data().FileName)
	assert.Equal(t, "beta.txt", ownerView[2].Metadata.Data().FileName)
	assert.True(t, ownerView[0].IsOwner)

	viewerView, err := svc.ListVisible(ctx, viewer)
	require.NoError(t, err)
	require.Len(t, viewerView, 2)
	assert.False(t, viewerView[0].IsOwner)
	assert.Equal(t, "Olive Owner", viewerView[0].OwnerName)

	adminView, err := svc.ListVisible(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, adminView, 3)
}

func TestPermissionsAndSharing(t *testing.T) {
	svc, _, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)
	viewer := createUser(t, db, "Vic", "Viewer", false, false)
	admin := createUser(t, db, "Ada", "Admin", false, true)

	file, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "plan.txt", Body: body("x"), Viewers: []string{viewer.ID.String()}})
	require.NoError(t, err)

	perms, err := svc.Permissions(ctx, file.ID, owner)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, perms.OwnerID)
	require.Len(t, perms.Viewers, 1)
	assert.Equal(t, "Vic Viewer", perms.Viewers[0].Name)
	assert.Equal(t, "VV", perms.Viewers[0].Initials)

	_, err = svc.Permissions(ctx, file.ID, admin)
	require.NoError(t, err)
	_, err = svc.Permissions(ctx, file.ID, viewer)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.UpdateSharing(ctx, file.ID, viewer, SharingInput{Viewers: &[]string{}})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.UpdateSharing(ctx, file.ID, admin, SharingInput{Viewers: &[]string{}})
	assert.ErrorIs(t, err, ErrForbidden)

	renamed := "plan-v2.txt"
	updated, err := svc.UpdateSharing(ctx, file.ID, owner, SharingInput{
		FileName:   &renamed,
		Viewers:    &[]string{},
		FolderPath: &[]string{"plans"},
	})
	require.NoError(t, err)
	meta := updated.Metadata.Data()
	assert.Equal(t, "plan-v2.txt", meta.FileName)
	assert.Empty(t, meta.Viewers)
	assert.Equal(t, []string{"plans"}, meta.FolderPath)

	_, err = svc.SignedURL(ctx, file.ID, viewer)
	assert.ErrorIs(t, err, ErrForbidden)

	empty := " "
	_, err = svc.UpdateSharing(ctx, file.ID, owner, SharingInput{FileName: &empty})
	assert.True(t, IsValidation(err))
}

func TestDeleteDocument(t *testing.T) {
	svc, store, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)
	admin := createUser(t, db, "Ada", "Admin", false, true)

	file, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "old.txt", Body: body("x")})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, file.ID, admin), ErrForbidden)

	store.deleteErr = errBoom
	require.NoError(t, svc.Delete(ctx, file.ID, owner))
	assert.Equal(t, []string{file.Path}, store.deleted)

	_, err = svc.SignedURL(ctx, file.ID, owner)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAvatarUploadAndDelete(t *testing.T) {
	svc, _, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)

	_, err := svc.AvatarURL(ctx, owner.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	avatar, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "me.png", Body: body("png"), ContentType: "image/png", Type: entity.FileTypeAvatar})
	require.NoError(t, err)

	var user entity.UserMetadata
	require.NoError(t, db.First(&user, "id = ?", owner.ID).Error)
	require.NotNil(t, user.AvatarFileID)
	assert.Equal(t, avatar.ID, *user.AvatarFileID)

	url, err := svc.AvatarURL(ctx, owner.ID)
	require.NoError(t, err)
	assert.Contains(t, url, avatar.Path)

	_, err = svc.SignedURL(ctx, avatar.ID, owner)
	assert.ErrorIs(t, err, ErrNotFound, "avatars are not served as documents")

	require.NoError(t, svc.Delete(ctx, avatar.ID, owner))
	var reloaded entity.UserMetadata
	require.NoError(t, db.First(&reloaded, "id = ?", owner.ID).Error)
	assert.Nil(t, reloaded.AvatarFileID)
}

func TestAvatarReplacementRemovesPrevious(t *testing.T) {
	svc, store, db := newDocumentService(t)
	ctx := context.Background()
	owner := createUser(t, db, "Olive", "Owner", false, false)

	first, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "old.png", Body: body("old"), ContentType: "image/png", Type: entity.FileTypeAvatar})
	require.NoError(t, err)
	second, err := svc.Upload(ctx, owner.ID, UploadInput{FileName: "new.png", Body: body("new"), ContentType: "image/png", Type: entity.FileTypeAvatar})
	require.NoError(t, err)

	var user entity.UserMetadata
	require.NoError(t, db.First(&user, "id = ?", owner.ID).Error)
	require.NotNil(t, user.AvatarFileID)
	assert.Equal(t, second.ID, *user.AvatarFileID)

	var count int64
	require.NoError(t, db.Model(&entity.File{}).Where("id = ?", first.ID).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, []string{first.Path}, store.deleted)
	assert.NotContains(t, store.objects, first.Path)
	assert.Contains(t, store.objects, second.Path)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"my report.pdf", "my_report.pdf"},
		{"../../etc/passwd", "etc_passwd"},
		{"naïve résumé.docx", "na_ve_r_sum_.docx"},
		{"   ", "file"},
		{"...", "file"},
		{strings.Repeat("a", 200) + ".txt", strings.Repeat("a", 128)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}
