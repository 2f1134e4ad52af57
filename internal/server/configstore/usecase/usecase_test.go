package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alwanly/service-refresh-watcher/internal/models"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/dto"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/repository"
)

type mockRepository struct {
	revisions []models.Revision
	prefix    string
	err       error
}

func (m *mockRepository) PutSetting(ctx context.Context, key, label, value, contentType string) (*models.Setting, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Setting{Key: key, Label: label, Value: value, ETag: "etag-1"}, nil
}

func (m *mockRepository) GetSetting(ctx context.Context, key, label string) (*models.Setting, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Setting{Key: key, Label: label, Value: "v", ETag: "etag-1"}, nil
}

func (m *mockRepository) DeleteSetting(ctx context.Context, key, label string) error {
	return m.err
}

func (m *mockRepository) ListRevisions(ctx context.Context, keyPrefix string) ([]models.Revision, error) {
	m.prefix = keyPrefix
	if m.err != nil {
		return nil, m.err
	}
	return append([]models.Revision(nil), m.revisions...), nil
}

func TestListRevisionsFilters(t *testing.T) {
	repo := &mockRepository{revisions: []models.Revision{
		{Key: "/application/a", ETag: "1"},
		{Key: "/application/a", Label: "prod", ETag: "2"},
		{Key: "/application/b", ETag: "3"},
	}}
	uc := NewUseCase(UseCase{Repo: repo})

	res := uc.ListRevisions(context.Background(), &dto.ListRevisionsQuery{Key: "/application/a", Label: `\0`})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "/application/a", repo.prefix)
	assert.Equal(t, []models.Revision{{Key: "/application/a", ETag: "1"}}, res.Data.(dto.RevisionsResponse).Items)

	res = uc.ListRevisions(context.Background(), &dto.ListRevisionsQuery{Key: "/application/*"})
	assert.Equal(t, "/application/", repo.prefix)
	assert.Len(t, res.Data.(dto.RevisionsResponse).Items, 3)

	uc.ListRevisions(context.Background(), &dto.ListRevisionsQuery{Key: "/a/x,/b/*"})
	assert.Empty(t, repo.prefix)
}

func TestUseCaseErrors(t *testing.T) {
	uc := NewUseCase(UseCase{Repo: &mockRepository{err: repository.ErrNotFound}})
	assert.Equal(t, http.StatusNotFound, uc.GetSetting(context.Background(), "k", "").Code)
	assert.Equal(t, http.StatusNotFound, uc.DeleteSetting(context.Background(), "k", "").Code)

	uc = NewUseCase(UseCase{Repo: &mockRepository{err: errors.New("disk full")}})
	assert.Equal(t, http.StatusInternalServerError, uc.PutSetting(context.Background(), "k", "", &dto.PutSettingRequest{Value: "v"}).Code)
	assert.Equal(t, http.StatusInternalServerError, uc.ListRevisions(context.Background(), &dto.ListRevisionsQuery{}).Code)
}

func TestPutSettingSetsETag(t *testing.T) {
	uc := NewUseCase(UseCase{Repo: &mockRepository{}})
	res := uc.PutSetting(context.Background(), "k", "", &dto.PutSettingRequest{Value: "v"})
	assert.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "etag-1", res.ETag)
}

func TestLiteralPrefix(t *testing.T) {
	assert.Equal(t, "", literalPrefix(""))
	assert.Equal(t, "", literalPrefix("*"))
	assert.Equal(t, "/app/", literalPrefix("/app/*"))
	assert.Equal(t, "/app/key", literalPrefix("/app/key"))
	assert.Equal(t, "", literalPrefix("/a,/b"))
}
