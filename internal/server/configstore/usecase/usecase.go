package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Alwanly/service-refresh-watcher/internal/revision"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/dto"
	"github.com/Alwanly/service-refresh-watcher/internal/server/configstore/repository"
	"github.com/Alwanly/service-refresh-watcher/pkg/logger"
	"github.com/Alwanly/service-refresh-watcher/pkg/wrapper"
)

type UseCase struct {
	Repo   repository.IRepository
	Logger *logger.CanonicalLogger
}

type UseCaseInterface interface {
	PutSetting(ctx context.Context, key, label string, req *dto.PutSettingRequest) wrapper.JSONResult
	GetSetting(ctx context.Context, key, label string) wrapper.JSONResult
	DeleteSetting(ctx context.Context, key, label string) wrapper.JSONResult
	ListRevisions(ctx context.Context, query *dto.ListRevisionsQuery) wrapper.JSONResult
}

func NewUseCase(uc UseCase) *UseCase {
	if uc.Logger == nil {
		uc.Logger = logger.NewNop()
	}
	return &uc
}

func (uc *UseCase) PutSetting(ctx context.Context, key, label string, req *dto.PutSettingRequest) wrapper.JSONResult {
	setting, err := uc.Repo.PutSetting(ctx, key, label, req.Value, req.ContentType)
	if err != nil {
		logger.AddToContext(ctx, logger.Err(err))
		uc.Logger.WithError(err).Error("failed to put setting", logger.String(logger.FieldKey, key))
		return wrapper.ResponseFailed(http.StatusInternalServerError, "failed to store setting", nil)
	}

	logger.AddToContext(ctx, logger.String(logger.FieldETag, setting.ETag))
	return wrapper.ResponseSuccess(http.StatusOK, dto.NewSettingResponse(*setting)).WithETag(setting.ETag)
}

func (uc *UseCase) GetSetting(ctx context.Context, key, label string) wrapper.JSONResult {
	setting, err := uc.Repo.GetSetting(ctx, key, label)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return wrapper.ResponseFailed(http.StatusNotFound, "setting not found", nil)
		}
		logger.AddToContext(ctx, logger.Err(err))
		return wrapper.ResponseFailed(http.StatusInternalServerError, "failed to read setting", nil)
	}
	return wrapper.ResponseSuccess(http.StatusOK, dto.NewSettingResponse(*setting)).WithETag(setting.ETag)
}

func (uc *UseCase) DeleteSetting(ctx context.Context, key, label string) wrapper.JSONResult {
	if err := uc.Repo.DeleteSetting(ctx, key, label); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return wrapper.ResponseFailed(http.StatusNotFound, "setting not found", nil)
		}
		logger.AddToContext(ctx, logger.Err(err))
		uc.Logger.WithError(err).Error("failed to delete setting", logger.String(logger.FieldKey, key))
		return wrapper.ResponseFailed(http.StatusInternalServerError, "failed to delete setting", nil)
	}
	return wrapper.ResponseSuccess(http.StatusNoContent, nil)
}

// ListRevisions returns the revisions matching the key and label filters of query.
func (uc *UseCase) ListRevisions(ctx context.Context, query *dto.ListRevisionsQuery) wrapper.JSONResult {
	keyFilter := strings.TrimSpace(query.Key)
	labelFilter := strings.TrimSpace(query.Label)
	logger.AddToContext(ctx,
		logger.String(logger.FieldKeyFilter, keyFilter),
		logger.String(logger.FieldLabelFilter, labelFilter),
	)

	revisions, err := uc.Repo.ListRevisions(ctx, literalPrefix(keyFilter))
	if err != nil {
		logger.AddToContext(ctx, logger.Err(err))
		uc.Logger.WithError(err).Error("failed to list revisions")
		return wrapper.ResponseFailed(http.StatusInternalServerError, "failed to list revisions", nil)
	}

	m := revision.NewMatcher(keyFilter, labelFilter)
	items := revisions[:0]
	for _, rev := range revisions {
		if m.Match(rev.Key, rev.Label) {
			items = append(items, rev)
		}
	}

	logger.AddToContext(ctx, logger.Int("revisions", len(items)))
	return wrapper.ResponseSuccess(http.StatusOK, dto.RevisionsResponse{Items: items})
}

// literalPrefix returns the part of a single-pattern filter before its first wildcard.
// Lists of patterns have no common prefix.
func literalPrefix(filter string) string {
	if filter == "" || strings.Contains(filter, ",") {
		return ""
	}
	if i := strings.IndexAny(filter, `*?[{\`); i >= 0 {
		return filter[:i]
	}
	return filter
}
