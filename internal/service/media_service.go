package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/tradehq/backflow/internal/models"
	"github.com/tradehq/backflow/internal/repository"
)

type MediaService interface {
	Upload(ctx context.Context, tenantID, intent string, file *multipart.FileHeader) (int64, error)
	Get(ctx context.Context, tenantID string, id int64) (*models.MediaAsset, error)
	List(ctx context.Context, tenantID string) ([]*models.MediaAsset, error)
	Remove(ctx context.Context, tenantID string, id int64) error
}

type mediaService struct {
	ma repository.MediaAssetRepository
	r2 *R2Service
}

func NewMediaService(ma repository.MediaAssetRepository, r2 *R2Service) MediaService {
	return &mediaService{
		ma: ma,
		r2: r2,
	}
}

// allowedMediaTypes restricts uploads to what the publishing channels can
// actually carry.
var allowedMediaTypes = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "mp4": {}, "mov": {},
}

func (s *mediaService) Upload(ctx context.Context, tenantID, intent string, file *multipart.FileHeader) (int64, error) {
	fileContent, err := file.Open()
	if err != nil {
		return 0, fmt.Errorf("error opening file: %w", err)
	}
	defer fileContent.Close()

	fileBytes, err := io.ReadAll(fileContent)
	if err != nil {
		return 0, fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return 0, validationf("unsupported file type")
	}
	if _, ok := allowedMediaTypes[fileType.Extension]; !ok {
		return 0, validationf("file type %s is not allowed", fileType.Extension)
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	if err := s.r2.Upload(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return 0, fmt.Errorf("error uploading file: %w", err)
	}

	asset := &models.MediaAsset{
		TenantID: tenantID,
		FileName: key,
		FileType: fileType.MIME.Value,
		FileSize: int64(len(fileBytes)),
		FileURL:  s.r2.PublicURL(key),
		Intent:   intent,
	}

	assetID, err := s.ma.Create(ctx, asset)
	if err != nil {
		return 0, err
	}

	return assetID, nil
}

func (s *mediaService) Get(ctx context.Context, tenantID string, id int64) (*models.MediaAsset, error) {
	asset, err := s.ma.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, ErrNotFound
	}
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, tenantID string) ([]*models.MediaAsset, error) {
	return s.ma.ListByTenant(ctx, tenantID)
}

func (s *mediaService) Remove(ctx context.Context, tenantID string, id int64) error {
	asset, err := s.ma.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if asset == nil {
		return ErrNotFound
	}

	if err := s.r2.Delete(ctx, asset.FileName); err != nil {
		// Keep the row if the object can't be removed so the asset stays
		// discoverable for a retry.
		return err
	}

	return s.ma.Remove(ctx, tenantID, id)
}
