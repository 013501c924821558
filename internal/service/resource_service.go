package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/gcek-placements/placement-portal/internal/models"
	"github.com/gcek-placements/placement-portal/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// maxResourceSize caps uploads at 25 MiB.
const maxResourceSize = 25 << 20

type ResourceService interface {
	Upload(ctx context.Context, uploadedBy, title, fileName, contentType string, content []byte) (*models.Resource, error)
	Download(ctx context.Context, id string) (*models.Resource, []byte, error)
	List(ctx context.Context, page, limit int) (*models.ResourcesResponse, error)
	Delete(ctx context.Context, id string) error
}

type resourceService struct {
	resourceRepo repository.ResourceRepository
	storage      repository.StorageRepository
	logger       zerolog.Logger
	now          func() time.Time
}

func NewResourceService(resourceRepo repository.ResourceRepository, storage repository.StorageRepository, logger zerolog.Logger) ResourceService {
	return &resourceService{
		resourceRepo: resourceRepo,
		storage:      storage,
		logger:       logger,
		now:          time.Now,
	}
}

// Upload stores the bytes in object storage and the metadata row in Postgres.
// Identical content is deduplicated by hash: the existing row is returned and
// nothing is written.
func (s *resourceService) Upload(ctx context.Context, uploadedBy, title, fileName, contentType string, content []byte) (*models.Resource, error) {
	var issues []string
	if strings.TrimSpace(title) == "" {
		issues = append(issues, "title is required")
	}
	if strings.TrimSpace(fileName) == "" {
		issues = append(issues, "file name is required")
	}
	if len(content) == 0 {
		issues = append(issues, "file is empty")
	}
	if len(content) > maxResourceSize {
		issues = append(issues, "file exceeds the 25 MiB limit")
	}
	if len(issues) > 0 {
		return nil, NewValidationError(issues...)
	}

	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	existing, err := s.resourceRepo.GetByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to check for duplicate resource: %w", err)
	}
	if existing != nil {
		s.logger.Info().
			Str("resource_id", existing.ID).
			Str("hash", hash).
			Msg("Duplicate resource upload, returning existing")
		return existing, nil
	}

	resource := &models.Resource{
		ID:          uuid.New().String(),
		Title:       strings.TrimSpace(title),
		FileName:    fileName,
		ObjectKey:   fmt.Sprintf("resources/%s/%s", hash[:2], hash),
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		Hash:        hash,
		UploadedBy:  uploadedBy,
		CreatedAt:   s.now(),
	}

	if err := s.storage.Upload(ctx, resource.ObjectKey, content, contentType); err != nil {
		return nil, fmt.Errorf("failed to upload resource: %w", err)
	}

	if err := s.resourceRepo.Create(ctx, resource); err != nil {
		// Roll the object back so storage does not accumulate orphans.
		if delErr := s.storage.Delete(ctx, resource.ObjectKey); delErr != nil {
			s.logger.Error().Err(delErr).
				Str("object_key", resource.ObjectKey).
				Msg("Failed to remove object after metadata insert failure")
		}
		return nil, fmt.Errorf("failed to store resource metadata: %w", err)
	}

	s.logger.Info().
		Str("resource_id", resource.ID).
		Str("file_name", fileName).
		Int64("size_bytes", resource.SizeBytes).
		Msg("Resource uploaded")

	return resource, nil
}

func (s *resourceService) Download(ctx context.Context, id string) (*models.Resource, []byte, error) {
	resource, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return nil, nil, ErrResourceNotFound
	}

	content, err := s.storage.Download(ctx, resource.ObjectKey)
	if err != nil {
		if err == repository.ErrObjectNotFound {
			s.logger.Error().
				Str("resource_id", id).
				Str("object_key", resource.ObjectKey).
				Msg("Resource metadata exists but object is missing")
			return nil, nil, ErrResourceNotFound
		}
		return nil, nil, fmt.Errorf("failed to download resource: %w", err)
	}

	return resource, content, nil
}

func (s *resourceService) List(ctx context.Context, page, limit int) (*models.ResourcesResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	resources, total, err := s.resourceRepo.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}

	return &models.ResourcesResponse{
		Resources: resources,
		Total:     total,
		Page:      page,
		Limit:     limit,
	}, nil
}

func (s *resourceService) Delete(ctx context.Context, id string) error {
	resource, err := s.resourceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load resource: %w", err)
	}
	if resource == nil {
		return ErrResourceNotFound
	}

	if err := s.resourceRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete resource: %w", err)
	}

	if err := s.storage.Delete(ctx, resource.ObjectKey); err != nil {
		s.logger.Error().Err(err).
			Str("object_key", resource.ObjectKey).
			Msg("Failed to remove object for deleted resource")
	}

	s.logger.Info().Str("resource_id", id).Msg("Resource deleted")

	return nil
}
