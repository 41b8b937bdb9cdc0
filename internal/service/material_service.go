package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efvillarin/sis-api/internal/models"
	appErrors "github.com/efvillarin/sis-api/pkg/errors"
	"github.com/efvillarin/sis-api/pkg/storage"
)

type materialRepository interface {
	List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	FindByPublicID(ctx context.Context, publicID string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
	Update(ctx context.Context, material *models.Material) error
	Delete(ctx context.Context, id string) error
}

type materialSubjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// UploadMaterialInput describes an upload request. The file content arrives
// separately as a stream so handlers never buffer whole uploads in memory.
type UploadMaterialInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	SubjectID   *string `json:"subject_id"`
	GradeLevel  int     `json:"grade_level" validate:"required,min=7,max=10"`
	Filename    string  `json:"filename" validate:"required"`
	MIMEType    string  `json:"mime_type" validate:"required"`
	SizeBytes   int64   `json:"size_bytes" validate:"required,min=1"`
}

// MaterialDownload is the resolved content of a signed download token.
type MaterialDownload struct {
	Material *models.Material
	File     *os.File
}

// MaterialService stores learning materials on the local filesystem and issues
// signed, expiring download links for them.
type MaterialService struct {
	repo         materialRepository
	subjects     materialSubjectReader
	store        *storage.LocalStorage
	signer       *storage.SignedURLSigner
	maxSizeBytes int64
	allowedMIME  map[string]struct{}
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(
	repo materialRepository,
	subjects materialSubjectReader,
	store *storage.LocalStorage,
	signer *storage.SignedURLSigner,
	maxSizeBytes int64,
	allowedMIMETypes []string,
	validate *validator.Validate,
	logger *zap.Logger,
) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxSizeBytes <= 0 {
		maxSizeBytes = 25 << 20
	}
	allowed := make(map[string]struct{}, len(allowedMIMETypes))
	for _, mime := range allowedMIMETypes {
		allowed[strings.ToLower(strings.TrimSpace(mime))] = struct{}{}
	}
	return &MaterialService{
		repo:         repo,
		subjects:     subjects,
		store:        store,
		signer:       signer,
		maxSizeBytes: maxSizeBytes,
		allowedMIME:  allowed,
		validator:    validate,
		logger:       logger,
	}
}

// List returns materials matching the filter along with the total count.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) ([]models.Material, int, error) {
	materials, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list materials")
	}
	return materials, total, nil
}

// Get returns a single material.
func (s *MaterialService) Get(ctx context.Context, id string) (*models.Material, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch material")
	}
	return material, nil
}

// Upload validates and stores an uploaded file, then records its metadata.
func (s *MaterialService) Upload(ctx context.Context, uploaderID string, input UploadMaterialInput, content io.Reader) (*models.Material, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid upload")
	}
	if input.SizeBytes > s.maxSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge,
			fmt.Sprintf("file exceeds the %d MB limit", s.maxSizeBytes>>20))
	}
	mime := strings.ToLower(strings.TrimSpace(input.MIMEType))
	if _, ok := s.allowedMIME[mime]; len(s.allowedMIME) > 0 && !ok {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia,
			fmt.Sprintf("file type %q is not allowed", mime))
	}
	if input.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *input.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
		}
	}

	publicID := uuid.New().String()
	relPath := filepath.Join("materials", publicID+safeExtension(input.Filename))

	// Refuse anything past the declared size so a lying client cannot fill the disk.
	limited := io.LimitReader(content, input.SizeBytes+1)
	stored, err := s.store.SaveStream(relPath, limited)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	material := &models.Material{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		SubjectID:   input.SubjectID,
		GradeLevel:  input.GradeLevel,
		UploaderID:  uploaderID,
		FilePath:    stored,
		PublicID:    publicID,
		MIMEType:    mime,
		SizeBytes:   input.SizeBytes,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		if removeErr := s.store.Delete(stored); removeErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("path", stored), zap.Error(removeErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record material")
	}

	s.logger.Info("material uploaded",
		zap.String("material_id", material.ID),
		zap.String("uploader_id", uploaderID),
		zap.Int64("size_bytes", material.SizeBytes))
	return material, nil
}

// DownloadLink issues a signed, expiring token for a material's file.
func (s *MaterialService) DownloadLink(ctx context.Context, id string) (token string, expiresAt time.Time, err error) {
	material, err := s.Get(ctx, id)
	if err != nil {
		return "", time.Time{}, err
	}
	token, expiresAt, err = s.signer.Generate(material.PublicID, material.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	return token, expiresAt, nil
}

// ResolveDownload validates a signed token and opens the referenced file.
// The caller owns the returned file handle.
func (s *MaterialService) ResolveDownload(ctx context.Context, token string) (*MaterialDownload, error) {
	publicID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "download link is invalid or expired")
	}
	material, err := s.repo.FindByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch material")
	}
	// The token's embedded path must still match the record; tokens issued
	// before a re-upload stop working.
	if material.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "download link no longer valid")
	}
	file, err := s.store.Open(material.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "stored file is missing")
	}
	return &MaterialDownload{Material: material, File: file}, nil
}

// Delete removes a material and its stored file. Uploader or admin only.
func (s *MaterialService) Delete(ctx context.Context, id, requesterID string, isAdmin bool) error {
	material, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !isAdmin && material.UploaderID != requesterID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the uploader or an admin can delete a material")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	if err := s.store.Delete(material.FilePath); err != nil {
		s.logger.Warn("failed to remove stored file", zap.String("path", material.FilePath), zap.Error(err))
	}
	return nil
}

func safeExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
