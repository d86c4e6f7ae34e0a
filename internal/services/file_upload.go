package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/models"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/repository"
	"github.com/GovTech-CSG/govtech-csg-xcg-securefileupload/internal/upload"
)

// FileInput represents a file input for upload session creation
type FileInput struct {
	Filename    string `json:"filename"`
	MimeType    string `json:"mimeType"`
	FileSize    int64  `json:"fileSize"`
	FolderPath  string `json:"folderPath"`
	ContentHash string `json:"contentHash"`
}

// CreateUploadSessionRequest represents a request to create an upload session
type CreateUploadSessionRequest struct {
	UserID     uuid.UUID   `json:"userId"`
	Files      []FileInput `json:"files"`
	TotalBytes int64       `json:"totalBytes"`
}

// CreateUploadSessionResponse represents the response from creating an upload session
type CreateUploadSessionResponse struct {
	SessionToken   uuid.UUID `json:"sessionToken"`
	TotalFiles     int       `json:"totalFiles"`
	TotalBytes     int64     `json:"totalBytes"`
	DuplicateFiles int       `json:"duplicateFiles"`
}

// UploadFileRequest represents a request to upload a file. Inspected is the
// already-ingested, already-inspected file produced by the upload pipeline
// middleware — by the time it reaches this service, detection, validation,
// evidence-fused MIME guessing and (optionally) sanitization have all run,
// and a blocked file never gets this far.
type UploadFileRequest struct {
	UserID          uuid.UUID            `json:"userId"`
	SessionToken    *uuid.UUID           `json:"sessionToken,omitempty"`
	UserFilename    string               `json:"userFilename"`
	FolderPath      string               `json:"folderPath"`
	Inspected       *upload.UploadedFile `json:"-"`
	OwnerID         *uuid.UUID           `json:"ownerId,omitempty"`
	PrimaryGroupID  *uuid.UUID           `json:"primaryGroupId,omitempty"`
	FilePermissions int                  `json:"filePermissions"`
}

// UploadFileResponse represents the response from uploading a file
type UploadFileResponse struct {
	FileID       uuid.UUID `json:"fileId"`
	UserFileID   uuid.UUID `json:"userFileId"`
	IsExisting   bool      `json:"isExisting"`
	SavingsBytes int64     `json:"savingsBytes"`
	Warnings     []string  `json:"warnings,omitempty"`
}

// UploadProgressResponse represents upload progress information
type UploadProgressResponse struct {
	SessionToken   uuid.UUID `json:"sessionToken"`
	TotalFiles     int       `json:"totalFiles"`
	CompletedFiles int       `json:"completedFiles"`
	TotalBytes     int64     `json:"totalBytes"`
	UploadedBytes  int64     `json:"uploadedBytes"`
	Status         string    `json:"status"`
	Progress       float64   `json:"progress"`
}

// FileUploadService orchestrates file upload with deduplication. Content
// inspection lives upstream in the upload pipeline (internal/upload,
// wired in by middleware.FileUploadInspection) rather than in a service
// method here — see req.Inspected on UploadFile.
type FileUploadService struct {
	fileRepo       *repository.FileRepository
	storageService Storage
	userRepo       *repository.UserRepository
	quotaService   *QuotaService
}

// NewFileUploadService creates a new file upload service
func NewFileUploadService(
	fileRepo *repository.FileRepository,
	storageService Storage,
	userRepo *repository.UserRepository,
	quotaService *QuotaService,
) *FileUploadService {
	return &FileUploadService{
		fileRepo:       fileRepo,
		storageService: storageService,
		userRepo:       userRepo,
		quotaService:   quotaService,
	}
}

// CreateUploadSession creates a new upload session for tracking progress
func (s *FileUploadService) CreateUploadSession(ctx context.Context, req *CreateUploadSessionRequest) (*CreateUploadSessionResponse, error) {
	// Calculate total bytes and detect duplicates
	totalBytes := req.TotalBytes
	duplicateFiles := 0

	for _, fileInput := range req.Files {
		// Check if file already exists
		existing, _ := s.fileRepo.GetByContentHash(ctx, fileInput.ContentHash)
		if existing != nil {
			duplicateFiles++
		}
	}

	session := &models.UploadSession{
		UserID:     req.UserID,
		TotalFiles: len(req.Files),
		TotalBytes: totalBytes,
		Status:     "active",
	}

	// Generate session token
	sessionToken := uuid.New()

	return &CreateUploadSessionResponse{
		SessionToken:   sessionToken,
		TotalFiles:     session.TotalFiles,
		TotalBytes:     session.TotalBytes,
		DuplicateFiles: duplicateFiles,
	}, nil
}

// UploadFile processes an individual file upload. The inspection pipeline
// (detection, strict/advisory validation, MIME guessing, sanitization) has
// already run in FileUploadInspection middleware by the time this is
// called — a blocked file never reaches here.
func (s *FileUploadService) UploadFile(ctx context.Context, req *UploadFileRequest) (*UploadFileResponse, error) {
	inspected := req.Inspected
	if inspected == nil {
		return nil, fmt.Errorf("upload file: no inspected file attached to request")
	}
	if inspected.Blocked {
		return nil, fmt.Errorf("upload file: inspected file is blocked: %v", inspected.BlockReasons)
	}

	contentHash := inspected.SHA256
	fileSize := int64(len(inspected.Content))
	detectedMimeType := inspected.Detection.GuessedMime

	// 1. Check for existing file (deduplication logic)
	existingFile, err := s.fileRepo.GetByContentHash(ctx, contentHash)

	var file *models.File
	var isExisting bool
	var savingsBytes int64

	if existingFile != nil {
		// File already exists - deduplication saves storage
		file = existingFile
		isExisting = true
		savingsBytes = fileSize
	} else {
		// New content consumes fresh storage, so quota is only checked here —
		// a deduplicated upload never grows a user's usage.
		if s.quotaService != nil {
			if _, err := s.quotaService.CheckQuota(ctx, req.UserID, fileSize); err != nil {
				return nil, fmt.Errorf("quota check failed: %w", err)
			}
		}

		// New file - upload to storage
		storagePath := s.generateStoragePath(contentHash)

		err = s.storageService.UploadFile(ctx, storagePath, bytes.NewReader(inspected.Content),
			fileSize, detectedMimeType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload file to storage: %w", err)
		}

		// Create file record
		file = &models.File{
			ContentHash:      contentHash,
			Filename:         inspected.CurrentName,
			OriginalMimeType: inspected.Declared.ContentType,
			DetectedMimeType: detectedMimeType,
			FileSize:         fileSize,
			StoragePath:      storagePath,
			OwnerID:          req.OwnerID,
			PrimaryGroupID:   req.PrimaryGroupID,
			FilePermissions:  req.FilePermissions,
		}

		file, err = s.fileRepo.Create(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to create file record: %w", err)
		}

		if s.quotaService != nil {
			if err := s.quotaService.UpdateQuotaUsage(ctx, req.UserID, fileSize); err != nil {
				logrus.WithError(err).Warn("upload: failed to update quota usage")
			}
		}
	}

	// 3. Create user file reference
	userFile := &models.UserFile{
		UserID:       req.UserID,
		FileID:       file.ID,
		UserFilename: req.UserFilename,
		FolderPath:   req.FolderPath,
	}

	userFile, err = s.fileRepo.CreateUserFile(ctx, userFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create user file reference: %w", err)
	}

	return &UploadFileResponse{
		FileID:       file.ID,
		UserFileID:   userFile.ID,
		IsExisting:   isExisting,
		SavingsBytes: savingsBytes,
		Warnings:     inspected.Warnings,
	}, nil
}

// CompleteUploadSession marks an upload session as complete
func (s *FileUploadService) CompleteUploadSession(ctx context.Context, sessionToken, userID uuid.UUID) error {
	// Implementation would mark session as complete in database
	// For now, just return success
	return nil
}

// GetUploadProgress returns the progress of an upload session
func (s *FileUploadService) GetUploadProgress(ctx context.Context, sessionToken, userID uuid.UUID) (*UploadProgressResponse, error) {
	// Implementation would fetch progress from database
	// For now, return a placeholder
	return &UploadProgressResponse{
		SessionToken:   sessionToken,
		TotalFiles:     0,
		CompletedFiles: 0,
		TotalBytes:     0,
		UploadedBytes:  0,
		Status:         "completed",
		Progress:       100.0,
	}, nil
}

// generateStoragePath generates a hierarchical path for file storage
func (s *FileUploadService) generateStoragePath(contentHash string) string {
	// Create hierarchical path: files/ab/cd/abcd1234567890...
	return fmt.Sprintf("files/%s/%s/%s",
		contentHash[:2],
		contentHash[2:4],
		contentHash)
}
