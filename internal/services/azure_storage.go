package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/service"
	"github.com/sirupsen/logrus"
)

// AzureStorageService stores files in an Azure Blob Storage container. It
// satisfies the same shape as StorageService so FileUploadService can use
// either backend interchangeably (spec.md's storage backend is an external
// collaborator; this is the concrete adapter for it).
type AzureStorageService struct {
	client        *azblob.Client
	containerName string
}

// NewAzureStorageService builds a client from an account key + endpoint —
// the Azurite-compatible connection string shape the teacher's config
// already carries (AzureStorageAccount/Key/Container/Endpoint).
func NewAzureStorageService(accountName, accountKey, containerName, endpoint string) (*AzureStorageService, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("azure storage: build credential: %w", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(endpoint, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("azure storage: build client: %w", err)
	}

	svc := &AzureStorageService{client: client, containerName: containerName}

	if _, err := client.CreateContainer(context.Background(), containerName, nil); err != nil {
		logrus.WithError(err).Debug("azure storage: container already exists or could not be created")
	}

	return svc, nil
}

// UploadFile uploads content to the configured container under storagePath.
func (s *AzureStorageService) UploadFile(ctx context.Context, storagePath string, content io.Reader, contentLength int64, contentType string) error {
	buf, err := io.ReadAll(content)
	if err != nil {
		return fmt.Errorf("azure storage: read content: %w", err)
	}

	_, err = s.client.UploadBuffer(ctx, s.containerName, storagePath, buf, &azblob.UploadBufferOptions{
		HTTPHeaders: &service.BlobHTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("azure storage: upload blob: %w", err)
	}

	return nil
}

// DownloadFile streams a blob's content back to the caller.
func (s *AzureStorageService) DownloadFile(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.containerName, storagePath, nil)
	if err != nil {
		return nil, fmt.Errorf("azure storage: download blob: %w", err)
	}
	return resp.Body, nil
}

// DeleteFile removes a blob.
func (s *AzureStorageService) DeleteFile(ctx context.Context, storagePath string) error {
	_, err := s.client.DeleteBlob(ctx, s.containerName, storagePath, nil)
	if err != nil {
		return fmt.Errorf("azure storage: delete blob: %w", err)
	}
	return nil
}

// GenerateDownloadURL issues a short-lived SAS URL for a blob.
func (s *AzureStorageService) GenerateDownloadURL(ctx context.Context, storagePath string, expiry time.Duration) (string, error) {
	permissions := sasPermissions{read: true}
	url, err := s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(storagePath).
		GetSASURL(permissions.blobPermissions(), time.Now().Add(expiry), nil)
	if err != nil {
		return "", fmt.Errorf("azure storage: generate SAS URL: %w", err)
	}
	return url, nil
}

// GetFileInfo retrieves blob metadata.
func (s *AzureStorageService) GetFileInfo(ctx context.Context, storagePath string) (*FileInfo, error) {
	props, err := s.client.ServiceClient().NewContainerClient(s.containerName).NewBlobClient(storagePath).
		GetProperties(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("azure storage: get properties: %w", err)
	}

	info := &FileInfo{}
	if props.ContentLength != nil {
		info.Size = *props.ContentLength
	}
	if props.ContentType != nil {
		info.ContentType = *props.ContentType
	}
	if props.LastModified != nil {
		info.LastModified = *props.LastModified
	}
	if props.ETag != nil {
		info.ETag = string(*props.ETag)
	}

	return info, nil
}

type sasPermissions struct{ read bool }

func (p sasPermissions) blobPermissions() azblob.SASPermissions {
	return azblob.SASPermissions{Read: p.read}
}
