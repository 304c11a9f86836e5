package supabase

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewStorageClient reuses the storage API client of an initialised Supabase client.
func NewStorageClient(c *Client) *StorageClient {
	return &StorageClient{
		client:  c.Supabase.Storage,
		bucket:  c.Config.Supabase.Bucket,
		baseURL: strings.TrimSuffix(c.Config.Supabase.URL, "/"),
	}
}

// ObjectPath lays out artifacts as users/{user_id}/projects/{project_id}/{filename}.
func ObjectPath(userID, projectID, filename string) string {
	return fmt.Sprintf("users/%s/projects/%s/%s", userID, projectID, filename)
}

func ProjectPrefix(userID, projectID string) string {
	return fmt.Sprintf("users/%s/projects/%s/", userID, projectID)
}

// UploadFile stores data at storagePath and returns its public URL.
func (s *StorageClient) UploadFile(storagePath, contentType string, data []byte) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return PublicURL(s.baseURL, s.bucket, storagePath)
}

func PublicURL(baseURL, bucket, storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", baseURL, bucket, storagePath)
}

// PathFromPublicURL reverses GetPublicURL for objects in this bucket.
func (s *StorageClient) PathFromPublicURL(publicURL string) (string, bool) {
	return PathFromPublicURL(s.baseURL, s.bucket, publicURL)
}

func PathFromPublicURL(baseURL, bucket, publicURL string) (string, bool) {
	prefix := PublicURL(baseURL, bucket, "")
	if !strings.HasPrefix(publicURL, prefix) {
		return "", false
	}
	path := strings.TrimPrefix(publicURL, prefix)
	return path, path != ""
}

func (s *StorageClient) DownloadFile(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}

	return data, nil
}

func (s *StorageClient) DeleteProjectFiles(userID, projectID string) error {
	prefix := ProjectPrefix(userID, projectID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
		Limit: 1000,
	})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}

	if len(files) == 0 {
		return nil
	}

	filePaths := make([]string, len(files))
	for i, file := range files {
		filePaths[i] = prefix + file.Name
	}
	if _, err := s.client.RemoveFile(s.bucket, filePaths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}

	return nil
}
