package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Storage is the backend for claim evidence documents: scanned
// prescriptions, bill PDFs, diagnosis reports.
type Storage interface {
	PresignPut(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (string, error)
	PresignGet(ctx context.Context, objectName string, expiresIn time.Duration) (string, error)
	Put(ctx context.Context, objectName string, reader io.Reader) error
	Get(ctx context.Context, objectName string) (io.ReadCloser, error)
	Delete(ctx context.Context, objectName string) error
}

// LocalStorage keeps evidence documents on the local filesystem
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &LocalStorage{
		baseDir: baseDir,
		baseURL: baseURL,
	}, nil
}

// PresignPut returns the URL a client should PUT the document to. Local
// storage has no token scheme; the URL maps straight to the files route.
func (s *LocalStorage) PresignPut(ctx context.Context, objectName, contentType string, expiresIn time.Duration) (string, error) {
	return fmt.Sprintf("%s/files/%s", s.baseURL, objectName), nil
}

func (s *LocalStorage) PresignGet(ctx context.Context, objectName string, expiresIn time.Duration) (string, error) {
	return fmt.Sprintf("%s/files/%s", s.baseURL, objectName), nil
}

func (s *LocalStorage) Put(ctx context.Context, objectName string, reader io.Reader) error {
	fullPath := filepath.Join(s.baseDir, objectName)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (s *LocalStorage) Get(ctx context.Context, objectName string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.baseDir, objectName))
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, objectName string) error {
	if err := os.Remove(filepath.Join(s.baseDir, objectName)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// EvidenceMetadata describes one uploaded evidence document
type EvidenceMetadata struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	Size   int64  `json:"size"`
	MIME   string `json:"mime"`
	SHA256 string `json:"sha256,omitempty"`
}

// NormalizeEvidence builds metadata from the loosely typed map a client sends
func NormalizeEvidence(file map[string]interface{}) EvidenceMetadata {
	meta := EvidenceMetadata{}

	if name, ok := file["name"].(string); ok {
		meta.Name = name
	}
	if url, ok := file["url"].(string); ok {
		meta.URL = url
	}
	switch size := file["size"].(type) {
	case float64:
		meta.Size = int64(size)
	case int64:
		meta.Size = size
	case int:
		meta.Size = int64(size)
	}
	if mime, ok := file["mime"].(string); ok {
		meta.MIME = mime
	} else if contentType, ok := file["contentType"].(string); ok {
		meta.MIME = contentType
	}
	if sum, ok := file["sha256"].(string); ok {
		meta.SHA256 = sum
	}
	return meta
}

// ValidateEvidence checks that the metadata names a retrievable document
func ValidateEvidence(meta EvidenceMetadata) error {
	if meta.Name == "" {
		return fmt.Errorf("file name is required")
	}
	if meta.URL == "" {
		return fmt.Errorf("file URL is required")
	}
	if meta.Size < 0 {
		return fmt.Errorf("file size must be non-negative")
	}
	return nil
}

// CalculateSHA256 hashes document content for integrity checks
func CalculateSHA256(reader io.Reader) (string, error) {
	hash := sha256.New()
	if _, err := io.Copy(hash, reader); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
