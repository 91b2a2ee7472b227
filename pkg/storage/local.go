package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalArchive implements Archive on the local filesystem. Layout is one
// directory per user with a .meta sidecar directory of JSON metadata files.
type LocalArchive struct {
	basePath string
}

func NewLocalArchive(basePath string) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &LocalArchive{basePath: basePath}, nil
}

func (a *LocalArchive) Save(_ context.Context, userID uuid.UUID, filename string, r io.Reader) (*StoredFile, error) {
	fileID := uuid.New()

	userDir := filepath.Join(a.basePath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("create user directory: %w", err)
	}

	storedName := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(filename))
	path := filepath.Join(userDir, storedName)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create archive file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write archive file: %w", err)
	}

	stored := &StoredFile{
		ID:         fileID,
		Name:       filename,
		Size:       size,
		Path:       storedName,
		UploadedAt: time.Now(),
	}
	if err := a.writeMeta(userID, stored); err != nil {
		os.Remove(path)
		return nil, err
	}

	return stored, nil
}

func (a *LocalArchive) Open(ctx context.Context, userID, fileID uuid.UUID) (io.ReadCloser, *StoredFile, error) {
	stored, err := a.readMeta(userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(a.basePath, userID.String(), stored.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("open archived file: %w", err)
	}
	return f, stored, nil
}

func (a *LocalArchive) List(_ context.Context, userID uuid.UUID) ([]*StoredFile, error) {
	metaDir := filepath.Join(a.basePath, userID.String(), ".meta")
	entries, err := os.ReadDir(metaDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list archive metadata: %w", err)
	}

	var files []*StoredFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		fileID, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		stored, err := a.readMeta(userID, fileID)
		if err != nil {
			continue
		}
		files = append(files, stored)
	}
	return files, nil
}

func (a *LocalArchive) Remove(_ context.Context, userID, fileID uuid.UUID) error {
	stored, err := a.readMeta(userID, fileID)
	if err != nil {
		return err
	}

	path := filepath.Join(a.basePath, userID.String(), stored.Path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove archived file: %w", err)
	}
	return os.Remove(a.metaPath(userID, fileID))
}

func (a *LocalArchive) metaPath(userID, fileID uuid.UUID) string {
	return filepath.Join(a.basePath, userID.String(), ".meta", fileID.String()+".json")
}

func (a *LocalArchive) writeMeta(userID uuid.UUID, stored *StoredFile) error {
	metaDir := filepath.Join(a.basePath, userID.String(), ".meta")
	if err := os.MkdirAll(metaDir, 0o755); err != nil {
		return fmt.Errorf("create metadata directory: %w", err)
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal archive metadata: %w", err)
	}
	if err := os.WriteFile(a.metaPath(userID, stored.ID), data, 0o644); err != nil {
		return fmt.Errorf("write archive metadata: %w", err)
	}
	return nil
}

func (a *LocalArchive) readMeta(userID, fileID uuid.UUID) (*StoredFile, error) {
	data, err := os.ReadFile(a.metaPath(userID, fileID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("archived file not found: %s", fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("read archive metadata: %w", err)
	}

	var stored StoredFile
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse archive metadata: %w", err)
	}
	return &stored, nil
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_",
		"*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	name = replacer.Replace(name)
	if name == "" {
		name = "statement"
	}
	return name
}
