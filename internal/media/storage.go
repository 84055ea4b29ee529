package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/openwitness/witness-backend/internal/pkg/apperror"
)

// Разрешённые типы вложений: изображения и короткие видео.
var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"video/mp4":  true,
	"video/webm": true,
}

const sniffLen = 512

// Attachment — сохранённое вложение. Ref указывается в media свидетельства.
type Attachment struct {
	Ref         string
	ContentType string
	Size        int64
}

// Storage отвечает за файловое хранилище вложений.
type Storage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewStorage создаёт файловое хранилище.
func NewStorage(rootPath string, maxUploadMB int64) (*Storage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("media: не удалось создать каталог %s: %w", rootPath, err)
	}
	return &Storage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// Save проверяет реальный тип по сигнатуре и сохраняет файл под случайным именем.
func (s *Storage) Save(ctx context.Context, r io.Reader) (*Attachment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, apperror.Wrap(err, apperror.ErrCodeBadRequest, "не удалось прочитать файл")
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "файл не может быть пустым")
	}

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return nil, apperror.New(apperror.ErrCodeValidation, "не удалось определить тип файла")
	}
	contentType := kind.MIME.Value
	if !allowedMimeTypes[contentType] {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "неподдерживаемый тип файла (%s)", contentType)
	}

	ref := uuid.NewString() + "." + kind.Extension
	targetPath := filepath.Join(s.rootPath, ref)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("media: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("media: ошибка записи файла: %w", err)
	}
	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.Newf(apperror.ErrCodeValidation, "размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("media: ошибка закрытия файла: %w", err)
	}
	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("media: не удалось переименовать файл: %w", err)
	}

	return &Attachment{Ref: ref, ContentType: contentType, Size: written}, nil
}

// Exists сообщает, есть ли вложение с такой ссылкой.
func (s *Storage) Exists(ref string) bool {
	path, ok := s.resolve(ref)
	if !ok {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Delete удаляет файл из хранилища.
func (s *Storage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, ok := s.resolve(ref)
	if !ok {
		return apperror.New(apperror.ErrCodeValidation, "некорректная ссылка на вложение")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("media: не удалось удалить файл: %w", err)
	}
	return nil
}

func (s *Storage) resolve(ref string) (string, bool) {
	if ref == "" || ref != filepath.Base(ref) || strings.Contains(ref, "..") {
		return "", false
	}
	return filepath.Join(s.rootPath, ref), true
}
