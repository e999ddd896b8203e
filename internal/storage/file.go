package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FileBackend хранит каждый ключ отдельным JSON-файлом в каталоге
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("не удалось создать каталог данных: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, strings.ReplaceAll(key, string(filepath.Separator), "_")+".json")
}

func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(b.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла: %w", err)
	}
	return data, nil
}

// Put пишет во временный файл и переименовывает, чтобы не оставить полузаписанный снапшот
func (b *FileBackend) Put(_ context.Context, key string, payload []byte) error {
	tmp, err := os.CreateTemp(b.dir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("сбой при сохранении файла: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("сбой при сохранении файла: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("сбой при сохранении файла: %w", err)
	}
	if err := os.Rename(tmp.Name(), b.path(key)); err != nil {
		return fmt.Errorf("сбой при сохранении файла: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error {
	return nil
}
