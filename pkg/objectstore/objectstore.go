// Package objectstore stores uploaded media files and hands back public URLs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/d60-Lab/vidtube/config"
	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/breaker"
)

// ErrForeignURL URL 不属于本存储（外部链接或非法路径）
var ErrForeignURL = errors.New("url is not managed by this store")

// Kind 文件分类，决定存储子目录
type Kind string

const (
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

// Store 媒体文件存储
type Store interface {
	// Put 保存文件并返回可公开访问的 URL
	Put(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error)
	// Delete 按 URL 删除；文件不存在视为成功
	Delete(ctx context.Context, url string) error
}

// DiskStore 本地目录存储，URL = BaseURL/<kind>/<uuid><ext>
type DiskStore struct {
	root    string
	baseURL string
}

func NewDiskStore(root, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Put(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, string(kind))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return s.baseURL + "/" + path.Join(string(kind), name), nil
}

func (s *DiskStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rel, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return fmt.Errorf("%w: %q", ErrForeignURL, url)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Guarded 熔断保护，失败统一映射为 Dependency 错误
type Guarded struct {
	inner Store
	b     *breaker.Breaker
}

func NewGuarded(inner Store, cfg config.StorageConfig) *Guarded {
	return &Guarded{inner: inner, b: breaker.New("objectstore", cfg.FailureThreshold, cfg.OpenTimeout, ErrForeignURL)}
}

// New 根据配置创建带熔断的本地存储
func New(cfg config.StorageConfig) (Store, error) {
	disk, err := NewDiskStore(cfg.Root, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return NewGuarded(disk, cfg), nil
}

func (g *Guarded) Put(ctx context.Context, kind Kind, filename string, r io.Reader) (string, error) {
	var url string
	err := g.b.Do(func() error {
		var err error
		url, err = g.inner.Put(ctx, kind, filename, r)
		return err
	})
	if err != nil {
		return "", apperror.Dependency(err, "failed to upload %s file", kind)
	}
	return url, nil
}

func (g *Guarded) Delete(ctx context.Context, url string) error {
	err := g.b.Do(func() error { return g.inner.Delete(ctx, url) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrForeignURL):
		return apperror.Validation("media url %q is not managed by this store", url)
	default:
		return apperror.Dependency(err, "failed to delete media file")
	}
}
