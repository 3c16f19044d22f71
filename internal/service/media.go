package service

import (
	"context"
	"io"

	"github.com/d60-Lab/vidtube/pkg/apperror"
	"github.com/d60-Lab/vidtube/pkg/objectstore"
)

// Upload 上传的文件（由 handler 从 multipart 表单打开）
type Upload struct {
	Filename string
	Body     io.Reader
}

// putUpload 上传失败一律视为 Dependency 错误
func putUpload(ctx context.Context, store objectstore.Store, kind objectstore.Kind, up *Upload) (string, error) {
	if up == nil || up.Body == nil {
		return "", apperror.Validation("%s file is required", kind)
	}
	url, err := store.Put(ctx, kind, up.Filename, up.Body)
	if err != nil {
		if apperror.Is(err, apperror.KindDependency) {
			return "", err
		}
		return "", apperror.Dependency(err, "failed to upload %s file", kind)
	}
	return url, nil
}
