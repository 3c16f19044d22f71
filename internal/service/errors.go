package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/vidtube/pkg/apperror"
)

// storeErr 将存储层错误映射为 apperror；已分类的错误原样返回
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.NotFound("%s not found", what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperror.Conflict("%s already exists", what)
	}
	return apperror.Internal(err, "failed to access %s", what)
}

func isNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
