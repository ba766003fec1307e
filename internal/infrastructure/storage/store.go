// Package storage 头像和房屋图片的对象存储，支持 Supabase Storage 和 MongoDB GridFS。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/flowerfire37/ihome/internal/infrastructure/config"
)

// ErrImageNotFound 图片不存在
var ErrImageNotFound = errors.New("图片不存在")

// Store 上传图片并返回可访问的URL
type Store interface {
	Upload(ctx context.Context, name, contentType string, r io.Reader) (string, error)
}

// Reader 由本服务提供下载的存储后端
type Reader interface {
	Open(ctx context.Context, id string) (io.ReadCloser, string, error)
}

// NewStore 根据 IMAGE_STORAGE 选择后端，返回的关闭函数在退出时调用
func NewStore(ctx context.Context, cfg *config.Config) (Store, func(), error) {
	switch cfg.ImageStorage {
	case "supabase":
		s, err := NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	case "gridfs", "":
		s, err := NewGridFSStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("不支持的图片存储: %s", cfg.ImageStorage)
	}
}
