package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore 上传到公开 bucket，返回公开URL
type SupabaseStore struct {
	Client *storage_go.Client
	Bucket string
}

// NewSupabaseStore 创建 Supabase 存储，baseURL 为项目地址
func NewSupabaseStore(baseURL, key, bucket string) (*SupabaseStore, error) {
	if baseURL == "" || key == "" {
		return nil, errors.New("缺少 SUPABASE_URL 或 SUPABASE_KEY")
	}
	client := storage_go.NewClient(strings.TrimSuffix(baseURL, "/")+"/storage/v1", key, nil)
	return &SupabaseStore{Client: client, Bucket: bucket}, nil
}

func (s *SupabaseStore) Upload(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	upsert := true
	options := storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}
	if _, err := s.Client.UploadFile(s.Bucket, name, r, options); err != nil {
		return "", err
	}
	return s.Client.GetPublicUrl(s.Bucket, name).SignedURL, nil
}
