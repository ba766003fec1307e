package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flowerfire37/ihome/internal/infrastructure/config"
)

func TestSupabaseUpload(t *testing.T) {
	var gotPath, gotBody, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"Key":"ihome/avatar/a.png"}`))
	}))
	defer server.Close()

	store, err := NewSupabaseStore(server.URL+"/", "key", "ihome")
	if err != nil {
		t.Fatal(err)
	}
	url, err := store.Upload(context.Background(), "avatar/a.png", "image/png", strings.NewReader("png"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if gotPath != "/storage/v1/object/ihome/avatar/a.png" || gotBody != "png" || gotType != "image/png" {
		t.Errorf("请求 path=%s type=%s body=%s", gotPath, gotType, gotBody)
	}
	if !strings.Contains(url, "/object/public/ihome/avatar/a.png") {
		t.Errorf("url = %s", url)
	}
}

func TestNewStoreRejectsUnknownBackend(t *testing.T) {
	if _, _, err := NewStore(context.Background(), &config.Config{ImageStorage: "s3"}); err == nil {
		t.Error("未知后端应返回错误")
	}
	if _, _, err := NewStore(context.Background(), &config.Config{ImageStorage: "supabase"}); err == nil {
		t.Error("缺少 Supabase 配置应返回错误")
	}
}

func TestImageURL(t *testing.T) {
	if got := ImageURL("65f0c0ffee"); got != "/api/v1.0/images/65f0c0ffee" {
		t.Errorf("ImageURL = %s", got)
	}
}
