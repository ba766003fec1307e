package storage

import (
	"context"
	"errors"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ImageURLPrefix GridFS 图片由 /api/v1.0/images/:image_id 提供下载
const ImageURLPrefix = "/api/v1.0/images/"

// GridFSStore 图片保存在 MongoDB GridFS
type GridFSStore struct {
	client *mongo.Client
	DB     *mongo.Database
}

// NewGridFSStore 连接 MongoDB
func NewGridFSStore(ctx context.Context, uri, dbName string) (*GridFSStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return &GridFSStore{client: client, DB: client.Database(dbName)}, nil
}

// ImageURL GridFS 文件ID对应的访问地址
func ImageURL(id string) string {
	return ImageURLPrefix + id
}

func (s *GridFSStore) Upload(_ context.Context, name, contentType string, r io.Reader) (string, error) {
	bucket, err := gridfs.NewBucket(s.DB)
	if err != nil {
		return "", err
	}

	opts := options.GridFSUpload().SetMetadata(bson.D{{Key: "contentType", Value: contentType}})
	stream, err := bucket.OpenUploadStream(name, opts)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	if _, err := io.Copy(stream, r); err != nil {
		return "", err
	}
	return ImageURL(stream.FileID.(primitive.ObjectID).Hex()), nil
}

// Open 按文件ID读取图片，返回内容类型
func (s *GridFSStore) Open(_ context.Context, id string) (io.ReadCloser, string, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, "", ErrImageNotFound
	}

	bucket, err := gridfs.NewBucket(s.DB)
	if err != nil {
		return nil, "", err
	}
	stream, err := bucket.OpenDownloadStream(objID)
	if err != nil {
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, "", ErrImageNotFound
		}
		return nil, "", err
	}

	contentType := "application/octet-stream"
	if meta := stream.GetFile().Metadata; len(meta) > 0 {
		if ct, ok := meta.Lookup("contentType").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return stream, contentType, nil
}

// Close 断开 MongoDB 连接
func (s *GridFSStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
