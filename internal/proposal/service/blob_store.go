package service

import (
	"context"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// BlobStore 对象存储抽象。键由上传方生成，内容写入确认完成后
// 链接表才允许引用它。
type BlobStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ErrBlobNotFound Blob不存在
var ErrBlobNotFound = &NotFoundError{Resource: "blob", Reason: "object missing from blob store"}

// MinioStore MinIO实现
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore 创建MinIO存储
func NewMinioStore(client *minio.Client, bucket string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket}
}

// Put 上传对象
func (s *MinioStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

// Get 读取对象。GetObject是惰性的，先Stat确认对象存在，
// 让"链接还在但Blob丢了"在这里就暴露出来。
func (s *MinioStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || strings.Contains(err.Error(), "does not exist") {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return obj, nil
}

// Remove 删除对象
func (s *MinioStore) Remove(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
