// Package storage 提供了与对象存储服务（MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"alumniverse/internal/config"
	"alumniverse/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient 是一个全局的 MinIO 客户端实例。
var MinioClient *minio.Client

var bucketName string

// InitMinIO 初始化 MinIO 客户端并确保头像存储桶存在。
func InitMinIO(cfg config.MinIOConfig) {
	var err error

	// 1. 初始化 MinIO 客户端
	MinioClient, err = minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		log.Fatal("初始化 MinIO 客户端失败", err)
	}
	bucketName = cfg.BucketName

	log.Info("MinIO 客户端初始化成功")

	// 2. 检查存储桶是否存在，如果不存在则创建
	ctx := context.Background()
	exists, err := MinioClient.BucketExists(ctx, bucketName)
	if err != nil {
		log.Fatal("检查 MinIO 存储桶失败", err)
	}

	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", bucketName)
		if err = MinioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Fatal("创建 MinIO 存储桶失败", err)
		}
		log.Infof("存储桶 '%s' 创建成功", bucketName)
	} else {
		log.Infof("存储桶 '%s' 已存在", bucketName)
	}
}

// UploadObject 将对象写入头像存储桶并返回对象名。
func UploadObject(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := MinioClient.PutObject(ctx, bucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		log.Errorf("上传对象 '%s' 到 MinIO 失败: %v", objectName, err)
		return "", fmt.Errorf("failed to upload object: %w", err)
	}
	return objectName, nil
}

// GetPresignedURL generates a presigned URL for a given object.
func GetPresignedURL(objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := MinioClient.PresignedGetObject(context.Background(), bucketName, objectName, expiry, nil)
	if err != nil {
		log.Errorf("Error generating presigned URL: %s", err)
		return "", err
	}
	return presignedURL.String(), nil
}
