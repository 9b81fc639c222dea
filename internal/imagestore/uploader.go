// Package imagestore загружает обложки и страницы книг в S3-совместимое хранилище
// и возвращает публичные ссылки на них.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/glanceread/internal/config"
)

// ErrEmptyFile загружаемый файл пуст.
var ErrEmptyFile = errors.New("empty file")

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader кладёт объекты в бакет с публичным ACL.
type Uploader struct {
	bucket  string
	baseURL string
	folder  string
	client  objectPutter
	now     func() time.Time
}

// New создаёт Uploader по настройкам хранилища.
func New(cfg config.ObjectStorage) (*Uploader, error) {
	const op = "imagestore.New"
	switch {
	case cfg.Bucket == "":
		return nil, fmt.Errorf("%s: bucket is required", op)
	case cfg.AccessKey == "" || cfg.SecretKey == "":
		return nil, fmt.Errorf("%s: credentials are required", op)
	case cfg.PublicBaseURL == "":
		return nil, fmt.Errorf("%s: public base url is required", op)
	}

	options := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: cfg.UsePathStyle,
	}
	if cfg.Endpoint != "" {
		options.BaseEndpoint = aws.String(cfg.Endpoint)
	}

	return &Uploader{
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		folder:  strings.Trim(cfg.Folder, "/"),
		client:  s3.New(options),
		now:     time.Now,
	}, nil
}

// Upload сохраняет data в подкаталог folder и возвращает публичный URL.
// Тип содержимого определяется по самим байтам, расширение берётся из filename.
func (u *Uploader) Upload(ctx context.Context, data []byte, filename, folder string) (string, error) {
	const op = "imagestore.Upload"
	if len(data) == 0 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyFile)
	}

	contentType := http.DetectContentType(data)
	key := u.objectKey(folder, extension(filename, contentType))

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return u.baseURL + "/" + key, nil
}

func (u *Uploader) objectKey(folder, ext string) string {
	now := u.now().UTC()
	return path.Join(
		u.folder,
		strings.Trim(folder, "/"),
		fmt.Sprintf("%04d/%02d/%02d", now.Year(), now.Month(), now.Day()),
		uuid.NewString()+ext,
	)
}

func extension(filename, contentType string) string {
	if ext := strings.ToLower(path.Ext(filename)); ext != "" {
		return ext
	}
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
