// Пакет предоставляет работу с объектным хранилищем Minio для медиа-блоков: выдачу подписанных ссылок на загрузку
// и воспроизведение, проверку, перемещение и удаление объектов.
package filestorage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/config"
	"github.com/gofrs/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"
)

const (
	VideoPrefix   = "videos/"
	UnknownPrefix = "unknown/"

	defaultRegion = "us-east-1"
)

var ErrNotFound = errors.New("object not found")

// Metadata сохраняется в тегах объекта после подтверждения загрузки.
type Metadata struct {
	DocumentId string
	BlockId    string
	UserId     string
}

func (m Metadata) GetMap() map[string]string {
	meta := make(map[string]string)
	if m.DocumentId != "" {
		meta["documentId"] = m.DocumentId
	}
	if m.BlockId != "" {
		meta["blockId"] = m.BlockId
	}
	if m.UserId != "" {
		meta["userId"] = m.UserId
	}
	return meta
}

type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

// UploadDestination - подписанная ссылка для прямой загрузки файла клиентом.
type UploadDestination struct {
	WriteURL  string    `json:"write_url"`
	Ref       string    `json:"ref"`
	ExpiresAt time.Time `json:"expires_at"`
}

// VideoKey формирует ключ нового объекта видео. Ключ содержит id блока, поэтому объекты разных блоков не пересекаются.
func VideoKey(blockID uuid.UUID) string {
	id, _ := uuid.NewV4()
	return VideoPrefix + blockID.String() + "/" + id.String()
}

// BlockIdFromKey извлекает id блока из ключа видео.
func BlockIdFromKey(key string) (uuid.UUID, bool) {
	rest, ok := strings.CutPrefix(key, VideoPrefix)
	if !ok {
		return uuid.Nil, false
	}
	blockPart, _, ok := strings.Cut(rest, "/")
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(blockPart)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

type MinioStorage struct {
	client     *minio.Client
	bucketName string

	uploadTTL   time.Duration
	playbackTTL time.Duration
	cdnURL      *url.URL

	now func() time.Time
}

func (s *MinioStorage) GetUploadDestination(ctx context.Context, blockID uuid.UUID) (UploadDestination, error) {
	key := VideoKey(blockID)
	issuedAt := s.now()

	u, err := s.client.PresignedPutObject(ctx, s.bucketName, key, s.uploadTTL)
	if err != nil {
		resp := minio.ToErrorResponse(err)
		slog.Error("Presign upload url", "key", key, "code", resp.StatusCode, "msg", resp.Message, "err", err)
		return UploadDestination{}, err
	}

	return UploadDestination{
		WriteURL:  u.String(),
		Ref:       key,
		ExpiresAt: issuedAt.Add(s.uploadTTL),
	}, nil
}

// ResolvePlaybackURL возвращает ссылку на воспроизведение: адрес CDN, если он настроен, иначе подписанную ссылку хранилища.
func (s *MinioStorage) ResolvePlaybackURL(ctx context.Context, ref string) (string, error) {
	if s.cdnURL != nil {
		return s.cdnURL.JoinPath(ref).String(), nil
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucketName, ref, s.playbackTTL, url.Values{})
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

func (s *MinioStorage) SetMetadata(ctx context.Context, path string, meta Metadata) error {
	t, err := tags.NewTags(meta.GetMap(), true)
	if err != nil {
		return err
	}
	return s.client.PutObjectTagging(ctx, s.bucketName, path, t, minio.PutObjectTaggingOptions{})
}

func (s *MinioStorage) Delete(ctx context.Context, path string) error {
	return s.client.RemoveObject(
		ctx,
		s.bucketName,
		path,
		minio.RemoveObjectOptions{},
	)
}

func (s *MinioStorage) Exist(ctx context.Context, path string) (bool, error) {
	_, err := s.GetFileInfo(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioStorage) GetFileInfo(ctx context.Context, path string) (*FileInfo, error) {
	stat, err := s.client.StatObject(ctx, s.bucketName, path, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	return &FileInfo{
		Name:        path,
		Size:        stat.Size,
		ContentType: stat.ContentType,
		CreatedAt:   stat.LastModified,
	}, nil
}

// List обходит объекты с указанным префиксом. Ошибка fn прерывает обход.
func (s *MinioStorage) List(ctx context.Context, prefix string, fn func(FileInfo) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(FileInfo{
			Name:        obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			CreatedAt:   obj.LastModified,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *MinioStorage) Move(ctx context.Context, old string, new string) error {
	if _, err := s.client.CopyObject(ctx,
		minio.CopyDestOptions{
			Bucket: s.bucketName,
			Object: new,
		},
		minio.CopySrcOptions{
			Bucket: s.bucketName,
			Object: old,
		},
	); err != nil {
		return err
	}
	return s.client.RemoveObject(ctx, s.bucketName, old, minio.RemoveObjectOptions{})
}

func newStorage(cfg *config.Config) (*MinioStorage, error) {
	client, err := minio.New(cfg.AWSEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		Secure: cfg.AWSUseSSL,
		Region: defaultRegion,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStorage{
		client:      client,
		bucketName:  cfg.AWSBucketName,
		uploadTTL:   cfg.UploadURLTTL(),
		playbackTTL: cfg.PlaybackURLTTL(),
		cdnURL:      cfg.MediaCDNURL,
		now:         time.Now,
	}, nil
}

func NewMinioStorage(ctx context.Context, cfg *config.Config) (*MinioStorage, error) {
	s, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return nil, err
	}

	if !exists {
		// Create bucket if not exist
		if err := s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: defaultRegion}); err != nil {
			return nil, err
		}
	}

	return s, nil
}
