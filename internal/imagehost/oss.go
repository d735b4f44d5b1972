package imagehost

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/google/uuid"
)

// OSSUploader 把图片转成WebP后上传到阿里云OSS
type OSSUploader struct {
	bucket     *oss.Bucket
	endpoint   string
	bucketName string
	prefix     string
	publicBase string
	webp       WebPOptions
	now        func() time.Time
}

func NewOSSUploader(cfg config.OSSConfig, webpCfg config.WebPConfig) (*OSSUploader, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New("oss endpoint and bucket are required")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}

	return &OSSUploader{
		bucket:     bkt,
		endpoint:   cfg.Endpoint,
		bucketName: cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBase, "/"),
		webp: WebPOptions{
			MaxWidth:  webpCfg.MaxWidth,
			MaxHeight: webpCfg.MaxHeight,
			Quality:   webpCfg.Quality,
		},
		now: time.Now,
	}, nil
}

func (u *OSSUploader) Upload(ctx context.Context, img *DataURI) (string, error) {
	data, err := ToWebP(img.Data, u.webp)
	if err != nil {
		return "", err
	}

	key := u.objectKey(uuid.NewString())
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType("image/webp"),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	}
	if err := u.bucket.PutObject(key, bytes.NewReader(data), opts...); err != nil {
		return "", fmt.Errorf("oss put %s: %w", key, err)
	}
	return u.publicURL(key), nil
}

// objectKey 形如 <prefix>/20261017/<name>.webp
func (u *OSSUploader) objectKey(name string) string {
	key := u.now().Format("20060102") + "/" + name + ".webp"
	if u.prefix != "" {
		key = u.prefix + "/" + key
	}
	return key
}

func (u *OSSUploader) publicURL(key string) string {
	if u.publicBase != "" {
		return u.publicBase + "/" + key
	}
	end := strings.TrimPrefix(u.endpoint, "https://")
	end = strings.TrimPrefix(end, "http://")
	return fmt.Sprintf("https://%s.%s/%s", u.bucketName, end, key)
}
