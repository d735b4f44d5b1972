package imagehost

import (
	"context"
	"errors"
	"fmt"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const defaultCloudinaryFolder = "pokemon_app_assets"

// CloudinaryUploader 把data URI原样交给Cloudinary
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cfg config.CloudinaryConfig) (*CloudinaryUploader, error) {
	if cfg.URL == "" {
		return nil, errors.New("cloudinary url is empty")
	}
	cld, err := cloudinary.NewFromURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary 配置无效: %w", err)
	}
	cld.Config.URL.Secure = true

	folder := cfg.Folder
	if folder == "" {
		folder = defaultCloudinaryFolder
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

func (u *CloudinaryUploader) Upload(ctx context.Context, img *DataURI) (string, error) {
	resp, err := u.cld.Upload.Upload(ctx, img.Raw, uploader.UploadParams{
		Folder:    u.folder,
		Overwrite: api.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}
	if resp.SecureURL == "" {
		return "", errors.New("cloudinary upload: empty secure_url")
	}
	return resp.SecureURL, nil
}
