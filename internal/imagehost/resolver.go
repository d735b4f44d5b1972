// Package imagehost 把请求中内联的 data URI 图片上传到托管服务，换成可长期访问的URL。
package imagehost

import (
	"context"
	"fmt"
	"strings"

	"github.com/SlpAus/creature-dex-backend/internal/platform/config"
)

// PlaceholderURL 在上传失败时代替图片地址，请求本身不会因此失败
const PlaceholderURL = "https://via.placeholder.com/150/FF0000/FFFFFF?Text=Upload+Error"

const dataImagePrefix = "data:image"

// Uploader 上传一张图片并返回托管URL
type Uploader interface {
	Upload(ctx context.Context, img *DataURI) (string, error)
}

type Resolver struct {
	uploader Uploader
}

// NewResolver 使用给定的上传器。uploader为nil时所有内联图片都解析为占位图。
func NewResolver(uploader Uploader) *Resolver {
	return &Resolver{uploader: uploader}
}

// New 按配置创建Resolver
func New(cfg config.ImageConfig) (*Resolver, error) {
	switch cfg.Provider {
	case "cloudinary":
		u, err := NewCloudinaryUploader(cfg.Cloudinary)
		if err != nil {
			return nil, err
		}
		fmt.Println("图片托管: Cloudinary 已配置。")
		return NewResolver(u), nil
	case "oss":
		u, err := NewOSSUploader(cfg.OSS, cfg.WebP)
		if err != nil {
			return nil, err
		}
		fmt.Println("图片托管: 阿里云OSS 已配置。")
		return NewResolver(u), nil
	case "none", "":
		fmt.Println("警告: 未配置图片托管，内联图片将被替换为占位图。")
		return NewResolver(nil), nil
	default:
		return nil, fmt.Errorf("不支持的图片托管方式: %q", cfg.Provider)
	}
}

// Resolve 返回可以持久化的图片引用。
// 非 data URI 的引用原样返回；上传失败时返回 PlaceholderURL。
func (r *Resolver) Resolve(ctx context.Context, ref string) string {
	if !strings.HasPrefix(ref, dataImagePrefix) {
		return ref
	}
	if r == nil || r.uploader == nil {
		return PlaceholderURL
	}

	img, err := ParseDataURI(ref)
	if err != nil {
		fmt.Printf("图片数据无法解析: %v\n", err)
		return PlaceholderURL
	}
	url, err := r.uploader.Upload(ctx, img)
	if err != nil {
		fmt.Printf("图片上传失败: %v\n", err)
		return PlaceholderURL
	}
	fmt.Printf("图片上传成功: %s\n", url)
	return url
}
