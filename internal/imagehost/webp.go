package imagehost

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
)

const defaultWebPQuality = 80

// WebPOptions 控制重编码的尺寸上限和质量
type WebPOptions struct {
	MaxWidth  int
	MaxHeight int
	Quality   float32
}

// ToWebP 解码图片（png/jpeg/gif/webp），按需等比缩小后编码为WebP
func ToWebP(data []byte, opt WebPOptions) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return EncodeWebP(src, opt)
}

func EncodeWebP(src image.Image, opt WebPOptions) ([]byte, error) {
	img := downscale(src, opt.MaxWidth, opt.MaxHeight)

	q := opt.Quality
	if q <= 0 || q > 100 {
		q = defaultWebPQuality
	}
	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Quality: q}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// downscale 保持宽高比缩小到不超过maxW x maxH，小图原样返回
func downscale(src image.Image, maxW, maxH int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if (maxW <= 0 || w <= maxW) && (maxH <= 0 || h <= maxH) {
		return src
	}

	scale := 1.0
	if maxW > 0 {
		scale = math.Min(scale, float64(maxW)/float64(w))
	}
	if maxH > 0 {
		scale = math.Min(scale, float64(maxH)/float64(h))
	}
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
