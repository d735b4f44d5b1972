package imagehost

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var ErrNotDataURI = errors.New("not a data URI")

// DataURI 是解析后的 data: 引用
type DataURI struct {
	MediaType string
	Data      []byte
	// Raw 是原始字符串，Cloudinary可以直接上传它
	Raw string
}

// ParseDataURI 解析 data:[<mediatype>][;base64],<data>
func ParseDataURI(raw string) (*DataURI, error) {
	rest, ok := strings.CutPrefix(raw, "data:")
	if !ok {
		return nil, ErrNotDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing comma", ErrNotDataURI)
	}

	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	if mediaType == "" {
		mediaType = "text/plain"
	}
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}

	var data []byte
	if isBase64 {
		// 去掉换行等空白，兼容两种base64字母表
		cleaned := strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
				return -1
			}
			return r
		}, payload)
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(cleaned, "="))
			if err != nil {
				return nil, fmt.Errorf("invalid base64 payload: %w", err)
			}
		}
		data = decoded
	} else {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, fmt.Errorf("invalid percent-encoded payload: %w", err)
		}
		data = []byte(decoded)
	}
	if len(data) == 0 {
		return nil, errors.New("empty image payload")
	}

	return &DataURI{MediaType: mediaType, Data: data, Raw: raw}, nil
}
