package service

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	_ "golang.org/x/image/webp"
)

// maxImageBytes 限制内联图片解码后的大小
const maxImageBytes = 5 << 20

var textPolicy = bluemonday.StrictPolicy()

// sanitizeText 去除 HTML 标签并折叠首尾空白
func sanitizeText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(raw)))
}

func requireText(field, raw string) (string, error) {
	value := sanitizeText(raw)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidPlant, field)
	}
	return value, nil
}

// normalizeImage 接受 http(s) URL、data URI 或裸 base64 图片；空值返回 nil
func normalizeImage(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil, nil
	}

	if strings.HasPrefix(value, "data:") {
		if err := checkDataURI(value); err != nil {
			return nil, err
		}
		return &value, nil
	}

	if u, err := url.Parse(value); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		if u.Host == "" {
			return nil, fmt.Errorf("%w: image url has no host", ErrInvalidPlant)
		}
		return &value, nil
	}

	if _, err := decodeImage(value); err != nil {
		return nil, fmt.Errorf("%w: image must be an http(s) url or base64 image", ErrInvalidPlant)
	}
	return &value, nil
}

func checkDataURI(value string) error {
	header, payload, ok := strings.Cut(strings.TrimPrefix(value, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return fmt.Errorf("%w: image data uri must be base64 encoded", ErrInvalidPlant)
	}
	mediaType := strings.TrimSuffix(header, ";base64")
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("%w: unsupported image type %q", ErrInvalidPlant, mediaType)
	}

	format, err := decodeImage(payload)
	if err != nil {
		return err
	}
	if want := strings.TrimPrefix(mediaType, "image/"); want != format && !(want == "jpg" && format == "jpeg") {
		return fmt.Errorf("%w: image declared as %s but is %s", ErrInvalidPlant, want, format)
	}
	return nil
}

// decodeImage 只读取图片头部，返回格式名
func decodeImage(payload string) (string, error) {
	if base64.StdEncoding.DecodedLen(len(payload)) > maxImageBytes {
		return "", fmt.Errorf("%w: image larger than %d bytes", ErrInvalidPlant, maxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64 image", ErrInvalidPlant)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: unreadable image: %v", ErrInvalidPlant, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty image", ErrInvalidPlant)
	}
	return format, nil
}
