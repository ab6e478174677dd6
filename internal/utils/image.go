package utils

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var ErrInvalidImage = errors.New("图片格式错误")

// GenerateImageFilename 生成形如 20250301-<uuid>.jpg 的唯一文件名
func GenerateImageFilename() string {
	return fmt.Sprintf("%s-%s.jpg", time.Now().Format("20060102"), uuid.New().String())
}

// SaveStudentImage 将上传的图片裁剪为 size x size 的正方形 JPEG 并保存到 dir 下，返回文件名
func SaveStudentImage(src io.Reader, dir string, size int, quality int) (string, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	thumb := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := GenerateImageFilename()
	if err := imaging.Save(thumb, filepath.Join(dir, filename), imaging.JPEGQuality(quality)); err != nil {
		return "", err
	}

	return filename, nil
}

// DecodeDataURL 解码 data:image/...;base64, 形式的图片，也接受不带前缀的 base64
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
			return nil, ErrInvalidImage
		}
		s = s[comma+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	return data, nil
}

func SaveStudentImageFromDataURL(dataURL string, dir string, size int, quality int) (string, error) {
	data, err := DecodeDataURL(dataURL)
	if err != nil {
		return "", err
	}
	return SaveStudentImage(bytes.NewReader(data), dir, size, quality)
}

// RemoveImage 删除旧图片，文件不存在时忽略
func RemoveImage(dir string, filename string) error {
	if filename == "" || filename != filepath.Base(filename) {
		return nil
	}
	if err := os.Remove(filepath.Join(dir, filename)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
