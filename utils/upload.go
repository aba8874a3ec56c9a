package utils

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const MaxThesisSize = 10 * 1024 * 1024 // 10MB

// Các định dạng luận văn được chấp nhận
var thesisContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// ValidateThesisFile kiểm tra định dạng và kích thước file luận văn
func ValidateThesisFile(file *multipart.FileHeader) error {
	if file.Size > MaxThesisSize {
		return errors.New("file vượt quá 10MB")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := thesisContentTypes[ext]; !ok {
		return errors.New("chỉ chấp nhận file PDF hoặc Word (doc/docx)")
	}
	return nil
}

// ThesisContentType trả về Content-Type theo phần mở rộng file
func ThesisContentType(ext string) string {
	if ct, ok := thesisContentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SaveThesisFile lưu file vào <uploadDir>/thesis với tên duy nhất, giữ phần mở rộng gốc.
// Trả về đường dẫn tương đối (vd: thesis/thesis-<uuid>.pdf) để lưu DB.
func SaveThesisFile(c *gin.Context, file *multipart.FileHeader, uploadDir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := fmt.Sprintf("thesis-%s%s", uuid.New().String(), ext)

	dir := filepath.Join(uploadDir, "thesis")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("không tạo được thư mục upload: %w", err)
	}

	if err := c.SaveUploadedFile(file, filepath.Join(dir, name)); err != nil {
		return "", fmt.Errorf("không lưu được file: %w", err)
	}
	return filepath.ToSlash(filepath.Join("thesis", name)), nil
}

// RemoveUploadedFile xoá file theo đường dẫn tương đối đã lưu DB, bỏ qua khi file không tồn tại
func RemoveUploadedFile(relPath, uploadDir string) {
	if relPath == "" {
		return
	}
	_ = os.Remove(filepath.Join(uploadDir, filepath.FromSlash(relPath)))
}
