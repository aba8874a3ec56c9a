package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Độ dài tối đa của bản xem trước lưu kèm luận văn
const maxPreviewLen = 20000

// ExtractThesisPreview trích nội dung text từ file luận văn PDF để hiển thị
// trên trang chấm bài. File doc/docx trả về chuỗi rỗng, không coi là lỗi.
func ExtractThesisPreview(fileHeader *multipart.FileHeader) (string, error) {
	if strings.ToLower(filepath.Ext(fileHeader.Filename)) != ".pdf" {
		return "", nil
	}

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("lỗi mở file: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, src); err != nil {
		return "", fmt.Errorf("lỗi đọc file PDF: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return "", fmt.Errorf("không thể tạo reader PDF: %w", err)
	}

	var textBuilder strings.Builder
	pages := reader.NumPage()
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		textBuilder.WriteString(content)
		if textBuilder.Len() >= maxPreviewLen {
			break
		}
	}

	text := textBuilder.String()
	if len(text) > maxPreviewLen {
		text = text[:maxPreviewLen]
	}
	return text, nil
}
