package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Example output for "ex.txt": "21313123123_ex.txt"
func AddUniquePrefixToFileName(fileName string) string {
	uniquePrefix := fmt.Sprintf("%d", time.Now().UnixNano())
	return fmt.Sprintf("%s_%s", uniquePrefix, fileName)
}

// Example output for "contract.pdf": "[SIGNED] contract.pdf"
func SignedFileName(fileName string) string {
	return "[SIGNED] " + filepath.Base(fileName)
}

// Example output for "contract.pdf": "contract"
func TrimPdfExt(fileName string) string {
	ext := filepath.Ext(fileName)
	if strings.EqualFold(ext, ".pdf") {
		return strings.TrimSuffix(fileName, ext)
	}
	return fileName
}

func GetTemplateDirectoryPath(templateId string) string {
	return fmt.Sprintf("templates/%s", templateId)
}
