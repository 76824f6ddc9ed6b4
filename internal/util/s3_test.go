package util

import "testing"

func TestPrepareFileName(t *testing.T) {
	tests := []struct {
		name string
		fuo  *FileUploadOptions
		want string
	}{
		{"nil options", nil, "log.txt"},
		{"directory", &FileUploadOptions{DirectoryPath: "templates/t1"}, "templates/t1/log.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := prepareFileName("log.txt", tt.fuo); got != tt.want {
				t.Errorf("prepareFileName() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		fileName string
		content  []byte
		want     string
	}{
		{"contract.pdf", nil, "application/pdf"},
		{"noext", []byte("%PDF-1.4\n"), "application/pdf"},
		{"noext", []byte("plain words"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		if got := DetectContentType(tt.fileName, tt.content); got != tt.want {
			t.Errorf("DetectContentType(%s) = %s, want %s", tt.fileName, got, tt.want)
		}
	}
}
