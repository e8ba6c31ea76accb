package qrcode

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"
	"testing"
)

func TestDataURL(t *testing.T) {
	link := DownloadLink("https://share.example.com/download", "0b6c2d7e-3f53-4a1e-9d55-5f1d7a3c9e01")

	got, err := DataURL(link)
	if err != nil {
		t.Fatalf("DataURL() ошибка: %v", err)
	}
	if !strings.HasPrefix(got, "data:image/png;base64,") {
		t.Fatalf("DataURL() = %q..., ожидается префикс data:image/png;base64,", got[:min(len(got), 32)])
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(got, "data:image/png;base64,"))
	if err != nil {
		t.Fatalf("некорректный base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("некорректный PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != imageSize || b.Dy() != imageSize {
		t.Errorf("размер изображения %dx%d, ожидается %dx%d", b.Dx(), b.Dy(), imageSize, imageSize)
	}
}

func TestDownloadLink(t *testing.T) {
	tests := []struct {
		base string
		id   string
		want string
	}{
		{"https://share.example.com/download", "abc", "https://share.example.com/download/abc"},
		{"https://share.example.com/download/", "abc", "https://share.example.com/download/abc"},
		{"http://localhost:3000/d", "a b", "http://localhost:3000/d/a%20b"},
	}

	for _, tt := range tests {
		if got := DownloadLink(tt.base, tt.id); got != tt.want {
			t.Errorf("DownloadLink(%q, %q) = %q, ожидается %q", tt.base, tt.id, got, tt.want)
		}
	}
}
