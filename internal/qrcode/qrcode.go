// Пакет qrcode — генерация QR-кода ссылки на скачивание в виде PNG data URL.
package qrcode

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// Параметры изображения.
const (
	imageSize     = 256
	dataURLPrefix = "data:image/png;base64,"
)

// DataURL кодирует content в QR-код и возвращает его как data:image/png;base64,...
func DataURL(content string) (string, error) {
	png, err := goqrcode.Encode(content, goqrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("ошибка генерации QR-кода: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DownloadLink формирует публичную ссылку {base}/{public_id}.
func DownloadLink(base, publicID string) string {
	return strings.TrimRight(base, "/") + "/" + url.PathEscape(publicID)
}
