package handlers

import (
	"time"

	"github.com/bigkaa/goartstore/share-module/internal/domain/model"
)

// fileRecordResponse — запись в ответе загрузки (newFile).
type fileRecordResponse struct {
	ID          string    `json:"_id"`
	URL         string    `json:"url"`
	PublicID    string    `json:"public_id"`
	Size        int64     `json:"size"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ContentType string    `json:"contentType,omitempty"`
	ExpiresAt   time.Time `json:"expiresAt"`
	CreateDate  string    `json:"create_date"`
	CreateTime  string    `json:"create_time"`
}

type fileUploadResponse struct {
	URL       string             `json:"url"`
	PublicID  string             `json:"public_id"`
	QRCodeURL string             `json:"qrCodeUrl"`
	NewFile   fileRecordResponse `json:"newFile"`
}

type folderUploadResponse struct {
	URLs      []string `json:"urls"`
	PublicID  string   `json:"public_id"`
	QRCodeURL string   `json:"qrCodeUrl"`
}

func toRecordResponse(rec *model.FileRecord) fileRecordResponse {
	return fileRecordResponse{
		ID:          rec.ID,
		URL:         rec.URL,
		PublicID:    rec.PublicID,
		Size:        rec.Size,
		Name:        rec.Name,
		Description: rec.Description,
		ContentType: rec.ContentType,
		ExpiresAt:   rec.ExpiresAt.UTC(),
		CreateDate:  rec.CreateDate,
		CreateTime:  rec.CreateTime,
	}
}
