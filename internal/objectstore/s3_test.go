package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var _ Store = (*S3Store)(nil)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildObjectURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
		want     string
	}{
		{
			name: "AWS virtual-hosted",
			key:  "0b6c2d7e-3f53-4a1e-9d55-5f1d7a3c9e01/report.pdf",
			want: "https://shahedrana.s3.eu-central-1.amazonaws.com/0b6c2d7e-3f53-4a1e-9d55-5f1d7a3c9e01/report.pdf",
		},
		{
			name:     "пользовательский endpoint",
			endpoint: "http://localhost:9000",
			key:      "id/a.txt",
			want:     "http://localhost:9000/shahedrana/id/a.txt",
		},
		{
			name: "экранирование сегментов",
			key:  "id/my report #1.pdf",
			want: "https://shahedrana.s3.eu-central-1.amazonaws.com/id/my%20report%20%231.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildObjectURL(tt.endpoint, "shahedrana", "eu-central-1", tt.key)
			if got != tt.want {
				t.Errorf("buildObjectURL = %q, ожидается %q", got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"NoSuchKey", &types.NoSuchKey{}, true},
		{"NotFound", &types.NotFound{}, true},
		{"обёрнутый NoSuchKey", fmt.Errorf("get: %w", &types.NoSuchKey{}), true},
		{"generic API NoSuchKey", &smithy.GenericAPIError{Code: "NoSuchKey"}, true},
		{"AccessDenied", &smithy.GenericAPIError{Code: "AccessDenied"}, false},
		{"сетевая ошибка", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isNotFound(tt.err); got != tt.want {
				t.Errorf("isNotFound() = %v, ожидается %v", got, tt.want)
			}
		})
	}
}

func TestNewS3Store(t *testing.T) {
	ctx := context.Background()

	if _, err := NewS3Store(ctx, S3Config{Region: "eu-central-1"}, newTestLogger()); err == nil {
		t.Error("ожидалась ошибка при пустом имени бакета")
	}

	store, err := NewS3Store(ctx, S3Config{
		Region:          "us-east-1",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Bucket:          "share",
		Endpoint:        "http://minio:9000/",
	}, newTestLogger())
	if err != nil {
		t.Fatalf("NewS3Store() ошибка: %v", err)
	}

	if got := store.objectURL("id/x.bin"); got != "http://minio:9000/share/id/x.bin" {
		t.Errorf("objectURL = %q", got)
	}
}
