package file

import (
	"context"
	"time"
)

type Backend string

const (
	BackendLocal  Backend = "local"
	BackendS3     Backend = "s3"
	BackendCosmic Backend = "cosmic"
)

type Config struct {
	Backend         Backend       `env:"FILE_STORAGE" envDefault:"cosmic"`
	LocalDir        string        `env:"FILE_LOCAL_DIR" envDefault:"./tmp/uploads"`
	LocalURL        string        `env:"FILE_LOCAL_URL" envDefault:"/uploads/"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION" envDefault:"us-east-1"`
	S3AccessKeyID   string        `env:"S3_ACCESS_KEY_ID"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Endpoint      string        `env:"S3_ENDPOINT"`
	S3BaseURL       string        `env:"S3_BASE_URL"`
	S3PathStyle     bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	S3UploadTimeout time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"60s"`
}

// NewUploader builds the configured uploader. media is only used by the
// cosmic backend. The local backend also returns its storage so the caller
// can serve the directory.
func NewUploader(ctx context.Context, cfg Config, media MediaAPI) (Uploader, *LocalStorage, error) {
	switch cfg.Backend {
	case BackendCosmic:
		if media == nil {
			return nil, nil, ErrInvalidConfig
		}
		return NewCosmicUploader(media), nil, nil
	case BackendS3:
		s, err := NewS3Storage(ctx, S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			BaseURL:        cfg.S3BaseURL,
			ForcePathStyle: cfg.S3PathStyle,
			UploadTimeout:  cfg.S3UploadTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return NewStorageUploader(s), nil, nil
	case BackendLocal:
		s, err := NewLocalStorage(cfg.LocalDir, cfg.LocalURL)
		if err != nil {
			return nil, nil, err
		}
		return NewStorageUploader(s), s, nil
	default:
		return nil, nil, ErrUnknownStorage
	}
}
