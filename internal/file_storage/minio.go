package filestorage

import (
	"context"
	"time"

	"github.com/SeakMengs/AutoSign/internal/config"
	"github.com/SeakMengs/AutoSign/internal/util"
	"github.com/SeakMengs/AutoSign/internal/workflow"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

func NewMinioClient(cfg config.MinioConfig) (*minio.Client, error) {
	return minio.New(cfg.ENDPOINT, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.ACCESS_KEY, cfg.SECRET_KEY, ""),
		Secure: cfg.USE_SSL,
		Region: "us-east-1",
	})
}

// Exporter uploads finished documents under templates/<id>/ and hands back
// presigned download URLs.
type Exporter struct {
	s3     *minio.Client
	bucket string
	expiry time.Duration
	logger *zap.SugaredLogger
}

func NewExporter(s3 *minio.Client, bucket string, expiry time.Duration, logger *zap.SugaredLogger) *Exporter {
	return &Exporter{s3: s3, bucket: bucket, expiry: expiry, logger: logger}
}

func (e *Exporter) Export(ctx context.Context, templateID string, files []workflow.ExportFile) ([]workflow.ExportedFile, error) {
	e.logger.Debugf("Export %d files of template %s to bucket %s", len(files), templateID, e.bucket)

	fuo := &util.FileUploadOptions{
		DirectoryPath: util.GetTemplateDirectoryPath(templateID),
		UniquePrefix:  true,
		Bucket:        e.bucket,
		S3:            e.s3,
	}

	exported := make([]workflow.ExportedFile, 0, len(files))
	for _, f := range files {
		info, err := util.UploadBytesToS3(ctx, f.Name, f.Content, fuo)
		if err != nil {
			return nil, err
		}

		url, err := util.PresignedGetObject(ctx, e.s3, e.bucket, info.Key, f.Name, e.expiry)
		if err != nil {
			return nil, err
		}

		exported = append(exported, workflow.ExportedFile{Name: f.Name, Object: info.Key, URL: url})
	}

	return exported, nil
}
