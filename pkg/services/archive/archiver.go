package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/de-tools/report-deck/pkg/pptx"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Bucket string
	Prefix string
}

// Archiver keeps a copy of every generated report in S3.
type Archiver struct {
	client ObjectPutter
	config Config
}

func NewArchiver(client ObjectPutter, config Config) *Archiver {
	return &Archiver{client: client, config: config}
}

// Key returns the object key used for the file name.
func (a *Archiver) Key(name string) string {
	prefix := strings.Trim(a.config.Prefix, "/")
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// Store uploads the file at localPath and returns the s3:// location.
func (a *Archiver) Store(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	key := a.Key(filepath.Base(localPath))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.config.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(pptx.ContentTypePresentation),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", a.config.Bucket, key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", a.config.Bucket, key)
	zerolog.Ctx(ctx).Info().Str("location", location).Msg("report archived")
	return location, nil
}
