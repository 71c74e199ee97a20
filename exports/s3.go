// Package exports writes measure snapshots to S3.
package exports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"iot-dashboard/entities"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Result describes a finished export.
type Result struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key"`
	Location string `json:"location"`
	Count    int    `json:"count"`
}

type S3Exporter struct {
	uploader uploader
	bucket   string
	prefix   string
	now      func() time.Time
}

func NewS3Exporter(ctx context.Context, region, bucket, prefix string) (*S3Exporter, error) {
	if bucket == "" {
		return nil, errors.New("S3 bucket must not be empty")
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	logrus.WithFields(logrus.Fields{"bucket": bucket, "region": region}).Info("S3 export enabled")
	return &S3Exporter{
		uploader: manager.NewUploader(s3.NewFromConfig(cfg)),
		bucket:   bucket,
		prefix:   prefix,
		now:      time.Now,
	}, nil
}

// Key names the object of an export started at t.
func (e *S3Exporter) Key(t time.Time) string {
	return e.prefix + "measures-" + t.UTC().Format("20060102T150405.000Z") + ".json"
}

// Export uploads measures as a JSON array.
func (e *S3Exporter) Export(ctx context.Context, measures []entities.Measure) (*Result, error) {
	if measures == nil {
		measures = []entities.Measure{}
	}
	body, err := json.Marshal(measures)
	if err != nil {
		return nil, fmt.Errorf("encoding export: %w", err)
	}
	key := e.Key(e.now())
	out, err := e.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", key, err)
	}
	return &Result{Bucket: e.bucket, Key: key, Location: out.Location, Count: len(measures)}, nil
}
