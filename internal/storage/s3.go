package storage

import (
	"alcyxob/wellness-app/internal/config"
	"alcyxob/wellness-app/internal/domain"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Exporter implements MetricsExporter against an S3-compatible backend.
type s3Exporter struct {
	client     *s3.Client
	bucketName string
	prefix     string
}

// NewS3Exporter creates the exporter. Supports S3-compatible endpoints
// (MinIO, Spaces) via a custom resolver and path-style addressing.
func NewS3Exporter(cfg config.S3Config, prefix string) (MetricsExporter, error) {
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true // required by most S3-compatible services
	})

	log.Printf("S3 metrics exporter initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	return &s3Exporter{
		client:     s3Client,
		bucketName: cfg.BucketName,
		prefix:     prefix,
	}, nil
}

// ExportMetrics uploads the day's metrics as one JSONL object keyed by
// date, so reruns replace rather than accumulate.
func (e *s3Exporter) ExportMetrics(ctx context.Context, date string, metrics []domain.DailyCalendarMetrics) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range metrics {
		if err := enc.Encode(&metrics[i]); err != nil {
			return "", fmt.Errorf("encode metrics row: %w", err)
		}
	}

	objectKey := fmt.Sprintf("%s/calendar-metrics/%s.jsonl", e.prefix, date)

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("upload metrics object %s: %w", objectKey, err)
	}
	return objectKey, nil
}
