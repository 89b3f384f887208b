// Package s3sheet reads CSV sheet exports from an S3-compatible bucket
// (AWS S3 or MinIO). Sheet <Name> is stored at <Prefix><Name>.csv.
package s3sheet

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/JonMunkholm/eventmap/internal/core"
	"github.com/JonMunkholm/eventmap/internal/source/csvsheet"
)

// Config holds explicit construction parameters. Empty credentials fall
// back to the default AWS credentials chain.
type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string
	SecretAccessKey string
	PathStyle       bool

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client
}

// GetObjectAPI is the subset of *s3.Client the loader uses.
type GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Loader fetches one object per sheet.
type Loader struct {
	client GetObjectAPI
	bucket string
	prefix string
}

var _ core.SheetLoader = (*Loader)(nil)

// New builds an S3 client from cfg and wraps it in a Loader.
func New(ctx context.Context, cfg Config) (*Loader, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		if cfg.HTTPClient != nil {
			o.HTTPClient = cfg.HTTPClient
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client GetObjectAPI, bucket, prefix string) *Loader {
	return &Loader{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key of a sheet.
func (l *Loader) Key(name core.SheetName) string {
	return l.prefix + string(name) + csvsheet.Extension
}

// LoadSheet implements core.SheetLoader. A missing object is
// core.ErrSheetNotFound.
func (l *Loader) LoadSheet(ctx context.Context, name core.SheetName) (core.Table, error) {
	key := l.Key(name)
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &l.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return core.Table{}, fmt.Errorf("s3://%s/%s: %w", l.bucket, key, core.ErrSheetNotFound)
		}
		return core.Table{}, fmt.Errorf("get s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	t, err := csvsheet.ReadTable(out.Body)
	if err != nil {
		return core.Table{}, fmt.Errorf("s3://%s/%s: %w", l.bucket, key, err)
	}
	return t, nil
}

func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}
