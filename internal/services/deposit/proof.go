package deposit

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"

	"hydrofund/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Proof is an uploaded payment screenshot.
type Proof struct {
	Name string
	Body io.Reader
}

// ProofStore keeps deposit proofs out of the database.
type ProofStore interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

// objectPutter is the slice of the S3 client the proof store uses.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3ProofStore struct {
	client objectPutter
	bucket string
}

// NewS3ProofStore builds a client for any S3-compatible endpoint (R2, MinIO,
// AWS). Static credentials are used when given, otherwise the default chain.
func NewS3ProofStore(ctx context.Context, cfg config.S3Config) (*S3ProofStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3ProofStore{client: client, bucket: cfg.Bucket}, nil
}

func (p *S3ProofStore) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// proofKey places proofs under the owning deposit and keeps the extension.
func proofKey(depositID, name string) (string, string) {
	ext := path.Ext(name)
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "deposits/" + depositID + "/proof" + ext, contentType
}
