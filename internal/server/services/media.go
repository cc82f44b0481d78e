package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	sc "github.com/dmitrijs2005/estimatekeeper/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoKeyPrefix is the only part of the bucket devices may presign for.
const PhotoKeyPrefix = "photos/"

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// MediaService hands out presigned URLs for photo binaries. Devices upload
// and download directly against the object store.
type MediaService struct {
	config  *sc.Config
	presign *s3.PresignClient
}

func NewMediaService(ctx context.Context, cfg *sc.Config) (*MediaService, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
		// presigned PUTs must not carry a checksum of the empty body
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})

	return &MediaService{config: cfg, presign: s3.NewPresignClient(client)}, nil
}

// Presign returns a URL valid for method on key for the configured TTL.
func (s *MediaService) Presign(ctx context.Context, key string, method rpc.PresignMethod) (string, error) {
	if err := checkPhotoKey(key); err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	expires := s3.WithPresignExpires(s.config.PresignTTL)

	var (
		req *v4.PresignedHTTPRequest
		err error
	)
	switch method {
	case rpc.PresignPut:
		req, err = presignPutObject(s.presign, ctx, &s3.PutObjectInput{Bucket: &bucket, Key: &key}, expires)
	case rpc.PresignGet:
		req, err = presignGetObject(s.presign, ctx, &s3.GetObjectInput{Bucket: &bucket, Key: &key}, expires)
	default:
		return "", fmt.Errorf("%w: unknown presign method %q", common.ErrorValidation, string(method))
	}
	if err != nil {
		return "", fmt.Errorf("presign %s %s: %w", method, key, err)
	}
	return req.URL, nil
}

func checkPhotoKey(key string) error {
	if !strings.HasPrefix(key, PhotoKeyPrefix) || strings.Contains(key, "..") || strings.HasSuffix(key, "/") {
		return fmt.Errorf("%w: bad photo key %q", common.ErrorValidation, key)
	}
	return nil
}
