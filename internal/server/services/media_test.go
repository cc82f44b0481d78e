package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/dmitrijs2005/estimatekeeper/internal/common"
	"github.com/dmitrijs2005/estimatekeeper/internal/rpc"
	sc "github.com/dmitrijs2005/estimatekeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mediaConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.S3AccessKey = "minioadmin"
	cfg.S3SecretKey = "minioadmin"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3Bucket = "estimates"
	cfg.PresignTTL = 10 * time.Minute
	return cfg
}

func TestMedia_Presign(t *testing.T) {
	svc, err := NewMediaService(context.Background(), mediaConfig())
	require.NoError(t, err)

	for _, method := range []rpc.PresignMethod{rpc.PresignPut, rpc.PresignGet} {
		t.Run(string(method), func(t *testing.T) {
			raw, err := svc.Presign(context.Background(), "photos/e1/p1.jpg", method)
			require.NoError(t, err)

			u, err := url.Parse(raw)
			require.NoError(t, err)
			assert.Equal(t, "127.0.0.1:9000", u.Host)
			assert.True(t, strings.HasSuffix(u.Path, "/estimates/photos/e1/p1.jpg"), "path-style url, got %s", u.Path)
			assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
			assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
		})
	}
}

func TestMedia_Presign_RejectsKeys(t *testing.T) {
	svc, err := NewMediaService(context.Background(), mediaConfig())
	require.NoError(t, err)

	for _, key := range []string{"", "users/u1/secret", "photos/../users/x", "photos/e1/"} {
		_, err := svc.Presign(context.Background(), key, rpc.PresignGet)
		require.ErrorIs(t, err, common.ErrorValidation, key)
	}

	_, err = svc.Presign(context.Background(), "photos/e1/p1.jpg", rpc.PresignMethod("delete"))
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestNewMediaService_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "us-east-1", lo.Region)
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewMediaService(context.Background(), mediaConfig())
	require.ErrorContains(t, err, "load-fail")
}
