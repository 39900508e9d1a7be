package album

import (
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"smartmirror/util"
)

// S3Lister serves albums addressed as s3://bucket/prefix, listing the image
// objects under the prefix in key order. Objects are streamed back through
// the proxy since bucket contents are not otherwise reachable from a browser.
type S3Lister struct {
	client *s3.Client
}

// NewS3Lister loads the shared AWS configuration, optionally from a named
// profile. Credential resolution follows the SDK defaults.
func NewS3Lister(profile string) (*S3Lister, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var opts []func(*awsconfig.LoadOptions) error
	if profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(profile))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return &S3Lister{client: s3.NewFromConfig(cfg)}, nil
}

// ParseS3URL splits an s3://bucket/prefix album URL into bucket and prefix.
func ParseS3URL(albumURL string) (bucket, prefix string, err error) {
	u, err := url.Parse(albumURL)
	if err != nil {
		return "", "", fmt.Errorf("invalid s3 url %s: %w", albumURL, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("not an s3 url: %s", albumURL)
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

func (l *S3Lister) List(ctx context.Context, albumURL string) ([]string, error) {
	bucket, prefix, err := ParseS3URL(albumURL)
	if err != nil {
		return nil, err
	}

	output, err := l.client.ListObjectsV2(
		ctx,
		&s3.ListObjectsV2Input{
			Bucket: aws.String(bucket),
			Prefix: aws.String(prefix),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects in %s: %w", bucket, err)
	}

	var urls []string
	for _, object := range output.Contents {
		key := aws.ToString(object.Key)
		if !util.SupportedImageExt.Contains(filepath.Ext(key)) {
			continue
		}
		urls = append(urls, "s3://"+bucket+"/"+key)
	}

	return urls, nil
}

// FetchObject downloads a single object and returns its bytes plus a content
// type inferred from the key extension.
func (l *S3Lister) FetchObject(ctx context.Context, objectURL string) ([]byte, string, error) {
	bucket, key, err := ParseS3URL(objectURL)
	if err != nil {
		return nil, "", err
	}

	downloader := manager.NewDownloader(l.client)
	buf := manager.NewWriteAtBuffer([]byte{})
	if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}); err != nil {
		return nil, "", fmt.Errorf("unable to download object from s3, %s, %w", objectURL, err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return buf.Bytes(), contentType, nil
}
