package certsource

import (
	"context"
	"fmt"
	"io/ioutil"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

const s3Scheme = "s3://"

// subset of s3iface.S3API that we use, so tests can fake it
type s3Client interface {
	GetObjectWithContext(aws.Context, *s3.GetObjectInput, ...request.Option) (*s3.GetObjectOutput, error)
	ListObjectsV2PagesWithContext(aws.Context, *s3.ListObjectsV2Input, func(*s3.ListObjectsV2Output, bool) bool, ...request.Option) error
}

// reads PEM X.509 certificates from S3 buckets. references look like s3://bucket/key
type S3Bucket struct {
	s3 s3Client
}

var _ DateSource = (*S3Bucket)(nil)

func NewS3Bucket(region string) (*S3Bucket, error) {
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return nil, err
	}

	return &S3Bucket{s3.New(sess)}, nil
}

func (b *S3Bucket) ExpirationDate(ctx context.Context, ref Reference) (time.Time, error) {
	bucket, key, err := ParseS3Location(ref.Location)
	if err != nil {
		return time.Time{}, &DateExtractionError{ref.Location, err}
	}

	obj, err := b.s3.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return time.Time{}, &DateExtractionError{ref.Location, err}
	}
	defer obj.Body.Close()

	certPem, err := ioutil.ReadAll(obj.Body)
	if err != nil {
		return time.Time{}, &DateExtractionError{ref.Location, err}
	}

	return parseExpiration(ref.Location, certPem)
}

// certificate objects directly under location's prefix. "subdirectories" are not descended into
func (b *S3Bucket) List(ctx context.Context, location string) ([]Reference, error) {
	bucket, prefix, err := ParseS3Location(location)
	if err != nil {
		return nil, err
	}

	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	refs := []Reference{}

	if err := b.s3.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			key := aws.StringValue(obj.Key)
			if !hasCertificateExtension(key) {
				continue
			}

			refs = append(refs, Reference{
				Name:     path.Base(key),
				Location: s3Scheme + bucket + "/" + key,
			})
		}

		return true
	}); err != nil {
		return nil, err
	}

	return refs, nil
}

// "s3://bucket/dir/cert.pem" => ("bucket", "dir/cert.pem")
func ParseS3Location(location string) (string, string, error) {
	if !strings.HasPrefix(location, s3Scheme) {
		return "", "", fmt.Errorf("not an S3 location: %s", location)
	}

	bucketAndKey := strings.SplitN(strings.TrimPrefix(location, s3Scheme), "/", 2)
	if bucketAndKey[0] == "" {
		return "", "", fmt.Errorf("S3 location without bucket: %s", location)
	}

	if len(bucketAndKey) == 1 {
		return bucketAndKey[0], "", nil
	}

	return bucketAndKey[0], bucketAndKey[1], nil
}
