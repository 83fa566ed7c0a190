package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"amplify_server/logger"
	"amplify_server/utils"
)

const (
	videoPrefix      = "videos/"
	thumbnailPrefix  = "thumbnails/"
	transcriptPrefix = "transcripts/"

	presignExpiry = 5 * time.Minute
)

var ErrObjectNotFound = errors.New("object not found")

// S3API is the part of *s3.Client the server uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Presigner signs short-lived read URLs.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// StorageService keeps uploaded videos, thumbnails and transcription output in one bucket.
type StorageService struct {
	Client    S3API
	Presigner S3Presigner
	Bucket    string
	Log       logger.Logger
}

func NewStorageService(cfg aws.Config, bucket string, log logger.Logger) *StorageService {
	client := s3.NewFromConfig(cfg)
	return &StorageService{
		Client:    client,
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
		Log:       log,
	}
}

// VideoKey and ThumbnailKey map a stored file name to its object key.
func VideoKey(name string) string     { return videoPrefix + path.Base(name) }
func ThumbnailKey(name string) string { return thumbnailPrefix + path.Base(name) }

// TranscriptKey is where transcription output for a video is written.
func TranscriptKey(videoID string) string { return transcriptPrefix + videoID + ".json" }

func (s *StorageService) BucketName() string { return s.Bucket }

// URI is the s3:// form of key, as other AWS services expect it.
func (s *StorageService) URI(key string) string {
	return "s3://" + s.Bucket + "/" + key
}

// Upload stores size bytes from body at key.
func (s *StorageService) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	s.Log.Info("object stored", map[string]interface{}{"key": key, "size": size})
	return nil
}

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Stat returns ErrObjectNotFound when key does not exist.
func (s *StorageService) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	out, err := s.Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat %s: %w", key, err)
	}
	return &ObjectInfo{Size: aws.ToInt64(out.ContentLength), ContentType: aws.ToString(out.ContentType)}, nil
}

// Open streams key, or the byte span rng of it when rng is non-nil. The caller closes the body.
func (s *StorageService) Open(ctx context.Context, key string, rng *utils.ByteRange) (io.ReadCloser, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}
	if rng != nil {
		in.Range = aws.String(rng.Header())
	}
	out, err := s.Client.GetObject(ctx, in)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return out.Body, nil
}

// ReadObject reads all of key.
func (s *StorageService) ReadObject(ctx context.Context, key string) ([]byte, error) {
	body, err := s.Open(ctx, key, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Delete removes key; a missing key is not an error.
func (s *StorageService) Delete(ctx context.Context, key string) error {
	_, err := s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// PresignRead returns a URL that can read key for a few minutes.
func (s *StorageService) PresignRead(ctx context.Context, key string) (string, error) {
	req, err := s.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	var nf *s3types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
