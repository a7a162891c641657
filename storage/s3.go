package storage

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"qrono/config"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

type S3Storage struct {
	bucket   string
	s3Client *s3.S3
	uploader *s3manager.Uploader
}

func NewS3Storage() *S3Storage {
	awsConfig := &aws.Config{
		Region:      aws.String(config.S3_REGION),
		Credentials: credentials.NewStaticCredentials(config.S3_KEY, config.S3_SECRET, ""),
	}
	if config.S3_ENDPOINT != "" {
		awsConfig.Endpoint = aws.String(config.S3_ENDPOINT)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}
	sess := session.Must(session.NewSession(awsConfig))
	client := s3.New(sess)
	return &S3Storage{
		bucket:   config.S3_BUCKET,
		s3Client: client,
		uploader: s3manager.NewUploaderWithClient(client),
	}
}

func (s *S3Storage) Save(path string, reader io.Reader) (int64, error) {
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	input := s3manager.UploadInput{
		Bucket: &s.bucket,
		Key:    aws.String(path),
		Body:   reader,
	}
	if mimeType != "" {
		input.ContentType = &mimeType
	}
	if _, err := s.uploader.Upload(&input); err != nil {
		return 0, err
	}
	// Size isn't reported by the uploader; ask for it
	head, err := s.s3Client.HeadObject(&s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(path),
	})
	if err != nil {
		return 0, nil
	}
	return aws.Int64Value(head.ContentLength), nil
}

func (s *S3Storage) Serve(path string, request *http.Request, writer http.ResponseWriter) {
	resp, err := s.s3Client.GetObject(&s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(path),
	})
	if err != nil {
		if strings.Contains(err.Error(), s3.ErrCodeNoSuchKey) {
			http.NotFound(writer, request)
		} else {
			http.Error(writer, "storage error", http.StatusBadGateway)
		}
		return
	}
	defer resp.Body.Close()
	if resp.ContentType != nil {
		writer.Header().Set("Content-Type", *resp.ContentType)
	}
	if resp.ContentLength != nil {
		writer.Header().Set("Content-Length", strconv.FormatInt(*resp.ContentLength, 10))
	}
	_, _ = io.Copy(writer, resp.Body)
}

// Delete is naturally idempotent: S3 reports success for missing keys
func (s *S3Storage) Delete(path string) error {
	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    aws.String(path),
	})
	return err
}
