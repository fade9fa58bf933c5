package attachments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// UploadTTL is how long a pre-signed upload URL stays valid. It is
// independent of any request deadline.
const UploadTTL = 300 * time.Second

// Authorization grants a time-limited write to one object. PublicURL is the
// canonical object location once the upload completes: the signed URL with
// its authorization query stripped.
type Authorization struct {
	UploadURL string
	PublicURL string
	ExpiresIn time.Duration
}

type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Store struct {
	Presigner Presigner
	Bucket    string
}

func NewStore(client *s3.Client, bucket string) *Store {
	return &Store{
		Presigner: s3.NewPresignClient(client),
		Bucket:    bucket,
	}
}

func (s *Store) CreateUploadAuthorization(ctx context.Context, objectKey string) (Authorization, error) {
	req, err := s.Presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(UploadTTL))
	if err != nil {
		return Authorization{}, fmt.Errorf("presign put object %s/%s: %w", s.Bucket, objectKey, err)
	}

	publicURL, _, _ := strings.Cut(req.URL, "?")
	return Authorization{
		UploadURL: req.URL,
		PublicURL: publicURL,
		ExpiresIn: UploadTTL,
	}, nil
}
