package attachments

import (
	"context"
	"errors"
	"testing"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakePresigner struct {
	gotInput *s3.PutObjectInput
	gotOpts  s3.PresignOptions
	url      string
	err      error
}

func (f *fakePresigner) PresignPutObject(_ context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.gotInput = params
	for _, fn := range optFns {
		fn(&f.gotOpts)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: f.url, Method: "PUT"}, nil
}

func TestCreateUploadAuthorization_StripsSigningQuery(t *testing.T) {
	presigner := &fakePresigner{
		url: "https://todo-attachments.s3.amazonaws.com/todo-1?X-Amz-Algorithm=AWS4-HMAC-SHA256&X-Amz-Signature=abc123",
	}
	store := &Store{Presigner: presigner, Bucket: "todo-attachments"}

	auth, err := store.CreateUploadAuthorization(context.Background(), "todo-1")
	if err != nil {
		t.Fatalf("CreateUploadAuthorization returned error: %v", err)
	}
	if auth.UploadURL != presigner.url {
		t.Fatalf("upload URL mismatch: got %q", auth.UploadURL)
	}
	if auth.PublicURL != "https://todo-attachments.s3.amazonaws.com/todo-1" {
		t.Fatalf("public URL not stripped: got %q", auth.PublicURL)
	}
	if auth.UploadURL == auth.PublicURL {
		t.Fatal("upload URL and public URL should differ")
	}
	if auth.ExpiresIn != UploadTTL {
		t.Fatalf("unexpected expiry: got %s want %s", auth.ExpiresIn, UploadTTL)
	}
}

func TestCreateUploadAuthorization_PassesBucketKeyAndExpiry(t *testing.T) {
	presigner := &fakePresigner{url: "https://bucket.example.com/key?sig=1"}
	store := &Store{Presigner: presigner, Bucket: "bucket"}

	if _, err := store.CreateUploadAuthorization(context.Background(), "key"); err != nil {
		t.Fatalf("CreateUploadAuthorization returned error: %v", err)
	}
	if presigner.gotInput == nil || presigner.gotInput.Bucket == nil || *presigner.gotInput.Bucket != "bucket" {
		t.Fatalf("unexpected bucket in input: %+v", presigner.gotInput)
	}
	if presigner.gotInput.Key == nil || *presigner.gotInput.Key != "key" {
		t.Fatalf("unexpected key in input: %+v", presigner.gotInput)
	}
	if presigner.gotOpts.Expires != UploadTTL {
		t.Fatalf("unexpected presign expiry: got %s want %s", presigner.gotOpts.Expires, UploadTTL)
	}
}

func TestCreateUploadAuthorization_PresignError(t *testing.T) {
	presigner := &fakePresigner{err: errors.New("signing unavailable")}
	store := &Store{Presigner: presigner, Bucket: "bucket"}

	if _, err := store.CreateUploadAuthorization(context.Background(), "key"); err == nil {
		t.Fatal("expected error from presigner")
	}
}
