package storage

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type stubPutter struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (s *stubPutter) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.inputs = append(s.inputs, params)
	data, _ := io.ReadAll(params.Body)
	s.bodies = append(s.bodies, string(data))
	if s.err != nil {
		return nil, s.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3PutBuildsKeyFromPrefix(t *testing.T) {
	client := &stubPutter{}
	store := newS3WithClient(client, "bucket", "uploads/", zap.NewNop())

	obj, err := store.Put(context.Background(), "image-1.jpg", strings.NewReader("abc"), 3, "image/jpeg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Location != "s3://bucket/uploads/image-1.jpg" {
		t.Fatalf("unexpected location: %s", obj.Location)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected 1 put, got %d", len(client.inputs))
	}
	in := client.inputs[0]
	if aws.ToString(in.Key) != "uploads/image-1.jpg" || aws.ToString(in.Bucket) != "bucket" {
		t.Fatalf("unexpected destination: %s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
	if aws.ToInt64(in.ContentLength) != 3 || aws.ToString(in.ContentType) != "image/jpeg" {
		t.Fatalf("unexpected metadata: length=%d type=%s", aws.ToInt64(in.ContentLength), aws.ToString(in.ContentType))
	}
	if client.bodies[0] != "abc" {
		t.Fatalf("unexpected body: %q", client.bodies[0])
	}
}

func TestS3PutPropagatesErrors(t *testing.T) {
	store := newS3WithClient(&stubPutter{err: errors.New("access denied")}, "bucket", "", zap.NewNop())

	if _, err := store.Put(context.Background(), "image-1.jpg", strings.NewReader("abc"), 3, ""); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestJoinKey(t *testing.T) {
	cases := map[string]string{
		"":         "a.jpg",
		"uploads":  "uploads/a.jpg",
		"uploads/": "uploads/a.jpg",
	}
	for prefix, want := range cases {
		if got := joinKey(prefix, "a.jpg"); got != want {
			t.Fatalf("joinKey(%q) = %q, want %q", prefix, got, want)
		}
	}
}
