package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	puts   map[string][]byte
	types  map[string]string
	failOn string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.failOn {
		return nil, errors.New("access denied")
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.puts[key] = body
	f.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func newFake() *fakeS3 {
	return &fakeS3{puts: map[string][]byte{}, types: map[string]string{}}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestS3PublisherKey(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "funds-data.json"},
		{"saarthi/data", "saarthi/data/funds-data.json"},
		{"/saarthi/data/", "saarthi/data/funds-data.json"},
	}
	for _, tt := range tests {
		p := newS3Publisher(newFake(), "bucket", tt.prefix)
		if got := p.Key(filepath.Join("/tmp", "out", "funds-data.json")); got != tt.want {
			t.Errorf("Key with prefix %q = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}

func TestS3PublisherPublish(t *testing.T) {
	dir := t.TempDir()
	catalog := writeFile(t, dir, "funds-data.json", `{"funds":{}}`)
	export := writeFile(t, dir, "funds.parquet", "PAR1")

	fake := newFake()
	p := newS3Publisher(fake, "bucket", "data")
	if err := p.Publish(context.Background(), catalog, export); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if string(fake.puts["data/funds-data.json"]) != `{"funds":{}}` {
		t.Errorf("catalog body = %q", fake.puts["data/funds-data.json"])
	}
	if fake.types["data/funds-data.json"] != "application/json" {
		t.Errorf("catalog content type = %q", fake.types["data/funds-data.json"])
	}
	if fake.types["data/funds.parquet"] != "application/octet-stream" {
		t.Errorf("parquet content type = %q", fake.types["data/funds.parquet"])
	}
}

func TestS3PublisherStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "a.json", "{}")
	second := writeFile(t, dir, "b.json", "{}")

	fake := newFake()
	fake.failOn = "a.json"
	err := newS3Publisher(fake, "bucket", "").Publish(context.Background(), first, second)
	if err == nil {
		t.Fatal("expected an upload error")
	}
	if len(fake.puts) != 0 {
		t.Errorf("uploaded %d files after a failure, want 0", len(fake.puts))
	}

	if err := newS3Publisher(newFake(), "bucket", "").Publish(context.Background(), filepath.Join(dir, "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want not-exist", err)
	}
}
