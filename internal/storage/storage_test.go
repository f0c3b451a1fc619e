package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/iqamah/internal/fetch"
)

func TestDocumentNames(t *testing.T) {
	assert.Equal(t, "mosques/example-mosque/march.json", MonthlyDocument("example-mosque", "march"))
	assert.Equal(t, "mosques/example-mosque/ramadan.json", RamadanDocument("example-mosque"))
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	ls := NewLocalStorage(t.TempDir())

	_, err := ls.Read(ctx, MonthlyDocument("example-mosque", "march"))
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, ls.Write(ctx, MonthlyDocument("example-mosque", "march"), []byte(`{"month":"march"}`)))
	require.NoError(t, ls.Write(ctx, RamadanDocument("example-mosque"), []byte(`{}`)))
	require.NoError(t, ls.Write(ctx, MonthlyDocument("other-mosque", "april"), []byte(`{}`)))

	data, err := ls.Read(ctx, "mosques/example-mosque/march.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"march"}`, string(data))

	slugs, err := ls.List(ctx, "mosques")
	require.NoError(t, err)
	assert.Equal(t, []string{"example-mosque", "other-mosque"}, slugs)

	docs, err := ls.List(ctx, "mosques/example-mosque")
	require.NoError(t, err)
	assert.Equal(t, []string{"march.json", "ramadan.json"}, docs)

	missing, err := ls.List(ctx, "mosques/nobody")
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ls := NewLocalStorage(t.TempDir())
	for _, name := range []string{"../secret.json", "mosques/../../etc/passwd", ""} {
		_, err := ls.Read(context.Background(), name)
		assert.Error(t, err, name)
		assert.NotErrorIs(t, err, ErrNotFound, name)
	}
}

func TestHTTPStorage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/data/mosques/example-mosque/march.json":
			_, _ = w.Write([]byte(`{"month":"march"}`))
		case "/data/mosques/index.json":
			_, _ = w.Write([]byte(`["example-mosque"]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	hs := NewHTTPStorage(srv.URL+"/data/", fetch.NewClient(fetch.Options{}))
	ctx := context.Background()

	data, err := hs.Read(ctx, MonthlyDocument("example-mosque", "march"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"march"}`, string(data))

	_, err = hs.Read(ctx, RamadanDocument("example-mosque"))
	assert.ErrorIs(t, err, ErrNotFound)

	slugs, err := hs.List(ctx, "mosques")
	require.NoError(t, err)
	assert.Equal(t, []string{"example-mosque"}, slugs)

	assert.ErrorIs(t, hs.Write(ctx, "mosques/x/march.json", nil), ErrReadOnly)
}

type fakeS3 struct {
	s3iface.S3API
	objects map[string][]byte
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "missing", nil)
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.StringValue(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	prefix := aws.StringValue(in.Prefix)
	seen := map[string]bool{}
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := strings.TrimPrefix(key, prefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			p := prefix + rest[:i+1]
			if !seen[p] {
				seen[p] = true
				out.CommonPrefixes = append(out.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(p)})
			}
			continue
		}
		out.Contents = append(out.Contents, &s3.Object{Key: aws.String(key)})
	}
	fn(out, true)
	return nil
}

func TestSpacesStorage(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}}
	ss := NewSpacesStorageWithClient(client, "calendars", "/static/")
	ctx := context.Background()

	require.NoError(t, ss.Write(ctx, RamadanDocument("example-mosque"), []byte(`{"month":"ramadan"}`)))
	assert.Contains(t, client.objects, "static/mosques/example-mosque/ramadan.json")

	data, err := ss.Read(ctx, RamadanDocument("example-mosque"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"month":"ramadan"}`, string(data))

	_, err = ss.Read(ctx, MonthlyDocument("example-mosque", "march"))
	assert.ErrorIs(t, err, ErrNotFound)

	slugs, err := ss.List(ctx, "mosques")
	require.NoError(t, err)
	assert.Equal(t, []string{"example-mosque"}, slugs)
}
