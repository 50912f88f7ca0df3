package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/claimdesk/pkg/config"
)

func sampleImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	return img
}

func jpegBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sampleImage(), nil))
	return buf.Bytes()
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	return buf.Bytes()
}

func TestDetectImage(t *testing.T) {
	ext, err := DetectImage(jpegBytes(t))
	require.NoError(t, err)
	assert.Equal(t, ".jpg", ext)

	ext, err = DetectImage(pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, ".png", ext)

	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("definitely not an image"),
		"truncated": jpegBytes(t)[:3],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DetectImage(data)
			assert.ErrorIs(t, err, ErrNotImage)
		})
	}
}

func TestLocalStoreSave(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")
	data := jpegBytes(t)

	ref, err := store.Save(context.Background(), "policy", ".jpg", data)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "uploads/policy/"))
	assert.True(t, strings.HasSuffix(ref, ".jpg"))

	written, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(ref)))
	require.NoError(t, err)
	assert.Equal(t, data, written)
	assert.Equal(t, "/media/"+ref, store.URL(ref))
	assert.Empty(t, store.URL(""))
	assert.Equal(t, root, store.Root())
	assert.Equal(t, "/media/", store.BaseURL())

	other, err := store.Save(context.Background(), "policy", ".jpg", data)
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestLocalStoreSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocalStore(t.TempDir(), "/media").Save(ctx, "claim", ".png", pngBytes(t))
	assert.ErrorIs(t, err, context.Canceled)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3StoreSave(t *testing.T) {
	client := &fakeS3{}
	store := NewS3Store(client, "claims-bucket", "https://cdn.example.com")
	data := pngBytes(t)

	ref, err := store.Save(context.Background(), "claim", ".png", data)
	require.NoError(t, err)
	assert.Equal(t, "claims-bucket", aws.ToString(client.input.Bucket))
	assert.Equal(t, ref, aws.ToString(client.input.Key))
	assert.Equal(t, "image/png", aws.ToString(client.input.ContentType))
	assert.Equal(t, data, client.body)
	assert.Equal(t, "https://cdn.example.com/"+ref, store.URL(ref))

	client.err = assert.AnError
	_, err = store.Save(context.Background(), "claim", ".png", data)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestNew(t *testing.T) {
	store, err := New(context.Background(), &config.StorageConfig{Backend: "local", MediaRoot: t.TempDir(), MediaURL: "/media"})
	require.NoError(t, err)
	assert.IsType(t, &LocalStore{}, store)

	_, err = New(context.Background(), &config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)
}
