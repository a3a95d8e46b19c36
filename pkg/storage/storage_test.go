package storage_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockdesk/pkg/storage"
)

func TestLocalDiskRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := storage.NewLocalDisk(t.TempDir(), "")

	require.NoError(t, d.Put(ctx, "images/tee.jpg", []byte("jpeg")))
	assert.True(t, d.Exists(ctx, "images/tee.jpg"))

	size, err := d.Size(ctx, "images/tee.jpg")
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	data, err := d.Get(ctx, "images/tee.jpg")
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))

	require.NoError(t, d.Delete(ctx, "images/tee.jpg"))
	require.NoError(t, d.Delete(ctx, "images/tee.jpg"))
	assert.False(t, d.Exists(ctx, "images/tee.jpg"))
}

func TestLocalDiskMissingFile(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "")
	_, err := d.Open(context.Background(), "nope.png")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLocalDiskRejectsEscape(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "")
	_, err := d.Open(context.Background(), "../../etc/passwd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes the disk root")
}

func TestLocalDiskURL(t *testing.T) {
	d := storage.NewLocalDisk(t.TempDir(), "http://cdn.test/media/")
	assert.Equal(t, "http://cdn.test/media/a/b.png", d.URL("/a/b.png"))
}

func TestManagerResolvesDisks(t *testing.T) {
	ctx := context.Background()
	m := storage.NewManager("local")
	local := storage.NewLocalDisk(t.TempDir(), "")
	m.Register("local", local)
	require.NoError(t, local.Put(ctx, "x.txt", []byte("hi")))

	rc, err := m.Open(ctx, "", "x.txt")
	require.NoError(t, err)
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "hi", string(b))

	_, err = m.Use("s3")
	assert.Error(t, err)
	assert.Equal(t, []string{"local"}, m.Names())
	assert.Same(t, local, m.Default())
}
