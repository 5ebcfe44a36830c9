package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"resume-match/internal/pkg/logging"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_PutOpenRoundTrip(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	ref, err := st.Put(context.Background(), "resumes/a.pdf", strings.NewReader("%PDF-1.4 data"))
	require.NoError(t, err)
	assert.Equal(t, "resumes/a.pdf", ref)

	rc, err := st.Open(context.Background(), ref)
	require.NoError(t, err)
	defer rc.Close()
	b, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 data", string(b))
}

func TestLocal_NeverOverwrites(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, err := st.Put(ctx, "resumes/a.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	second, err := st.Put(ctx, "resumes/a.pdf", strings.NewReader("two"))
	require.NoError(t, err)

	assert.Equal(t, "resumes/a.pdf", first)
	assert.Equal(t, "resumes/a_2.pdf", second)

	rc, err := st.Open(ctx, first)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "one", string(b))
}

func TestLocal_RejectsEscapingNames(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = st.Put(context.Background(), "", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidName)

	ref, err := st.Put(context.Background(), "../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", ref)
}

func TestLocal_OpenMissing(t *testing.T) {
	st, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	_, err = st.Open(context.Background(), "resumes/missing.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}

type fakeObjectAPI struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeObjectAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeObjectAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3_PutUsesPrefixAndAvoidsCollisions(t *testing.T) {
	api := &fakeObjectAPI{objects: map[string][]byte{}}
	st := NewS3WithClient(api, "bucket", "/uploads/", logging.Discard())
	ctx := context.Background()

	ref, err := st.Put(ctx, "resumes/a.pdf", strings.NewReader("one"))
	require.NoError(t, err)
	assert.Equal(t, "resumes/a.pdf", ref)
	assert.Contains(t, api.objects, "uploads/resumes/a.pdf")

	ref2, err := st.Put(ctx, "resumes/a.pdf", strings.NewReader("two"))
	require.NoError(t, err)
	assert.Equal(t, "resumes/a_2.pdf", ref2)

	rc, err := st.Open(ctx, ref)
	require.NoError(t, err)
	b, _ := io.ReadAll(rc)
	assert.Equal(t, "one", string(b))

	_, err = st.Open(ctx, "resumes/none.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
