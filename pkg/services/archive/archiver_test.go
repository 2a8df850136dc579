package archive

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/de-tools/report-deck/pkg/pptx"
)

type mockObjectPutter struct {
	mock.Mock
	body []byte
}

func (m *mockObjectPutter) PutObject(
	ctx context.Context,
	params *s3.PutObjectInput,
	optFns ...func(*s3.Options),
) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if params.Body != nil {
		m.body, _ = io.ReadAll(params.Body)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "informe_abc.pptx")
	require.NoError(t, os.WriteFile(path, []byte("deck"), 0o644))
	return path
}

func TestArchiver_Store(t *testing.T) {
	putter := new(mockObjectPutter)
	putter.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return *in.Bucket == "reports" && *in.Key == "obras/2024/informe_abc.pptx" && *in.ContentType == pptx.ContentTypePresentation
	})).Return(&s3.PutObjectOutput{}, nil)
	a := NewArchiver(putter, Config{Bucket: "reports", Prefix: "/obras/2024/"})

	location, err := a.Store(context.Background(), writeReport(t))

	require.NoError(t, err)
	assert.Equal(t, "s3://reports/obras/2024/informe_abc.pptx", location)
	assert.Equal(t, []byte("deck"), putter.body)
	putter.AssertExpectations(t)
}

func TestArchiver_Store_UploadError(t *testing.T) {
	putter := new(mockObjectPutter)
	putter.On("PutObject", mock.Anything, mock.Anything).Return(nil, errors.New("access denied"))
	a := NewArchiver(putter, Config{Bucket: "reports"})

	_, err := a.Store(context.Background(), writeReport(t))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://reports/informe_abc.pptx")
	assert.Contains(t, err.Error(), "access denied")
}

func TestArchiver_Store_MissingFile(t *testing.T) {
	putter := new(mockObjectPutter)
	a := NewArchiver(putter, Config{Bucket: "reports"})

	_, err := a.Store(context.Background(), filepath.Join(t.TempDir(), "missing.pptx"))

	assert.ErrorIs(t, err, os.ErrNotExist)
	putter.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything)
}

func TestArchiver_Key(t *testing.T) {
	assert.Equal(t, "a.pptx", NewArchiver(nil, Config{}).Key("a.pptx"))
	assert.Equal(t, "x/y/a.pptx", NewArchiver(nil, Config{Prefix: "x/y"}).Key("a.pptx"))
}
