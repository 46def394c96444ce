package mock

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a mock implementation of the Storage interface.
type MockStorage struct {
	mock.Mock
}

// Upload mocks the Upload method. The reader is drained so expectations can inspect
// the payload through Uploaded.
func (m *MockStorage) Upload(ctx context.Context, key string, reader io.Reader, contentType string) error {
	data, _ := io.ReadAll(reader)
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

// Download mocks the Download method.
func (m *MockStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

// Delete mocks the Delete method.
func (m *MockStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// Exists mocks the Exists method.
func (m *MockStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// GetURL mocks the GetURL method.
func (m *MockStorage) GetURL(key string) string {
	args := m.Called(key)
	return args.String(0)
}

// ExpectUpload sets up an expectation for Upload of key with contentType.
func (m *MockStorage) ExpectUpload(key, contentType string, err error) *mock.Call {
	return m.On("Upload", mock.Anything, key, mock.Anything, contentType).Return(err)
}

// ExpectAnyUpload sets up an expectation for any Upload call.
func (m *MockStorage) ExpectAnyUpload(err error) *mock.Call {
	return m.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(err)
}

// ExpectGetURL sets up an expectation for GetURL.
func (m *MockStorage) ExpectGetURL(key, url string) *mock.Call {
	return m.On("GetURL", key).Return(url)
}

// Uploaded returns the payload of the first recorded Upload to key.
func (m *MockStorage) Uploaded(key string) []byte {
	for _, call := range m.Calls {
		if call.Method == "Upload" && call.Arguments.String(1) == key {
			return call.Arguments.Get(2).([]byte)
		}
	}
	return nil
}
