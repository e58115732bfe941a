package mocks

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of storage.Provider
type MockProvider struct {
	mock.Mock
}

// Name mocks the Name method
func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

// UploadFile mocks the UploadFile method
func (m *MockProvider) UploadFile(ctx context.Context, localPath, name, mimeType string) (string, error) {
	args := m.Called(ctx, localPath, name, mimeType)
	return args.String(0), args.Error(1)
}

// MockS3API is a mock of the S3 PutObject client
type MockS3API struct {
	mock.Mock
}

// PutObject mocks the PutObject method
func (m *MockS3API) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*s3.PutObjectOutput), args.Error(1)
}
