// Package testutil provides test data generators.
package testutil

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// TestDataGenerator provides methods for generating test data.
type TestDataGenerator struct {
	rand *rand.Rand
}

// NewTestDataGenerator creates a new test data generator with a seeded random source.
func NewTestDataGenerator(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		rand: rand.New(rand.NewSource(seed)),
	}
}

// Bytes returns size pseudo-random bytes from the generator's source.
func (g *TestDataGenerator) Bytes(size int) []byte {
	data := make([]byte, size)
	_, _ = g.rand.Read(data)
	return data
}

// GenerateMultipartUpload generates a test multipart upload structure.
func (g *TestDataGenerator) GenerateMultipartUpload(key, uploadID string) types.MultipartUpload {
	return types.MultipartUpload{
		Key:          StringPtr(key),
		UploadId:     StringPtr(uploadID),
		StorageClass: types.StorageClassStandard,
		Initiated:    TimePtr(time.Now()),
	}
}

// GenerateMultipartUploads generates count uploads for keys sharing a prefix.
// Upload ids are "upload-<i>".
func (g *TestDataGenerator) GenerateMultipartUploads(count int, prefix string) []types.MultipartUpload {
	uploads := make([]types.MultipartUpload, count)
	for i := 0; i < count; i++ {
		uploads[i] = g.GenerateMultipartUpload(
			fmt.Sprintf("%sobject-%04d", prefix, i),
			fmt.Sprintf("upload-%d", i),
		)
	}
	return uploads
}

// GenerateParts describes parts first..last of data split into partSize chunks,
// as a ListParts response would.
func (g *TestDataGenerator) GenerateParts(data []byte, partSize, first, last int) []types.Part {
	parts := make([]types.Part, 0, last-first+1)
	for n := first; n <= last; n++ {
		start := (n - 1) * partSize
		end := start + partSize
		if end > len(data) {
			end = len(data)
		}
		chunk := data[start:end]
		parts = append(parts, types.Part{
			PartNumber: Int32Ptr(int32(n)),
			Size:       Int64Ptr(int64(len(chunk))),
			ETag:       StringPtr(CalculateETag(chunk)),
		})
	}
	return parts
}

// GenerateCompletedParts generates completed multipart upload parts.
func (g *TestDataGenerator) GenerateCompletedParts(count int) []types.CompletedPart {
	parts := make([]types.CompletedPart, count)

	for i := 0; i < count; i++ {
		parts[i] = types.CompletedPart{
			PartNumber: Int32Ptr(int32(i + 1)),
			ETag:       StringPtr(fmt.Sprintf(`"%x"`, g.rand.Int63())),
		}
	}

	return parts
}
