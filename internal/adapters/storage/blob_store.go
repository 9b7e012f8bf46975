package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/sirupsen/logrus"
)

// BlobStore uploads rendered reports to Azure Blob Storage. Uploads
// overwrite by key, which makes the report pipeline safe to re-run.
type BlobStore struct {
	client *azblob.Client
	log    *logrus.Entry
}

func NewBlobStore(connStr string, log *logrus.Logger) (*BlobStore, error) {
	client, err := azblob.NewClientFromConnectionString(connStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create blob client: %w", err)
	}
	return &BlobStore{
		client: client,
		log:    log.WithField("component", "blob_store"),
	}, nil
}

// Upload writes body under container/key, replacing any existing blob. The
// body is rewound first: a freshly written buffer leaves its cursor at
// end-of-stream.
func (s *BlobStore) Upload(ctx context.Context, container string, body io.ReadSeeker, key string) error {
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind upload body: %w", err)
	}

	if _, err := s.client.UploadStream(ctx, container, key, body, nil); err != nil {
		return fmt.Errorf("upload %s/%s: %w", container, key, err)
	}
	s.log.Infof("uploaded %s/%s", container, key)
	return nil
}
