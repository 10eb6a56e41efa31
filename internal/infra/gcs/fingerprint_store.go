package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
)

// DefaultFingerprintObject is the object name, relative to the client prefix,
// holding the last published digest.
const DefaultFingerprintObject = "state/fingerprint.txt"

// FingerprintStore keeps the digest in a single GCS object next to the site.
type FingerprintStore struct {
	client *Client
	object string
}

// NewFingerprintStore stores the digest as object under the client prefix.
// An empty object selects DefaultFingerprintObject.
func NewFingerprintStore(client *Client, object string) *FingerprintStore {
	if object == "" {
		object = DefaultFingerprintObject
	}
	return &FingerprintStore{client: client, object: object}
}

func (s *FingerprintStore) ReadPrevious(ctx context.Context) (fingerprint.Digest, bool, error) {
	data, err := s.client.ReadObject(ctx, s.object)
	if errors.Is(err, ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("FingerprintStore.ReadPrevious: %w", err)
	}

	digest := fingerprint.Digest(strings.TrimSpace(string(data)))
	if digest == "" {
		return "", false, nil
	}
	return digest, true, nil
}

func (s *FingerprintStore) Write(ctx context.Context, digest fingerprint.Digest) error {
	if err := s.client.WriteFile(ctx, s.object, []byte(string(digest)+"\n"), "text/plain; charset=utf-8"); err != nil {
		return fmt.Errorf("FingerprintStore.Write: %w", err)
	}
	return nil
}

var _ fingerprint.Store = (*FingerprintStore)(nil)
