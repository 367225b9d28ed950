package blob

import (
	"context"
	"fmt"

	"github.com/iliyamo/wedding-seating/internal/config"
)

// NewFromConfig builds the store selected by cfg.Backend, wrapped in age
// encryption when a recipient is configured.
func NewFromConfig(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.BlobBackendMemory:
		store = NewMemory()
	case config.BlobBackendFS, "":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem blob store requires BLOB_DIR to be set")
		}
		store, err = NewFileSystem(cfg.Dir)
	case config.BlobBackendS3:
		store, err = NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown blob backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	if cfg.AgeRecipient != "" {
		return NewEncrypted(store, cfg.AgeRecipient, cfg.AgeIdentity)
	}
	return store, nil
}
