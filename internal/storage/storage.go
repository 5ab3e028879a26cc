// Package storage stores document bytes and hands back a retrievable
// locator. Two backends exist: local disk for single-node deployments and
// S3-compatible object storage.
package storage

import "context"

type Storage interface {
	// Store writes data under folder using originalName only for its
	// extension, and returns the storage path/key.
	Store(ctx context.Context, data []byte, folder, originalName string) (string, error)
	Exists(ctx context.Context, path string) (bool, error)
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, path string) error
	// URLFor returns a URL the stored blob can be fetched from.
	URLFor(ctx context.Context, path string) (string, error)
}
