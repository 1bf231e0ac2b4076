package packageinfo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/justapithecus/chocoflow/types"
)

// Service is the PackageInfoService (spec.md §3): the durable per-package
// record store. An I exists from first install until the store drops it,
// and is updated exactly once per successful post-pipeline run (spec.md
// "Lifecycle & invariants").
type Service interface {
	// Get returns the record for metadata. ok is false if no record exists.
	Get(ctx context.Context, metadata types.Metadata) (info types.PackageInformation, ok bool, err error)
	// Save persists info, keyed by info.Metadata.
	Save(ctx context.Context, info types.PackageInformation) error
	// Remove drops the record for metadata, if any.
	Remove(ctx context.Context, metadata types.Metadata) error
	// List returns every persisted record, for "list installed packages"
	// style enumeration (e.g. `choco pin list`). Records that fail to
	// decode are skipped rather than failing the whole listing.
	List(ctx context.Context) ([]types.PackageInformation, error)
}

// RecordStore is the default Service implementation: msgpack-encoded
// PackageInformation records over a pluggable Store (local file tree or
// S3 bucket).
type RecordStore struct {
	store Store
}

// New creates a RecordStore over the given backing Store.
func New(store Store) *RecordStore {
	return &RecordStore{store: store}
}

func (r *RecordStore) Get(ctx context.Context, metadata types.Metadata) (types.PackageInformation, bool, error) {
	data, err := r.store.Get(ctx, recordKey(metadata))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.PackageInformation{}, false, nil
		}
		return types.PackageInformation{}, false, fmt.Errorf("packageinfo: get %s: %w", metadata.ID, err)
	}

	var info types.PackageInformation
	if err := msgpack.Unmarshal(data, &info); err != nil {
		return types.PackageInformation{}, false, fmt.Errorf("packageinfo: decode %s: %w", metadata.ID, err)
	}
	return info, true, nil
}

func (r *RecordStore) Save(ctx context.Context, info types.PackageInformation) error {
	data, err := msgpack.Marshal(&info)
	if err != nil {
		return fmt.Errorf("packageinfo: encode %s: %w", info.Metadata.ID, err)
	}
	if err := r.store.Put(ctx, recordKey(info.Metadata), data); err != nil {
		return fmt.Errorf("packageinfo: save %s: %w", info.Metadata.ID, err)
	}
	return nil
}

func (r *RecordStore) Remove(ctx context.Context, metadata types.Metadata) error {
	if err := r.store.Delete(ctx, recordKey(metadata)); err != nil {
		return fmt.Errorf("packageinfo: remove %s: %w", metadata.ID, err)
	}
	return nil
}

func (r *RecordStore) List(ctx context.Context) ([]types.PackageInformation, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("packageinfo: list: %w", err)
	}

	infos := make([]types.PackageInformation, 0, len(keys))
	for _, key := range keys {
		data, err := r.store.Get(ctx, key)
		if err != nil {
			continue
		}
		var info types.PackageInformation
		if err := msgpack.Unmarshal(data, &info); err != nil {
			continue
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// recordKey derives the Store key for metadata: the lowercased package id
// as a directory, the version as the filename. A missing version (list
// documents and early pipeline stages may not have resolved one yet) falls
// back to "unknown" rather than producing a trailing-slash key.
func recordKey(metadata types.Metadata) string {
	id := strings.ToLower(strings.TrimSpace(metadata.ID))
	version := strings.TrimSpace(metadata.Version)
	if version == "" {
		version = "unknown"
	}
	return id + "/" + version + ".msgpack"
}

var _ Service = (*RecordStore)(nil)
