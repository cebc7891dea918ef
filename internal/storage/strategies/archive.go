package strategies

import (
	"context"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/newthinker/stratbench/internal/core"
	"github.com/newthinker/stratbench/internal/storage/archive"
	"github.com/newthinker/stratbench/internal/strategy/custom"
)

const archivePrefix = "strategies"

// ArchiveStore keeps one JSON object per definition in blob storage,
// under strategies/<id>.json.
type ArchiveStore struct {
	storage archive.Storage
	mu      sync.Mutex // serialises read-modify-write in Save
	now     func() time.Time
}

// NewArchiveStore creates a store backed by storage.
func NewArchiveStore(storage archive.Storage) *ArchiveStore {
	return &ArchiveStore{storage: storage, now: time.Now}
}

func objectPath(id string) string {
	return path.Join(archivePrefix, id+".json")
}

func (a *ArchiveStore) Get(ctx context.Context, id string) (*custom.Strategy, error) {
	if !validID(id) {
		return nil, notFound(id)
	}
	data, err := a.storage.Read(ctx, objectPath(id))
	if errors.Is(err, archive.ErrNotExist) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, errors.Wrapf(err, "reading %s", id))
	}

	var def custom.Strategy
	if err := sonic.Unmarshal(data, &def); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, errors.Wrapf(err, "decoding %s", id))
	}
	return &def, nil
}

func (a *ArchiveStore) List(ctx context.Context) ([]*custom.Strategy, error) {
	paths, err := a.storage.List(ctx, archivePrefix)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, errors.Wrap(err, "listing strategies"))
	}

	out := make([]*custom.Strategy, 0, len(paths))
	for _, p := range paths {
		if path.Ext(p) != ".json" {
			continue
		}
		id := strings.TrimSuffix(path.Base(p), ".json")
		def, err := a.Get(ctx, id)
		if errors.Is(err, core.ErrNotFound) {
			// deleted between List and Read
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, def)
	}
	sortByCreated(out)
	return out, nil
}

func (a *ArchiveStore) Save(ctx context.Context, def *custom.Strategy) (*custom.Strategy, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var existing *custom.Strategy
	if def != nil && validID(def.ID) {
		e, err := a.Get(ctx, def.ID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, err
		}
		existing = e
	}

	stored, err := stamp(def, existing, a.now())
	if err != nil {
		return nil, err
	}
	data, err := sonic.Marshal(stored)
	if err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, errors.Wrap(err, "encoding strategy"))
	}
	if err := a.storage.Write(ctx, objectPath(stored.ID), data); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed, errors.Wrapf(err, "writing %s", stored.ID))
	}
	return stored, nil
}

func (a *ArchiveStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return notFound(id)
	}

	// S3 deletes of missing keys succeed, so check first
	exists, err := a.storage.Exists(ctx, objectPath(id))
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, errors.Wrapf(err, "checking %s", id))
	}
	if !exists {
		return notFound(id)
	}

	err = a.storage.Delete(ctx, objectPath(id))
	if errors.Is(err, archive.ErrNotExist) {
		return notFound(id)
	}
	if err != nil {
		return core.WrapError(core.ErrStorageFailed, errors.Wrapf(err, "deleting %s", id))
	}
	return nil
}
