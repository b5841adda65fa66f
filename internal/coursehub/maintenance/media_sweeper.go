package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
)

const DefaultSweepAge = 24 * time.Hour

type MediaRefSource interface {
	MediaRefs(ctx context.Context, prop string) (map[string]struct{}, error)
}

type ObjectStorage interface {
	List(ctx context.Context, prefix string, fn func(filestorage.FileInfo) error) error
	Move(ctx context.Context, old string, new string) error
}

// MediaSweeper переносит в "unknown/" видео, на которые не ссылается ни один блок.
// Так собираются объекты, удаление которых не удалось или было отброшено, и брошенные загрузки.
type MediaSweeper struct {
	refs    MediaRefSource
	storage ObjectStorage
	watcher *dao.DeletionWatcher
	prop    string

	minAge time.Duration
	now    func() time.Time
}

func NewMediaSweeper(refs MediaRefSource, storage ObjectStorage, watcher *dao.DeletionWatcher, prop string) *MediaSweeper {
	return &MediaSweeper{
		refs:    refs,
		storage: storage,
		watcher: watcher,
		prop:    prop,
		minAge:  DefaultSweepAge,
		now:     time.Now,
	}
}

// Sweep возвращает количество перенесенных объектов.
func (ms *MediaSweeper) Sweep(ctx context.Context) (int, error) {
	deadline := ms.now().Add(-ms.minAge)

	var candidates []string
	if err := ms.storage.List(ctx, filestorage.VideoPrefix, func(fi filestorage.FileInfo) error {
		if fi.CreatedAt.After(deadline) {
			return nil
		}
		candidates = append(candidates, fi.Name)
		return nil
	}); err != nil {
		return 0, err
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	// Ссылки читаются только после обхода хранилища: объект, привязанный во время обхода, не переносится
	refs, err := ms.refs.MediaRefs(ctx, ms.prop)
	if err != nil {
		return 0, err
	}

	var moved int
	for _, name := range candidates {
		if _, ok := refs[name]; ok {
			continue
		}
		if ms.watcher != nil && ms.watcher.IsDeleting(name) {
			continue
		}
		if err := ms.storage.Move(ctx, name, filestorage.UnknownPrefix+name); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// CleanMedia - задача для cron.
func (ms *MediaSweeper) CleanMedia() {
	slog.Info("Start media cleaning")
	moved, err := ms.Sweep(context.Background())
	if err != nil {
		slog.Error("Clean media fail", "moved", moved, "err", err)
		return
	}
	slog.Info("Finish media cleaning", "moved", moved)
}
