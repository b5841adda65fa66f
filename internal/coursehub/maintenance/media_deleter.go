// Пакет фоновых задач обслуживания медиа-хранилища.
//
// Основные возможности:
//   - MediaDeleter: очередь удаления объектов хранилища с пулом воркеров.
//   - MediaSweeper: периодический перенос объектов, на которые не ссылается ни один блок, в "unknown/".
package maintenance

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const deleteTimeout = 30 * time.Second

type ObjectRemover interface {
	Delete(ctx context.Context, path string) error
}

// MediaDeleter удаляет объекты хранилища в фоне. Ошибки удаления не возвращаются вызывающему,
// они попадают в лог и в метрику coursehub_media_delete_failed_total.
type MediaDeleter struct {
	storage ObjectRemover
	watcher *dao.DeletionWatcher

	queue  chan string
	eg     errgroup.Group
	mu     sync.RWMutex
	closed bool

	failedCounter  prometheus.Counter
	droppedCounter prometheus.Counter
	deletedCounter prometheus.Counter
}

func NewMediaDeleter(storage ObjectRemover, watcher *dao.DeletionWatcher, workers int, queueSize int) *MediaDeleter {
	if workers <= 0 {
		workers = 1
	}
	if watcher == nil {
		watcher = dao.NewDeletionWatcher()
	}

	md := &MediaDeleter{
		storage: storage,
		watcher: watcher,
		queue:   make(chan string, queueSize),
		failedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_media_delete_failed_total",
			Help: "Total count of failed media object deletions",
		}),
		droppedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_media_delete_dropped_total",
			Help: "Total count of media deletions dropped because the queue was full",
		}),
		deletedCounter: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coursehub_media_deleted_total",
			Help: "Total count of deleted media objects",
		}),
	}

	for range workers {
		md.eg.Go(func() error {
			return md.worker(md.queue)
		})
	}
	return md
}

// Register регистрирует метрики удаления.
func (md *MediaDeleter) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{md.failedCounter, md.droppedCounter, md.deletedCounter} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Enqueue ставит объект в очередь на удаление и не блокируется.
// Возвращает false, если объект уже удаляется, очередь заполнена или сервис остановлен.
func (md *MediaDeleter) Enqueue(path string) bool {
	if path == "" {
		return false
	}

	md.mu.RLock()
	defer md.mu.RUnlock()
	if md.closed {
		slog.Warn("Media deleter stopped, skip delete", "path", path)
		return false
	}

	if !md.watcher.StartDeletion(path) {
		slog.Debug("Media delete already in progress", "path", path)
		return false
	}

	select {
	case md.queue <- path:
		return true
	default:
		md.watcher.FinishDeletion(path)
		md.droppedCounter.Inc()
		slog.Warn("Media delete queue is full, object left for sweeper", "path", path)
		return false
	}
}

// Stop закрывает очередь и ждет, пока воркеры удалят уже принятые объекты.
// При отмене ctx возвращает ошибку, неудаленные объекты позже перенесет MediaSweeper.
func (md *MediaDeleter) Stop(ctx context.Context) error {
	md.mu.Lock()
	if md.closed {
		md.mu.Unlock()
		return nil
	}
	md.closed = true
	close(md.queue)
	md.mu.Unlock()

	pending := md.watcher.RunningDeletions()
	slog.Info("Closing media delete workers", "pending", len(pending))
	if err := md.watcher.WaitAll(ctx, pending); err != nil {
		slog.Warn("Media deletions interrupted", "left", len(md.watcher.RunningDeletions()), "err", err)
		return err
	}

	if err := md.eg.Wait(); err != nil {
		slog.Error("Media delete worker", "err", err)
	}
	slog.Info("Media delete workers successfully stopped")
	return nil
}

func (md *MediaDeleter) worker(queue <-chan string) error {
	for path := range queue {
		md.delete(path)
	}
	return nil
}

func (md *MediaDeleter) delete(path string) {
	defer md.watcher.FinishDeletion(path)

	ctx, cancel := context.WithTimeout(context.Background(), deleteTimeout)
	defer cancel()

	if err := md.storage.Delete(ctx, path); err != nil {
		md.failedCounter.Inc()
		slog.Error("Media delete failed", "path", path, "err", err)
		return
	}
	md.deletedCounter.Inc()
	slog.Debug("Media deleted", "path", path)
}
