// Управление процессом удаления объектов хранилища. Отслеживает текущие удаления,
// чтобы один и тот же объект не удалялся параллельно несколькими воркерами.
package dao

import (
	"context"
	"sync"
	"time"
)

type DeletionWatcher struct {
	txs map[string]struct{}
	mu  sync.RWMutex
}

func NewDeletionWatcher() *DeletionWatcher {
	return &DeletionWatcher{txs: make(map[string]struct{})}
}

// StartDeletion отмечает начало удаления объекта. Возвращает false, если удаление уже идет.
func (w *DeletionWatcher) StartDeletion(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.txs[id]; ok {
		return false
	}
	w.txs[id] = struct{}{}
	return true
}

func (w *DeletionWatcher) FinishDeletion(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.txs, id)
}

func (w *DeletionWatcher) IsDeleting(id string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	_, ok := w.txs[id]
	return ok
}

// RunningDeletions возвращает список объектов, находящихся в процессе удаления.
func (w *DeletionWatcher) RunningDeletions() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	res := make([]string, 0, len(w.txs))
	for id := range w.txs {
		res = append(res, id)
	}
	return res
}

// WaitAll ждет завершения удаления всех указанных объектов или отмены контекста.
func (w *DeletionWatcher) WaitAll(ctx context.Context, ids []string) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		count := 0
		for _, id := range ids {
			if w.IsDeleting(id) {
				count++
			}
		}
		if count == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
