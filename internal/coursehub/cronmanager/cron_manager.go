// Пакет для запуска периодических задач обслуживания по расписанию cron.
package cronmanager

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

type Job struct {
	Func     func()
	Schedule string
}

type JobRegistry map[string]Job

type CronManager struct {
	dispatcher *cron.Cron
	entries    map[string]cron.EntryID
	registry   JobRegistry
	mu         sync.Mutex
}

// slogAdapter передает сообщения планировщика в slog.
type slogAdapter struct{}

func (slogAdapter) Info(msg string, keysAndValues ...any) {
	slog.Debug("cron: "+msg, keysAndValues...)
}

func (slogAdapter) Error(err error, msg string, keysAndValues ...any) {
	slog.Error("cron: "+msg, append(keysAndValues, "err", err)...)
}

func NewCronManager(registry JobRegistry) *CronManager {
	logger := slogAdapter{}
	return &CronManager{
		dispatcher: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		entries:  make(map[string]cron.EntryID),
		registry: registry,
	}
}

// LoadJobs заново добавляет все задачи реестра. Ошибки отдельных задач объединяются.
func (cm *CronManager) LoadJobs() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	for name, id := range cm.entries {
		cm.dispatcher.Remove(id)
		delete(cm.entries, name)
	}

	var failed []string
	for name, job := range cm.registry {
		id, err := cm.dispatcher.AddFunc(job.Schedule, logged(name, job.Func))
		if err != nil {
			slog.Error("Add cron job", "name", name, "schedule", job.Schedule, "err", err)
			failed = append(failed, name)
			continue
		}
		cm.entries[name] = id
	}
	if len(failed) > 0 {
		sort.Strings(failed)
		return fmt.Errorf("invalid cron jobs: %v", failed)
	}
	return nil
}

// Jobs возвращает имена запланированных задач.
func (cm *CronManager) Jobs() []string {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	res := make([]string, 0, len(cm.entries))
	for name := range cm.entries {
		res = append(res, name)
	}
	sort.Strings(res)
	return res
}

func (cm *CronManager) Start() {
	cm.dispatcher.Start()
}

// Stop ждет завершения выполняющихся задач.
func (cm *CronManager) Stop() {
	ctx := cm.dispatcher.Stop()
	<-ctx.Done()
}

func logged(name string, fn func()) func() {
	return func() {
		start := time.Now()
		fn()
		slog.Info("Cron job finished", "name", name, "duration", time.Since(start))
	}
}
