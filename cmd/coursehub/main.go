// Основной пакет сервиса блочных документов coursehub. Отвечает за инициализацию базы данных и миграцию моделей,
// подключение хранилища видео, запуск фоновых задач обслуживания и HTTP сервера.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aisa-it/coursehub/internal/coursehub"
	"github.com/aisa-it/coursehub/internal/coursehub/business"
	"github.com/aisa-it/coursehub/internal/coursehub/config"
	"github.com/aisa-it/coursehub/internal/coursehub/cronmanager"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	filestorage "github.com/aisa-it/coursehub/internal/coursehub/file-storage"
	"github.com/aisa-it/coursehub/internal/coursehub/gormlogger"
	"github.com/aisa-it/coursehub/internal/coursehub/maintenance"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var version string = "DEV"

// Пример запуска: go run main.go --noMigration --trace
func main() {
	paramQueries := flag.Bool("paramQueries", true, "Mask queries params in log")
	noMigration := flag.Bool("noMigration", false, "Turn off DB migration")
	trace := flag.Bool("trace", false, "Verbose logs and sql trace")
	flag.Parse()

	PrintBanner()

	if *trace {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	// Set prod log format
	if version != "DEV" {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{})))
	}

	// Локальный .env для разработки, в контейнере переменные задаются окружением
	if err := godotenv.Load(); err != nil {
		slog.Debug("Skip .env file", "err", err)
	}

	cfg := config.ReadConfig()

	slog.Info("CourseHub start.")

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DatabaseDSN,
		PreferSimpleProtocol: false, // disables implicit prepared statement usage
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.NewGormLogger(slog.Default(), time.Second*4, *paramQueries),
	})
	if err != nil {
		slog.Error("Fail init DB connection", "err", err)
		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Fail set settings to conn pool", "err", err)
		os.Exit(1)
	}
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(time.Minute * 15)

	if !*noMigration {
		slog.Info("Migrate models")
		if err := db.AutoMigrate(dao.AllModels()...); err != nil {
			slog.Error("Fail migrate models", "err", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := filestorage.NewMinioStorage(ctx, cfg)
	if err != nil {
		slog.Error("Fail init Minio connection", "err", err)
		os.Exit(1)
	}

	store := dao.NewBlockStore(db)
	watcher := dao.NewDeletionWatcher()

	deleter := maintenance.NewMediaDeleter(storage, watcher, cfg.MediaDeleteWorkers, cfg.MediaDeleteQueue)
	if err := deleter.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Error("Register media deleter metrics", "err", err)
		os.Exit(1)
	}

	bl := business.NewBL(store, storage, dao.NewOwnerAuthorizer(db), deleter, business.Options{
		Registry:      editor.Default,
		RenderOptions: editor.RenderOptions{MediaURL: editor.MediaProxyURL(cfg.WebURL.String())},
		Workers:       cfg.ReconcileWorkers,
	})
	if err := bl.Register(prometheus.DefaultRegisterer); err != nil {
		slog.Error("Register business metrics", "err", err)
		os.Exit(1)
	}

	sweeper := maintenance.NewMediaSweeper(store, storage, watcher, editor.PropVideoURL)
	cron := cronmanager.NewCronManager(cronmanager.JobRegistry{
		"media_sweep": {Func: sweeper.CleanMedia, Schedule: "0 4 * * *"},
	})
	if err := cron.LoadJobs(); err != nil {
		slog.Error("Load cron jobs", "err", err)
		os.Exit(1)
	}
	cron.Start()

	err = coursehub.Server(ctx, coursehub.NewServices(db, bl, cfg, version))

	cron.Stop()
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second*30)
	if err := deleter.Stop(stopCtx); err != nil {
		slog.Warn("Media deleter stopped before queue drained", "err", err)
	}
	cancel()
	if err != nil {
		slog.Error("Server stopped with error", "err", err)
		os.Exit(1)
	}
	slog.Info("CourseHub stopped")
}

// PrintBanner выводит заголовок приложения с версией.
func PrintBanner() {
	banner := `
  ___                         _  _       _
 / __|___ _  _ _ _ ___ ___  | || |_  _| |__
| (__/ _ \ || | '_(_-</ -_) | __ | || | '_ \
 \___\___/\_,_|_| /__/\___| |_||_|\_,_|_.__/ %s
Block documents for courses, events and emails
----------------------------------------------------
`
	colorReset := "\033[0m"
	colorYellow := "\033[33m"

	formattedVersion := version
	if version == "DEV" {
		formattedVersion = colorYellow + version + colorReset
	}

	fmt.Printf(banner, formattedVersion)
}
