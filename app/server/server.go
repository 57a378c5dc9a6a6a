package server

import (
	"context"
	"log"
	"log/slog"
	"sync"

	"pdfcrop/app/api"
	"pdfcrop/app/middleware"
	"pdfcrop/app/web"
	"pdfcrop/archive"
	"pdfcrop/config"
	"pdfcrop/processor"
	"pdfcrop/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger

	mu       sync.Mutex
	app      *fiber.App
	jobStore store.JobStorer
}

func NewServer(cfg config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

// NewApp builds the HTTP surface. archiver may be nil.
func NewApp(p processor.PDFProcessor, jobStore store.JobStorer, archiver archive.Archiver, bodyLimit int) *fiber.App {
	var (
		app = fiber.New(fiber.Config{
			ErrorHandler: api.ErrorHandler,
			BodyLimit:    bodyLimit,
		})
		checkHandler   = api.NewCheckHandler()
		processHandler = api.NewProcessHandler(p, jobStore, archiver)
		jobHandler     = api.NewJobHandler(jobStore)
	)

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(middleware.PlugForm(web.FormPage))

	check := app.Group("/check")
	check.Get("/healthy", checkHandler.HandleHealthy)

	apiGroup := app.Group("/api")
	apiGroup.Post("/process-pdf", processHandler.HandleProcessPDF)
	apiGroup.Post("/process-batch", processHandler.HandleProcessBatch)
	apiGroup.Post("/preview", processHandler.HandlePreview)
	apiGroup.Get("/jobs/:id", jobHandler.HandleGetJob)

	return app
}

func (s *Server) Stop() {
	s.mu.Lock()
	app, jobStore := s.app, s.jobStore
	s.mu.Unlock()

	if app != nil {
		if err := app.Shutdown(); err != nil {
			s.logger.Error("error to shut down server", "error", err.Error())
		}
	}
	if jobStore != nil {
		jobStore.Close()
	}
	s.logger.Info("server stopped")
}

func (s *Server) Run() {
	ctx := context.Background()

	jobStore, err := s.openJobStore(ctx)
	if err != nil {
		log.Fatal("error to open job store: ", err)
		return
	}

	var archiver archive.Archiver
	if s.cfg.ArchiveBucket != "" {
		gcs, err := archive.NewGCSArchiver(ctx, s.cfg.ArchiveBucket)
		if err != nil {
			log.Fatal("error to create archiver: ", err)
			return
		}
		archiver = gcs
		s.logger.Info("archiving results", "bucket", s.cfg.ArchiveBucket)
	}

	app := NewApp(processor.New(), jobStore, archiver, s.cfg.MaxUploadMB*1024*1024)

	s.mu.Lock()
	s.app, s.jobStore = app, jobStore
	s.mu.Unlock()

	s.logger.Info("server starting", "addr", s.cfg.ServerAddr)
	if err := app.Listen(s.cfg.ServerAddr); err != nil {
		s.logger.Error("error to start server", "error", err.Error())
		return
	}
}

func (s *Server) openJobStore(ctx context.Context) (store.JobStorer, error) {
	if !s.cfg.PG.Enabled() {
		s.logger.Info("PG_HOST not set, keeping jobs in memory")
		return store.NewMemoryStore(), nil
	}

	pool, err := store.NewPostgresStore(ctx, s.cfg.PG.ConnString())
	if err != nil {
		return nil, err
	}
	if err := pool.Init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
