package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	route "github.com/bassista/go_school/internal/api/route"
	appctx "github.com/bassista/go_school/internal/app"
	"github.com/bassista/go_school/internal/cache"
	"github.com/bassista/go_school/internal/config"
	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/bassista/go_school/internal/upload"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/enrichman/httpgrace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	if err := logger.SetLevel(cfg.Misc.LogLevel); err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
	}
	logger.WithComponent("main").Debugf("log level set to: %s", logger.Logger.GetLevel().String())
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)

	db, err := openBackend(cfg.Backend)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot open backend: %v", err)
	}
	providers, err := repository.NewProviders(cfg.Backend, db)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init providers: %v", err)
	}

	infoRepo, err := repository.NewJSONSchoolInfoRepository(cfg.Data.SchoolInfoPath)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init school info repository: %v", err)
	}
	info, err := infoRepo.Load(context.Background())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot load school info file: %v", err)
	}

	if cfg.Server.AdminToken == "" {
		logger.WithComponent("main").Warn("server.admin_token is not set, write endpoints are closed")
	}

	uploader := upload.NewImgBBUploader(cfg.Upload)
	if cfg.Upload.APIKey == "" {
		logger.WithComponent("main").Warn("upload.api_key is not set, image uploads are disabled")
	}

	app, err := appctx.New(cfg, providers, infoRepo, cache.NewInfoStore(*info), uploader)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("cannot start watchers: %v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app)
	mainSrv := createGraceHttpServer(app.BaseCtx, "main-server", app.Config.Server, r)

	if err := mainSrv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

// openBackend opens and migrates the database; the memory driver needs none.
func openBackend(cfg config.BackendConfig) (*gorm.DB, error) {
	if cfg.Driver == config.DriverMemory {
		logger.WithComponent("main").Warn("using the in-memory backend, data is lost on restart")
		return nil, nil
	}
	db, err := repository.OpenDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.AutoMigrate {
		if err := repository.Migrate(context.Background(), db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
