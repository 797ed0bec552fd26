package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/config"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/logging"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/manager"
	"github.com/kwilliamszaf/ic7300-mem-manager/pkg/storage"
)

// Daemon wires the channel manager behind the web API.
type Daemon struct {
	config *config.Config
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	manager   *manager.Manager
	hub       *ProgressHub
	webServer *http.Server
}

// NewDaemon creates a new daemon instance
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	ctx, cancel := context.WithCancel(context.Background())

	db, err := storage.NewChannelStore(cfg.Storage.DatabasePath)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open channel store: %w", err)
	}

	daemon := &Daemon{
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
		manager: manager.New(cfg, db, nil),
		hub:     NewProgressHub(),
	}

	if err := daemon.manager.LoadPersisted(); err != nil {
		logging.Warnf("daemon", "could not load persisted channels: %v", err)
	}

	if err := daemon.setupWebServer(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup web server: %w", err)
	}

	return daemon, nil
}

// Start starts the daemon
func (d *Daemon) Start() error {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.hub.Run(d.ctx)
	}()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
		logging.Infof("daemon", "starting web server on %s", addr)
		if err := d.webServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Errorf("daemon", "web server error: %v", err)
		}
	}()

	return nil
}

// Stop stops the daemon gracefully
func (d *Daemon) Stop() error {
	d.cancel()

	if d.webServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.webServer.Shutdown(ctx); err != nil {
			logging.Errorf("daemon", "web server shutdown error: %v", err)
		}
	}

	if err := d.manager.Close(); err != nil {
		logging.Errorf("daemon", "manager shutdown error: %v", err)
	}

	d.wg.Wait()
	return nil
}

// setupWebServer initializes the web server and routes
func (d *Daemon) setupWebServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", d.handleWebSocket)

	api := router.Group("/api/v1")
	{
		api.GET("/status", d.handleGetStatus)
		api.GET("/summary", d.handleGetSummary)

		api.GET("/channels", d.handleGetChannels)
		api.GET("/channels/:slot", d.handleGetChannel)
		api.PUT("/channels/:slot", d.handleSetChannel)
		api.DELETE("/channels/:slot", d.handleClearChannel)

		api.GET("/groups", d.handleGetGroups)
		api.POST("/groups", d.handleAddGroup)
		api.PUT("/groups/:id", d.handleUpdateGroup)
		api.DELETE("/groups/:id", d.handleDeleteGroup)

		api.GET("/plan", d.handleGetPlan)

		api.POST("/radio/upload", d.handleUploadAll)
		api.POST("/radio/upload/:slot", d.handleUploadChannel)
		api.POST("/radio/download", d.handleDownloadAll)
		api.POST("/radio/download/:slot", d.handleDownloadChannel)
		api.DELETE("/radio/channels/:slot", d.handleClearDeviceChannel)

		api.GET("/export/csv", d.handleExportCSV)
		api.GET("/export/json", d.handleExportJSON)
		api.POST("/import/csv", d.handleImportCSV)
		api.POST("/import/json", d.handleImportJSON)
	}

	addr := fmt.Sprintf("%s:%d", d.config.Web.BindAddress, d.config.Web.Port)
	d.webServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}

	return nil
}
