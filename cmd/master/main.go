package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	internalstorage "github.com/workflow-master/core/internal/storage"
	"github.com/workflow-master/core/pkg/api"
	"github.com/workflow-master/core/pkg/config"
	"github.com/workflow-master/core/pkg/master"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "./configs/master.yaml", "Master配置文件路径")
	flag.Parse()

	log.Printf("Workflow Master v%s (%s)", Version, GitCommit)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	store, err := internalstorage.Open(internalstorage.Config{
		Dialect: cfg.Storage.Dialect,
		DSN:     cfg.Storage.DSN,
	})
	if err != nil {
		log.Fatalf("打开存储失败: %v", err)
	}

	srv, err := master.New(cfg, store)
	if err != nil {
		log.Fatalf("装配Master失败: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Start(ctx); err != nil {
		log.Fatalf("启动Master失败: %v", err)
	}

	router := api.NewRouter(srv)
	router.GET("/ws/progress", srv.Hub().ServeWS)
	httpServer := &http.Server{
		Addr:    cfg.API.Listen,
		Handler: router,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("❌ HTTP服务器错误: %v", err)
		}
	}()
	log.Printf("✅ 控制面已监听: %s", cfg.API.Listen)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("正在关闭Master...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)

	srv.Shutdown(context.Background())
	log.Println("✅ Master已退出")
}
