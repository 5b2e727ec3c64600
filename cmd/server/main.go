// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Corphon/ContinuityGuard/internal/api"
	"github.com/Corphon/ContinuityGuard/internal/app"
	"github.com/Corphon/ContinuityGuard/internal/config"
	"github.com/Corphon/ContinuityGuard/internal/di"
	"github.com/Corphon/ContinuityGuard/internal/utils"
)

func main() {
	log.Println("🚀 启动 ContinuityGuard 服务器...")

	// 1. 加载并校验配置，创建数据目录
	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("初始化配置失败: %v", err)
	}
	log.Printf("✅ 配置加载完成，端口: %s", cfg.Port)

	// 2. 日志
	if err := utils.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger := utils.GetLogger()
	defer logger.Sync()

	// 3. 初始化所有服务（按依赖顺序）
	container := di.GetContainer()
	if err := app.InitServices(cfg, container); err != nil {
		log.Fatalf("初始化服务失败: %v", err)
	}
	log.Printf("✅ 所有服务初始化完成，服务数量: %d", len(container.GetNames()))

	// 4. 设置路由
	router, err := api.SetupRouter(cfg, container)
	if err != nil {
		log.Fatalf("❌ 设置路由失败: %v", err)
	}

	log.Printf("🌐 服务器启动在端口 %s", cfg.Port)
	log.Printf("🔗 访问地址: http://localhost:%s/api", cfg.Port)

	setupGracefulShutdown(router, cfg.Port, logger)
}

// 优雅关闭函数
func setupGracefulShutdown(router *gin.Engine, port string, logger *utils.Logger) {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 在新的 goroutine 中启动服务器
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", map[string]interface{}{"error": err})
		}
	}()

	// 等待中断信号以进行优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 正在关闭服务器...")

	// 给定超时时间关闭服务器
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shut down", map[string]interface{}{"error": err})
		return
	}

	log.Println("✅ 服务器优雅关闭完成")
}
