package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"liquidity-bands/internal/bot"
	"liquidity-bands/internal/config"
	"liquidity-bands/internal/handler"
	"liquidity-bands/internal/provider"
	"liquidity-bands/internal/recommend"
	"liquidity-bands/internal/service"
	"liquidity-bands/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "liquidity-bands/docs"
)

var (
	loadEnvFunc             = godotenv.Load
	loadConfigFunc          = config.Load
	initTracerFunc          = tracing.InitTracer
	newBitqueryProviderFunc = func(apiKey string, tracer trace.Tracer) (service.PositionSource, recommend.VolumeSource) {
		p := provider.NewBitqueryProvider(apiKey, tracer)
		return p, p
	}
	newRecommendationServiceFunc = service.NewRecommendationService
	startTelegramBotFunc         = bot.StartTelegramBot
	newHandlerFunc               = handler.New
	newRouterFunc                = gin.Default
	loadTemplatesFunc            = func(r *gin.Engine) { r.LoadHTMLGlob("templates/*") }
	setupSignalNotify            = signal.Notify
	waitForSignalFunc            = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc          = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc       = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           Liquidity Bands API
// @version         1.0
// @description     Top Uniswap v3 WETH/USDT price bands ranked by provided liquidity.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tp, tracer, err := initTracerFunc(ctx)
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	source, volumes := newBitqueryProviderFunc(cfg.BitqueryAPIKey, tracer)
	recommendations := newRecommendationServiceFunc(
		tracer,
		source,
		volumes,
		cfg.NumBins,
		time.Duration(cfg.CacheTTLMins)*time.Minute,
		time.Duration(cfg.LookbackHours)*time.Hour,
	)

	os.Setenv("TELEGRAM_BOT_TOKEN", cfg.TelegramBotToken)
	startTelegramBotFunc(recommendations)

	h := newHandlerFunc(tracer, recommendations)

	r := newRouterFunc()
	r.Use(otelgin.Middleware("liquidity-bands"))
	loadTemplatesFunc(r)

	h.RegisterRoutes(r, cfg.APIKey)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
