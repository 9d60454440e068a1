package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"realtime-service/internal/config"
	"realtime-service/internal/handlers"
	"realtime-service/internal/identity"
	"realtime-service/internal/middleware"
	"realtime-service/internal/observability"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/realtime"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

const serviceName = "realtime-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(context.Background(), serviceName, cfg.Environment)
		if err != nil {
			log.Fatalf("failed to init tracing: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	if cfg.AMQPURL != "" {
		wsEvents, err := observability.NewAMQPPublisher(cfg.AMQPURL, cfg.WSEventsExchange)
		if err != nil {
			log.Printf("ws event stream disabled: %v", err)
		} else {
			observability.SetPublisher(wsEvents)
			defer wsEvents.Close()
		}
	}

	auditPublisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AuditExchange)
	defer auditPublisher.Close()
	log.Printf("audit publisher mode=%s", rabbitmq.PublisherMode(auditPublisher))
	auditor := telemetry.NewAuditEmitter(auditPublisher, cfg.AuditRoutingKey, serviceName, cfg.Environment)

	hub := realtime.NewHub()
	verifier := identity.NewJWTVerifier(cfg.JWTSecret)

	gateway := ws.NewGatewayHandler(hub, verifier, cfg.HandshakeTimeout)
	notifyHandler := handlers.NewNotifyHandler(hub, auditor)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(otelgin.Middleware(serviceName))

	router.GET("/ws", gateway.Handle)

	internalAuth := middleware.InternalAuth(cfg.InternalAPIToken)
	internal := router.Group("/internal", internalAuth)
	internal.POST("/notify", notifyHandler.PushNotification)
	internal.GET("/presence", notifyHandler.ListOnline)
	internal.GET("/presence/:user_id", notifyHandler.GetPresence)

	handlers.RegisterDebugRoutes(router, hub, auditor, cfg.DebugEndpoints)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
