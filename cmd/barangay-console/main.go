package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	commonlogger "github.com/Maristella28/Bms-1125-sub002/common/logger"
	commonmqtt "github.com/Maristella28/Bms-1125-sub002/common/mqtt"
	commonredis "github.com/Maristella28/Bms-1125-sub002/common/redis"
	"github.com/Maristella28/Bms-1125-sub002/internal/backend"
	"github.com/Maristella28/Bms-1125-sub002/internal/config"
	"github.com/Maristella28/Bms-1125-sub002/internal/export"
	httpapi "github.com/Maristella28/Bms-1125-sub002/internal/http"
	"github.com/Maristella28/Bms-1125-sub002/internal/notify"
	"github.com/Maristella28/Bms-1125-sub002/internal/service"
	"github.com/Maristella28/Bms-1125-sub002/internal/store"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := commonlogger.NewLogger(cfg.Log.Level, cfg.Log.Format, "barangay-console")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot store: Redis when enabled and reachable, in-process otherwise
	var kv store.KV = store.NewMemoryKV()
	if cfg.RedisEnabled {
		redisClient, err := commonredis.Connect(ctx, &cfg.Redis)
		if err != nil {
			logger.Warn("Redis enabled but unreachable, using in-memory snapshots", zap.Error(err))
		} else {
			kv = store.NewRedisKV(redisClient)
			defer commonredis.Close(redisClient)
			logger.Info("Redis snapshot store enabled", zap.String("addr", cfg.Redis.Addr))
		}
	}

	recorder := notify.NewRecorder(100)
	notifiers := notify.Multi{notify.NewZapNotifier(logger), recorder}
	var mqttClient *commonmqtt.Client
	if cfg.MQTTEnabled {
		c, err := commonmqtt.NewClient(&cfg.MQTT, logger)
		if err != nil {
			logger.Warn("MQTT enabled but connection failed, notices stay local", zap.Error(err))
		} else {
			mqttClient = c
			defer mqttClient.Disconnect()
			notifiers = append(notifiers, notify.NewMQTTNotifier(mqttClient, cfg.MQTTTopic, mqttClient.QoS(), logger))
			logger.Info("MQTT notice fan-out enabled", zap.String("topic", cfg.MQTTTopic))
		}
	}

	client := backend.NewClient(cfg.Backend, logger)
	latest := service.NewCoordinator()

	watcher := service.NewPayoutWatcher(client.Tracking, cfg.PayoutRecheck, logger)
	defer watcher.Close()

	residents := service.NewResidentService(client, kv, export.NewExporter(notifiers, logger), latest,
		service.ResidentServiceOptions{SnapshotTTL: cfg.SnapshotTTL, DefaultPageSize: cfg.DefaultPageSize}, logger)
	benefits := service.NewBenefitService(client, kv, watcher, notifiers, cfg.SnapshotTTL, logger)
	activityLogs := service.NewActivityLogService(client, latest, logger)

	poller := service.NewNotificationPoller(client, notifiers, cfg.NotificationPoll, logger)
	go poller.Run(ctx)

	if mqttClient != nil && cfg.MQTTRefreshTopic != "" {
		err := mqttClient.Subscribe(cfg.MQTTRefreshTopic, mqttClient.QoS(), func(_ string, _ []byte) error {
			return poller.Poll(ctx)
		})
		if err != nil {
			logger.Warn("Failed to subscribe to refresh topic", zap.String("topic", cfg.MQTTRefreshTopic), zap.Error(err))
		}
	}

	router := httpapi.NewRouter(logger)
	router.RegisterResidentRoutes(httpapi.NewResidentHandler(residents, logger))
	router.RegisterActivityLogRoutes(httpapi.NewActivityLogHandler(activityLogs, logger))
	router.RegisterBenefitRoutes(httpapi.NewBenefitHandler(benefits, logger))
	router.RegisterNotificationRoutes(httpapi.NewNotificationHandler(poller, recorder))

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		logger.Error("HTTP server stopped", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
}
