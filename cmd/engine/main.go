package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cedrichaddad/flash-lob/internal/book"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
	"github.com/cedrichaddad/flash-lob/internal/egress/kafka"
	ingresskafka "github.com/cedrichaddad/flash-lob/internal/ingress/kafka"
	"github.com/cedrichaddad/flash-lob/internal/obs"
	"github.com/cedrichaddad/flash-lob/internal/queue"
	"github.com/cedrichaddad/flash-lob/internal/snapshot/redisstore"

	"github.com/cedrichaddad/flash-lob/internal/engine"
	"github.com/cedrichaddad/flash-lob/pkg/config"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

var (
	cfg *config.Config
	log *logger.Logger
)

func init() {
	cfg = &config.Config{}
	config.MustLoad(cfg)

	var err error
	log, err = logger.New()
	if err != nil {
		panic(err)
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	b := book.New(cfg.EngineConfig.ArenaCapacity)
	commands := queue.NewRing[commandv1.Command](cfg.EngineConfig.CommandRingSize)
	events := queue.NewRing[eventv1.Event](cfg.EngineConfig.EventRingSize)
	metrics := obs.NewMetrics()
	publisher := book.NewSnapshotPublisher()

	eng := engine.New(b, commands, events, metrics, publisher, log, engine.Options{
		SnapshotEveryN: cfg.EngineConfig.SnapshotEveryN,
		SnapshotDepth:  cfg.EngineConfig.SnapshotDepth,
		SpinBudget:     cfg.EngineConfig.SpinBudgetIdleIter,
	})

	go func() {
		if err := eng.Run(ctx); err != nil {
			log.Error(err, logger.NewField("action", "engine_run"))
			cancel()
		}
	}()

	if cfg.KafkaConfig.Enabled {
		reader := ingresskafka.NewReader(ingresskafka.Config{
			Brokers: cfg.KafkaConfig.Brokers,
			Topic:   cfg.KafkaConfig.CommandTopic,
			GroupID: cfg.KafkaConfig.GroupID,
		}, log)
		writer := kafka.NewWriter(kafka.Config{
			Brokers: cfg.KafkaConfig.Brokers,
			Topic:   cfg.KafkaConfig.EventTopic,
		}, log)
		defer reader.Close()
		defer writer.Close()

		go func() {
			if err := reader.Run(ctx, commands); err != nil {
				log.Error(err, logger.NewField("action", "kafka_reader_run"))
			}
		}()
		go func() {
			if err := writer.Run(ctx, events); err != nil {
				log.Error(err, logger.NewField("action", "kafka_writer_run"))
			}
		}()
	}

	if cfg.RedisConfig.Enabled {
		period, err := time.ParseDuration(cfg.RedisConfig.MirrorPeriod)
		if err != nil {
			period = time.Second
		}
		mirror := redisstore.NewStore(redisstore.Config{
			Addr:     cfg.RedisConfig.Addr,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
			Key:      cfg.RedisConfig.SnapshotKey,
			Period:   period,
		}, log)
		defer mirror.Close()

		go func() {
			if err := mirror.Run(ctx, publisher); err != nil {
				log.Error(err, logger.NewField("action", "redis_mirror_run"))
			}
		}()
	}

	startMetricsServer(ctx, metrics)

	log.Info("engine started", logger.NewField("symbol", cfg.Symbol))

	sig := <-sigChan
	log.Info("received shutdown signal", logger.NewField("signal", sig.String()))
	cancel()

	time.Sleep(100 * time.Millisecond)
	_ = log.Sync()
}

// startMetricsServer exposes internal/obs's atomic counters as
// Prometheus gauges, translated on a background goroutine that never
// touches the engine's own goroutine.
func startMetricsServer(ctx context.Context, metrics *obs.Metrics) {
	eventGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flash_lob_events_total",
		Help: "Count of emitted events by kind.",
	}, []string{"kind"})
	rejectGauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "flash_lob_rejects_total",
		Help: "Count of rejected commands by reason.",
	}, []string{"reason"})
	haltGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "flash_lob_halt_total",
		Help: "Count of engine halt transitions.",
	})
	prometheus.MustRegister(eventGauge, rejectGauge, haltGauge)

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := metrics.Snapshot()
				for kind := eventv1.Accepted; kind <= eventv1.Trade; kind++ {
					eventGauge.WithLabelValues(kind.String()).Set(float64(snap.EventCounts[kind]))
				}
				for reason := eventv1.DuplicateID; reason <= eventv1.MalformedCommand; reason++ {
					rejectGauge.WithLabelValues(reason.String()).Set(float64(snap.RejectCounts[reason]))
				}
				haltGauge.Set(float64(snap.HaltCount))
			}
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(err, logger.NewField("action", "metrics_server"))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
