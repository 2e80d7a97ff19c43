package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"lastmile/config"
	"lastmile/engine"
	"lastmile/fulfill"
	"lastmile/jobs"
	"lastmile/messaging"
	"lastmile/partners"
	"lastmile/store"
	"lastmile/tracking"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "lastmile.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("lastmile", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("main: load config %s: %v", *configPath, err)
	}

	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("main: open database: %v", err)
	}
	defer db.Close()
	log.Printf("main: database ready (%s)", db.Driver())

	tracker := tracking.NewManager(openRedis(&cfg.Redis))

	cms := partners.NewCMSClient(cfg.Partners.CMS.BaseURL, cfg.Partners.CMS.Timeout)
	wms := partners.NewWMSClient(cfg.Partners.WMS.BaseURL, cfg.Partners.WMS.Timeout)
	ros := partners.NewROSClient(cfg.Partners.ROS.BaseURL, cfg.Partners.ROS.Timeout)
	for _, p := range []interface {
		Ping() error
		Name() string
	}{cms, wms, ros} {
		if err := p.Ping(); err != nil {
			log.Printf("main: partner %s unreachable (%v), will retry during processing", p.Name(), err)
		} else {
			log.Printf("main: partner %s reachable", p.Name())
		}
	}

	broker := messaging.NewBrokerClient(&cfg.Messaging)
	bus := messaging.NewBus()
	ring := messaging.NewRing(cfg.Messaging.RingCapacity)
	if err := broker.Connect(); err != nil {
		log.Printf("main: broker unavailable (%v), events fall back to the in-process bus", err)
	}
	publisher := messaging.NewPublisher(broker, bus, ring, cfg.Messaging.EventsTopic,
		cfg.Messaging.ServiceName, cfg.Messaging.ReconnectInterval)
	broker.SetDropHandler(publisher.MarkDropped)
	consumer := messaging.NewConsumer(broker, bus, cfg.Messaging.EventsTopic)

	handler := messaging.NewOrderEventHandler(db, tracker, publisher, cfg.Messaging.ServiceName)
	processor := fulfill.NewProcessor(db, cms, wms, ros, publisher, cfg.Fulfillment, cfg.Messaging.ServiceName)
	retries := fulfill.NewRetryWorker(db, processor, cfg.Fulfillment.RetryDrainInterval)
	reconciler := jobs.NewReconciler(db, cfg.Jobs, cfg.Fulfillment.MaxAttempts)

	eng := engine.New(engine.Config{
		Publisher:  publisher,
		Consumer:   consumer,
		Handler:    handler,
		Processor:  processor,
		Retries:    retries,
		Reconciler: reconciler,
	})
	if err := eng.Start(); err != nil {
		log.Fatalf("main: start engine: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Printf("main: shutting down")
	eng.Stop()
	broker.Close()
}

// openRedis returns a tracking mirror, or nil when redis is unreachable.
// Location tracking then runs memory-only.
func openRedis(cfg *config.RedisConfig) *tracking.RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("main: redis unavailable (%v), running without location mirror", err)
		client.Close()
		return nil
	}
	log.Printf("main: redis location mirror at %s", cfg.Address)
	return tracking.NewRedisStore(client)
}
