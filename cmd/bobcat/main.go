package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arpg/bobcat/config"
	"github.com/arpg/bobcat/engine"
	"github.com/arpg/bobcat/messaging"
	"github.com/arpg/bobcat/monitor"
	"github.com/arpg/bobcat/protocol"
	"github.com/arpg/bobcat/store"
	"github.com/arpg/bobcat/www"
)

var Version = "dev"

func main() {
	configPath := flag.String("config", "bobcat.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	agentID := flag.String("agent", "", "agent id (overrides config)")
	hashToken := flag.String("hash-token", "", "print the bcrypt hash for an operator token and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(Version)
		return
	}
	if *hashToken != "" {
		hash, err := www.HashToken(*hashToken)
		if err != nil {
			log.Fatalf("hash token: %v", err)
		}
		fmt.Println(hash)
		return
	}

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *agentID != "" {
		cfg.Agent.ID = *agentID
	}
	id := cfg.AgentID()

	// Each robot needs its own client id and consumer group so every robot
	// sees every team broadcast.
	if cfg.Messaging.MQTT.ClientID == "" {
		cfg.Messaging.MQTT.ClientID = "bobcat-" + id
	}
	if cfg.Messaging.Kafka.GroupID == "" {
		cfg.Messaging.Kafka.GroupID = "bobcat-" + id
	}

	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Team monitor
	var sink engine.SnapshotSink
	var team www.TeamView
	if cfg.Monitor.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Monitor.Redis.Address,
			Password: cfg.Monitor.Redis.Password,
			DB:       cfg.Monitor.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("bobcat: redis not available (%v), snapshots will be retried", err)
		} else {
			log.Printf("bobcat: redis connected (%s)", cfg.Monitor.Redis.Address)
		}
		cancel()
		defer redisClient.Close()

		rs := monitor.NewRedisStore(redisClient)
		mon := monitor.New(rs, id, cfg.Monitor.TTL)
		mon.Start()
		defer mon.Stop()
		sink = mon
		team = rs
	}

	// Messaging
	msgClient := messaging.NewClient(&cfg.Messaging)
	defer msgClient.Close()
	if err := msgClient.Connect(); err != nil {
		log.Printf("messaging connect: %v (outbound queued in outbox)", err)
	}
	publisher := messaging.NewPublisher(msgClient, db, id)

	eng, err := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Publisher:  publisher,
		Monitor:    sink,
		LogFunc:    log.Printf,
		Debug:      *debug,
	})
	if err != nil {
		log.Fatalf("create engine: %v", err)
	}

	drainer := messaging.NewOutboxDrainer(db, msgClient, cfg.Messaging.OutboxDrainInterval)
	drainer.Start()
	defer drainer.Stop()

	ingestor := protocol.NewIngestor(eng.Ingest(), eng.Accept)
	for _, topic := range []string{cfg.RobotTopic(), cfg.GUITopic(), cfg.TeamTopic()} {
		if err := msgClient.Subscribe(topic, ingestor.HandleRaw); err != nil {
			log.Printf("protocol ingestor subscribe %s: %v", topic, err)
			continue
		}
		log.Printf("protocol ingestor listening on %s (agent=%s)", topic, id)
	}

	eng.Start()
	defer eng.Stop()

	// Operator API
	var server *http.Server
	stopWeb := func() {}
	if cfg.Web.Enabled {
		var router http.Handler
		router, stopWeb = www.NewRouter(eng, team)
		addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
		server = &http.Server{Addr: addr, Handler: router}
		go func() {
			log.Printf("bobcat %s operator API listening on %s", Version, addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("http server: %v", err)
			}
		}()
	}
	defer stopWeb()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Close SSE streams before the server waits on them.
	stopWeb()
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Printf("http server shutdown: %v", err)
		}
	}
}
