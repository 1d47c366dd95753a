package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/formsense/repcoach/internal/api"
	"github.com/formsense/repcoach/internal/config"
	"github.com/formsense/repcoach/internal/db"
	"github.com/formsense/repcoach/internal/engine"
	"github.com/formsense/repcoach/internal/ingest"
	"github.com/formsense/repcoach/internal/pose"
)

var (
	configPath = flag.String("config", "", "Path to tuning config JSON (optional)")
	listen     = flag.String("listen", "", "HTTP listen address (overrides config)")
	udpAddr    = flag.String("udp", "", "UDP frame listen address (overrides config)")
	serialPort = flag.String("serial", "", "Serial frame device (overrides config)")
	dbPath     = flag.String("db", "", "Sqlite database path, empty string in config disables persistence")
	migrations = flag.String("migrations", "migrations", "Path to database migrations")
	exercise   = flag.String("exercise", "", "Exercise to start counting immediately (overrides config)")
)

func main() {
	flag.Parse()

	cfg := config.EmptyTuningConfig()
	if *configPath != "" {
		loaded, err := config.LoadTuningConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	httpAddr := cfg.GetHTTPAddr()
	if *listen != "" {
		httpAddr = *listen
	}
	frameAddr := cfg.GetUDPAddr()
	if *udpAddr != "" {
		frameAddr = *udpAddr
	}
	serialDevice := cfg.GetSerialPort()
	if *serialPort != "" {
		serialDevice = *serialPort
	}
	databasePath := cfg.GetDBPath()
	if *dbPath != "" {
		databasePath = *dbPath
	}
	startExercise := cfg.GetDefaultExercise()
	if *exercise != "" {
		startExercise = *exercise
	}

	var database *db.DB
	var sink engine.SessionSink
	if databasePath != "" {
		var err error
		database, err = db.NewDB(databasePath)
		if err != nil {
			log.Fatalf("failed to open database: %v", err)
		}
		defer database.Close()
		if err := database.MigrateUp(*migrations); err != nil {
			log.Fatalf("failed to migrate database: %v", err)
		}
		sink = database
	}

	manager := engine.NewManager(cfg.CountingConfig(), nil, sink)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if startExercise != "" {
		ex, err := engine.ParseExercise(startExercise)
		if err != nil {
			log.Fatalf("invalid exercise %q: %v", startExercise, err)
		}
		if _, err := manager.SelectExercise(ctx, ex); err != nil {
			log.Fatalf("failed to start session: %v", err)
		}
		log.Printf("counting %s", ex)
	}

	gate := ingest.QualityGate{
		MinVisible: cfg.GetMinVisibleLandmarks(),
		Threshold:  cfg.GetVisibilityThreshold(),
	}
	stats := ingest.NewFrameStats()
	frameSink := ingest.FrameSinkFunc(func(f *pose.Frame) {
		if _, err := manager.ProcessFrame(f); err != nil &&
			!errors.Is(err, engine.ErrNoActiveSession) {
			log.Printf("frame rejected: %v", err)
		}
	})

	var wg sync.WaitGroup

	// UDP frame source
	wg.Add(1)
	go func() {
		defer wg.Done()
		listener := ingest.NewUDPListener(ingest.UDPListenerConfig{
			Address: frameAddr,
			Gate:    gate,
			Stats:   stats,
			Sink:    frameSink,
		})
		if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("UDP listener failed: %v", err)
			stop()
		}
	}()

	// Optional serial frame source
	if serialDevice != "" {
		reader, err := ingest.OpenSerialReader(serialDevice, cfg.GetSerialBaud(), gate, stats, frameSink)
		if err != nil {
			log.Fatalf("failed to open serial device: %v", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := reader.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("serial reader failed: %v", err)
			}
		}()
	}

	// HTTP server
	server := &http.Server{
		Addr:    httpAddr,
		Handler: api.LoggingMiddleware(api.NewServer(manager, database, cfg).ServeMux()),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Print("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}

	// Persist whatever segment is still running.
	manager.Finish(context.Background())

	wg.Wait()
	stats.LogStats()
}
