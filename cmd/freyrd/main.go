// Command freyrd is the render engine process: it owns the frame buffer,
// the module registry, the compositor, and the frame loop, and exposes them
// to the outside world over stdin, MQTT, and an HTTP/websocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/freyr-engine/freyr/internal/animation"
	"github.com/freyr-engine/freyr/internal/basemodule"
	"github.com/freyr-engine/freyr/internal/command"
	"github.com/freyr-engine/freyr/internal/compositor"
	"github.com/freyr-engine/freyr/internal/config"
	"github.com/freyr-engine/freyr/internal/egress"
	"github.com/freyr-engine/freyr/internal/frame"
	"github.com/freyr-engine/freyr/internal/hal"
	"github.com/freyr-engine/freyr/internal/health"
	"github.com/freyr-engine/freyr/internal/logger"
	"github.com/freyr-engine/freyr/internal/module"
	"github.com/freyr-engine/freyr/internal/modules"
	"github.com/freyr-engine/freyr/internal/orchestrator"
	"github.com/freyr-engine/freyr/internal/scheduler"
	"github.com/freyr-engine/freyr/internal/telemetry"
	"github.com/freyr-engine/freyr/internal/transport/httpapi"
	"github.com/freyr-engine/freyr/internal/transport/mqtt"
	"github.com/freyr-engine/freyr/internal/transport/stdin"
)

// Version is stamped at build time via -ldflags, left as a default here.
var Version = "0.1.0"

func main() {
	fmt.Println("╔══════════════════════════════════════╗")
	fmt.Printf("║        freyrd v%-22s ║\n", Version)
	fmt.Println("║   realtime addressable LED engine     ║")
	fmt.Println("╚══════════════════════════════════════╝")

	cfg, err := config.Load(getEnv("FREYR_CONFIG", ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logCfg := logger.DefaultConfig()
	if cfg.Logger.Level != "" {
		logCfg.Level = cfg.Logger.Level
	}
	if cfg.Logger.Format != "" {
		logCfg.Format = cfg.Logger.Format
	}
	if err := logger.Init(logCfg); err != nil {
		fmt.Fprintf(os.Stderr, "initializing logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()
	defer log.Sync()

	initHAL(log)
	if h, err := hal.GetGlobalHAL(); err == nil {
		defer h.Close()
	}

	baseModules := basemodule.NewRegistry()
	modReg := module.NewRegistry(baseModules)

	animatorCount := cfg.Engine.AnimatorCount
	if animatorCount <= 0 {
		animatorCount = 1
		if h, err := hal.GetGlobalHAL(); err == nil {
			animatorCount = h.Info().RecommendedAnimatorCount()
		}
	}
	pool := animation.NewPool(animatorCount)
	comp := compositor.New(pool)

	f := frame.New()
	eg := egress.NewList(f, egress.Hooks{
		LEDsAdded: func(n int) {
			modReg.Trigger("ledsAdded", n)
		},
		LEDsRemoved: func(offset, count int) {
			modReg.Trigger("ledsRemoved", offset, count)
			pool.LEDsRemoved(offset, count)
			comp.LEDsRemoved(offset, count)
		},
	})

	coords, grouping, streams, registrationErr := registerSupportModules(baseModules, modReg, eg)
	if registrationErr != nil {
		log.Fatal("registering built-in modules", zap.Error(registrationErr))
	}
	_ = streams

	if _, err := modules.RegisterDisplay(baseModules, modReg, comp, f, coords, grouping); err != nil {
		log.Fatal("registering display/float/tier commands", zap.Error(err))
	}
	if _, err := modules.RegisterEgress(baseModules, modReg, eg); err != nil {
		log.Fatal("registering egress_init command", zap.Error(err))
	}

	bus := command.New(modReg, func(level command.Level, source, text string) {
		log.Info("command response", zap.String("level", string(level)), zap.String("source", source), zap.String("text", text))
	})

	queue := orchestrator.NewCommandQueue()
	drummer := orchestrator.NewDrummer(cfg.Engine.FPS)

	var barrier *orchestrator.AnimBarrier
	if cfg.Engine.MultiThreaded && animatorCount > 1 {
		barrier = orchestrator.NewAnimBarrier(animatorCount)
		for i := 0; i < animatorCount; i++ {
			go runAnimatorWorker(barrier, pool, f, i)
		}
	}

	telemetryCfg := telemetry.Config{
		RedisAddr:    cfg.Telemetry.RedisAddr,
		InfluxURL:    cfg.Telemetry.InfluxURL,
		InfluxToken:  cfg.Telemetry.InfluxToken,
		InfluxOrg:    cfg.Telemetry.InfluxOrg,
		InfluxBucket: cfg.Telemetry.InfluxBucket,
		Measurement:  "freyr_frame",
	}
	publisher, err := telemetry.NewPublisher(telemetryCfg)
	if err != nil {
		log.Warn("telemetry disabled", zap.Error(err))
	}

	loop := &orchestrator.Loop{
		Frame:      f,
		Egress:     eg,
		Modules:    modReg,
		Bus:        bus,
		Pool:       pool,
		Compositor: comp,
		Queue:      queue,
		Drummer:    drummer,
		Barrier:    barrier,
	}
	if publisher != nil {
		fps := func() float64 { return 1.0 / drummer.Interval().Seconds() }
		loop.Observer = publisher.Observer(fps)
		defer publisher.Close()
	}

	checker := health.NewHealthChecker()
	checker.RegisterCheck("command_queue", func(ctx context.Context) (health.Status, string) {
		if queue.Len() > 1000 {
			return health.StatusDegraded, "command queue backlog over 1000"
		}
		return health.StatusHealthy, "ok"
	}, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	checker.StartPeriodicChecks(ctx)

	if cfg.Engine.CommandFile != "" {
		replayStartupCommands(bus, cfg.Engine.CommandFile, log)
	}

	stdinTransport := stdin.New(os.Stdin, queue)
	go stdinTransport.Run()

	var mqttTransport *mqtt.Transport
	if cfg.MQTT.BrokerURL != "" {
		mqttTransport, err = mqtt.New(mqtt.Config{
			Broker:   cfg.MQTT.BrokerURL,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
		}, queue)
		if err != nil {
			log.Warn("mqtt transport disabled", zap.Error(err))
		} else if err := mqttTransport.Start(); err != nil {
			log.Warn("mqtt transport failed to start", zap.Error(err))
			mqttTransport = nil
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpTransport := httpapi.New(httpapi.Config{
		Addr: addr,
		JWT: httpapi.JWTConfig{
			SecretKey: cfg.Server.JWTSecret,
		},
		AdminUser:         getEnv("FREYR_ADMIN_USER", "admin"),
		AdminPasswordHash: getEnv("FREYR_ADMIN_PASSWORD_HASH", ""),
	}, queue)
	httpTransport.Health = checker
	go func() {
		log.Info("http api starting", zap.String("addr", addr))
		if err := httpTransport.Start(); err != nil {
			log.Error("http api stopped", zap.Error(err))
		}
	}()

	sched := scheduler.New(queue)
	sched.Start()

	go runFrameLoop(ctx, loop, httpTransport)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	cancel()
	sched.Stop()
	stdinTransport.Stop()
	if mqttTransport != nil {
		mqttTransport.Stop()
	}
	if barrier != nil {
		barrier.Stop()
	}
	_ = httpTransport.Stop()
}

// runFrameLoop steps the render loop until ctx is cancelled, broadcasting
// each finished frame to connected preview websocket clients.
func runFrameLoop(ctx context.Context, loop *orchestrator.Loop, http *httpapi.Transport) {
	for loop.Step(ctx) {
		if http != nil && http.Hub != nil {
			http.Hub.Broadcast(httpapi.PreviewFrame, loop.Frame.Egress())
		}
	}
}

// runAnimatorWorker is the goroutine body for one animator worker in
// multi-threaded mode, run for the lifetime of the barrier.
func runAnimatorWorker(barrier *orchestrator.AnimBarrier, pool *animation.AnimatorPool, f *frame.Frame, id int) {
	loop := &orchestrator.Loop{Barrier: barrier, Pool: pool, Frame: f}
	loop.RunAnimatorWorker(id)
}

// registerSupportModules wires the coordinates/grouping/streams/filter
// modules that display/egress_init depend on.
func registerSupportModules(bm *basemodule.Registry, mr *module.Registry, eg *egress.List) (*modules.Coordinates, *modules.Grouping, *modules.Streams, error) {
	coordMod, err := modules.RegisterCoordinates(bm, mr, eg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("coordinates: %w", err)
	}
	groupMod, err := modules.RegisterGrouping(bm, mr, eg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("grouping: %w", err)
	}
	streamMod, err := modules.RegisterStreams(bm, mr, eg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("streams: %w", err)
	}
	if _, err := modules.RegisterBrightnessFilter(bm, mr); err != nil {
		return nil, nil, nil, fmt.Errorf("brightness filter: %w", err)
	}
	if _, err := modules.RegisterOverlayFilter(bm, mr, groupMod); err != nil {
		return nil, nil, nil, fmt.Errorf("overlay filter: %w", err)
	}
	return coordMod, groupMod, streamMod, nil
}

// replayStartupCommands loads a command config file before the frame loop
// and transports start accepting new commands.
func replayStartupCommands(bus *command.Bus, path string, log *zap.Logger) {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("startup command file unreadable", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	if err := command.ReplayFile(bus, path, f); err != nil {
		log.Warn("startup command file replay failed", zap.String("path", path), zap.Error(err))
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
