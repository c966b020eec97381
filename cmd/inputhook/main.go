// inputhook - global input capture with per-category dispatch
// Streams keyboard, mouse and wheel events to stdout and WebSocket viewers
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"inputhook/internal/api"
	"inputhook/internal/boundary"
	"inputhook/internal/config"
	"inputhook/internal/event"
	"inputhook/internal/hotkey"
	"inputhook/internal/native"
	"inputhook/internal/network"
	"inputhook/internal/protocol"
	"inputhook/internal/tray"
)

var (
	version    = "0.1.0"
	configFile = flag.String("config", "", "Path to config file (default: per-user config dir)")
	modeFlag   = flag.String("mode", "", "Delivery mode: routed or generic")
	maskFlag   = flag.String("mask", "", "Event mask for generic mode (e.g. keyboard|MouseWheel, 0x1C)")
	backendArg = flag.String("backend", "", "Capture backend: native or replay")
	replayFile = flag.String("replay", "", "Replay events from a JSON lines file (implies -backend replay)")
	pacedFlag  = flag.Bool("paced", false, "Replay with the recorded spacing between events")
	wsFlag     = flag.Bool("ws", false, "Serve the WebSocket event stream")
	portFlag   = flag.Int("port", 0, "WebSocket server port")
	udpFlag    = flag.String("udp", "", "Forward events as UDP frames to host:port (comma separated)")
	listenUDP  = flag.String("listen-udp", "", "Print UDP frames received on this address instead of capturing")
	trayFlag   = flag.Bool("tray", false, "Show the system tray icon")
	quietFlag  = flag.Bool("quiet", false, "Do not print events to stdout")
	showVer    = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("inputhook version %s\n", version)
		return
	}

	cfgMgr, err := newConfigManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if _, err := cfgMgr.LoadOrCreate(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	cfg, err := applyFlags(cfgMgr.Get())
	if err != nil {
		log.Fatalf("Invalid options: %v", err)
	}
	if err := cfgMgr.Set(cfg); err != nil {
		log.Fatalf("Invalid options: %v", err)
	}

	if closer := setupLogging(cfg.General.LogFile); closer != nil {
		defer closer.Close()
	}

	if *listenUDP != "" {
		if err := watchUDP(*listenUDP); err != nil {
			log.Fatalf("inputhook: %v", err)
		}
		return
	}

	if err := run(cfgMgr); err != nil {
		log.Fatalf("inputhook: %v", err)
	}
}

func newConfigManager() (*config.Manager, error) {
	if *configFile != "" {
		return config.NewManagerAt(*configFile), nil
	}
	return config.NewManager()
}

// applyFlags overrides cfg with the flags set on the command line
func applyFlags(cfg config.Config) (config.Config, error) {
	if *modeFlag != "" {
		cfg.Capture.Mode = *modeFlag
	}
	if *maskFlag != "" {
		cfg.Capture.EventMask = *maskFlag
	}
	if *backendArg != "" {
		cfg.Capture.Backend = *backendArg
	}
	if *replayFile != "" {
		cfg.Capture.Backend = config.BackendReplay
		cfg.Capture.ReplayFile = *replayFile
	}
	if *pacedFlag {
		cfg.Capture.ReplayPaced = true
	}
	if *wsFlag {
		cfg.Server.WSEnabled = true
	}
	if *udpFlag != "" {
		cfg.Server.UDPTargets = strings.Split(*udpFlag, ",")
	}
	if *portFlag != 0 {
		cfg.Server.WSPort = *portFlag
	}
	if *trayFlag {
		cfg.General.TrayEnabled = true
	}
	if *quietFlag {
		cfg.General.PrintEvents = false
	}
	return cfg, cfg.Validate()
}

// setupLogging tees the standard logger into a rotating file
func setupLogging(path string) io.Closer {
	if path == "" {
		return nil
	}
	logFile := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return logFile
}

// bindStopHotkey registers the configured stop hotkey and registers it again
// whenever the configuration changes
func bindStopHotkey(keys *hotkey.Manager, cfgMgr *config.Manager, stop func()) error {
	bind := func() error {
		combo := cfgMgr.Get().General.StopHotkey
		keys.Clear()
		_, err := keys.Register(combo, func() {
			log.Printf("Stop hotkey %s pressed", combo)
			stop()
		})
		return err
	}
	cfgMgr.RegisterChangeCallback(func() {
		if err := bind(); err != nil {
			log.Printf("Failed to bind stop hotkey: %v", err)
		}
	})
	return bind()
}

// reloadOnHangup reloads the configuration file on SIGHUP until ctx is done
func reloadOnHangup(ctx context.Context, cfgMgr *config.Manager) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		defer signal.Stop(hup)
		for {
			select {
			case <-hup:
				if err := cfgMgr.Load(); err != nil {
					log.Printf("Warning: failed to reload config: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func run(cfgMgr *config.Manager) error {
	cfg := cfgMgr.Get()
	log.Printf("inputhook %s starting (mode=%s, backend=%s)", version, cfg.Capture.Mode, cfg.Capture.Backend)

	factory, err := newFactory(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loop := boundary.NewLoop(cfg.Capture.QueueSize)
	loop.Start(ctx)

	hotkeys := hotkey.NewManager()
	if err := bindStopHotkey(hotkeys, cfgMgr, cancel); err != nil {
		return err
	}
	reloadOnHangup(ctx, cfgMgr)

	var forwarder *network.UDPForwarder
	if len(cfg.Server.UDPTargets) > 0 {
		forwarder, err = network.NewUDPForwarder(cfg.Server.UDPTargets)
		if err != nil {
			return err
		}
		defer forwarder.Close()
	}

	var hub *api.Hub
	out := newPrinter(cfg.General.PrintEvents)
	sink := func(c event.Category, payload any) {
		out(c, payload)
		if hub != nil {
			hub.Publish(c, payload)
		}
		if forwarder != nil {
			forwarder.Publish(c, payload)
		}
	}

	capture, err := newCapture(cfg, loop, factory, hotkeys, sink)
	if err != nil {
		return err
	}

	var server *api.Server
	if cfg.Server.WSEnabled {
		hub = api.NewHub(protocol.HelloPayload{
			Server:  "inputhook",
			Version: version,
			Mode:    cfg.Capture.Mode,
		}, capture.Status)
		server = api.NewServer(hub, cfg.Server.WSToken)
		go func() {
			if err := server.Start(cfg.Server.WSPort); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	if err := capture.Start(); err != nil {
		return err
	}

	if cfg.General.TrayEnabled {
		t := tray.New("inputhook "+version, capture, capture.StatusLine, cancel)
		go func() {
			<-ctx.Done()
			t.Stop()
		}()
		log.Println("inputhook running. Use the tray menu or press Ctrl+C to stop.")
		t.Run()
		cancel()
	} else {
		log.Println("inputhook running. Press Ctrl+C to stop.")
		<-ctx.Done()
	}

	log.Println("Shutting down...")
	if err := capture.Stop(); err != nil {
		log.Printf("Stop error: %v", err)
	}
	if server != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	loop.Close()
	log.Println(capture.StatusLine())
	return nil
}

func newFactory(cfg config.Config) (native.Factory, error) {
	if cfg.Capture.Backend == config.BackendReplay {
		return native.ReplayFactory(cfg.Capture.ReplayFile, cfg.Capture.ReplayPaced)
	}
	return native.DefaultFactory(), nil
}

// newPrinter returns a sink writing one JSON line per event. It runs on the
// consumer loop, so the encoder is never used concurrently.
func newPrinter(enabled bool) func(event.Category, any) {
	if !enabled {
		return func(event.Category, any) {}
	}
	enc := json.NewEncoder(os.Stdout)
	return func(c event.Category, payload any) {
		if err := enc.Encode(struct {
			Category string `json:"category"`
			Data     any    `json:"data"`
		}{c.String(), payload}); err != nil {
			log.Printf("Failed to print event: %v", err)
		}
	}
}

// watchUDP prints frames sent by another instance's -udp forwarder until interrupted
func watchUDP(addr string) error {
	enc := json.NewEncoder(os.Stdout)
	r := network.NewUDPReceiver(func(f *protocol.Frame) {
		if err := enc.Encode(f); err != nil {
			log.Printf("Failed to print frame: %v", err)
		}
	})
	if err := r.Start(addr); err != nil {
		return err
	}
	defer r.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	log.Printf("Watching UDP frames on %s. Press Ctrl+C to stop.", r.Addr())
	<-ctx.Done()
	return nil
}
