package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rtspd/internal/config"
	"rtspd/internal/httpserver"
	"rtspd/internal/logger"
	"rtspd/internal/server"
)

var (
	cfgPath      string
	listenAddr   string
	httpAddr     string
	mediaFile    string
	frameRate    int
	rtpPort      int
	rtcpPort     int
	idleTimeout  time.Duration
	readBuffer   int
	writeBuffer  int
	logFile      string
	logLevel     string
	drainTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streaming daemon",
	Example: "  rtspd serve --media-file stream.h264\n" +
		"  rtspd serve --config rtspd.json --listen :8554",
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfgPath, "config", "", "path to a JSON config file")
	f.StringVar(&listenAddr, "listen", "", "control-protocol listen address (overrides config)")
	f.StringVar(&httpAddr, "http-addr", "", "admin/metrics HTTP listen address (overrides config)")
	f.StringVar(&mediaFile, "media-file", "", "path to the H.264 Annex B elementary stream to serve")
	f.IntVar(&frameRate, "frame-rate", 0, "frames per second to pace RTP output at (overrides config)")
	f.IntVar(&rtpPort, "rtp-port", 0, "UDP port to send RTP packets from (overrides config)")
	f.IntVar(&rtcpPort, "rtcp-port", 0, "UDP port bound for RTCP; nothing is sent or read on it (overrides config)")
	f.DurationVar(&idleTimeout, "idle-timeout", 0, "control connection idle timeout (overrides config)")
	f.IntVar(&readBuffer, "read-buffer", 0, "control connection read buffer size in bytes (overrides config)")
	f.IntVar(&writeBuffer, "write-buffer", 0, "control connection write buffer size in bytes (overrides config)")
	f.StringVar(&logFile, "log-file", "", "rotate JSON logs to this file in addition to stdout")
	f.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, or error")
	f.DurationVar(&drainTimeout, "drain-timeout", 10*time.Second, "how long to wait for sessions to finish on shutdown")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.NewWithOptions(logger.Options{
		Stdout:     true,
		Level:      parseLevel(logLevel),
		File:       logFile,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	})

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFile(cfgPath)
		if err != nil {
			log.Fatal("failed to load config", "err", err)
		}
		cfg = loaded
	}

	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if mediaFile != "" {
		cfg.MediaFile = mediaFile
	}
	if frameRate > 0 {
		cfg.FrameRate = frameRate
	}
	if rtpPort > 0 {
		cfg.RTPPort = rtpPort
	}
	if rtcpPort > 0 {
		cfg.RTCPPort = rtcpPort
	}
	if idleTimeout > 0 {
		cfg.IdleTimeout = config.Duration(idleTimeout)
	}
	if readBuffer > 0 {
		cfg.ReadBuffer = readBuffer
	}
	if writeBuffer > 0 {
		cfg.WriteBuffer = writeBuffer
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", "err", err)
	}

	acceptor := server.New(cfg, log)
	defer acceptor.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.HTTPAddr != "" {
		httpSrv := httpserver.New(cfg.HTTPAddr, log, httpserver.Stats{
			Sessions:     acceptor,
			RateLimit:    acceptor.RateLimiter(),
			SessionLimit: acceptor.SessionLimiter(),
			FrameRate:    cfg.FrameRate,
			MediaFile:    cfg.MediaFile,
		})
		go func() {
			if err := httpSrv.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("http server error", "err", err)
			}
		}()
	}

	errs := make(chan error, 1)
	go func() { errs <- acceptor.Run(ctx) }()

	select {
	case <-ctx.Done():
		log.Info("shutting down", "reason", ctx.Err())
	case err := <-errs:
		if err != nil {
			log.Error("control server error", "err", err)
			return err
		}
	}

	drained := make(chan struct{})
	go func() {
		acceptor.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Info("all sessions drained")
	case <-time.After(drainTimeout):
		log.Warn("drain timeout reached, exiting with sessions still active",
			"active", len(acceptor.SessionIDs()))
	}

	return nil
}
