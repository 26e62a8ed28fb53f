package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"sage/internal/assistant"
	"sage/internal/audio"
	"sage/internal/config"
	"sage/internal/hub"
	"sage/internal/ipc"
	"sage/internal/llm"
	"sage/internal/proxy"
	"sage/internal/speech"
	"sage/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	gated := cli.BoolP("wake", "w", false, "Require the wake word before commands")
	hubAddr := cli.StringP("hub", "u", "", "Websocket hub listen address (overrides env)")
	audioFiles := cli.StringArrayP("audio", "a", nil, "Transcribe audio file(s) instead of the microphone")
	noTTS := cli.Bool("no-tts", false, "Disable speech output")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	cfg := config.Load(*envFile)
	if *gated {
		cfg.RequireWake = true
	}
	if *hubAddr != "" {
		cfg.HubAddress = *hubAddr
	}

	var completer assistant.Completer
	if cfg.APIKey != "" {
		var httpClient *http.Client
		if cfg.ProxyAddr != "" {
			var err error
			httpClient, err = proxy.NewSocksClient(cfg.ProxyAddr)
			if err != nil {
				log.Error("Failed to dial socks proxy", "proxy", cfg.ProxyAddr, "err", err)
				os.Exit(1)
			}
			log.Debug("Loaded proxy")
		}
		completer = llm.New(llm.Options{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			HTTPClient: httpClient,
		})
		log.Debug("Loaded API client")
	}

	var listener assistant.Listener
	if len(*audioFiles) > 0 {
		q, err := speech.NewQueue(cfg.WhisperModel, *audioFiles)
		if err != nil {
			log.Error("Failed to init file input", "err", err)
			os.Exit(1)
		}
		defer q.Close()
		listener = q
		log.Debug("Loaded file input", "files", len(*audioFiles))
	} else {
		mic, err := speech.NewMic(cfg.WhisperModel, cfg.EarconPath)
		if err != nil {
			// degraded mode: the loop reports the missing microphone and stops
			log.Error("Failed to init microphone", "err", err)
		} else {
			defer mic.Close()
			listener = mic
			log.Debug("Loaded microphone")
		}
	}

	var speaker assistant.Speaker
	if !*noTTS {
		speaker = tts.New(audio.NewDucker([]string{"sage"}, 20))
	}

	bridge := assistant.NewBridge()
	policy := assistant.NewPolicy(completer)
	loop := assistant.NewLoop(assistant.LoopConfig{
		WakeWord:    cfg.WakeWord,
		RequireWake: cfg.RequireWake,
	}, policy, listener, speaker, bridge)

	h := hub.New(loop)
	h.Attach(bridge)
	go func() {
		if err := h.ListenAndServe(cfg.HubAddress); err != nil {
			log.Error("Hub server failed", "err", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := ipc.StartServer(func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "stop":
			loop.Stop()
			cancel()
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful")

	err := loop.Run(ctx)
	bridge.Close()
	if err != nil {
		log.Error("Dialogue loop failed", "err", err)
		os.Exit(1)
	}
}
