// Command interview-client runs a voice interview without a browser: a WAV
// file stands in for the microphone and the interviewer's speech is written
// to a directory.
package main

import (
	"bufio"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/xpanvictor/intervox/internal/config"
	"github.com/xpanvictor/intervox/pkg/Logger"
	"github.com/xpanvictor/intervox/pkg/client/audio"
	"github.com/xpanvictor/intervox/pkg/client/session"
	"github.com/xpanvictor/intervox/pkg/client/transport"
	"github.com/xpanvictor/intervox/pkg/client/turn"
	"github.com/xpanvictor/intervox/pkg/io/stt/vad"
)

func main() {
	configPath := flag.String("config", "", "client config file (default ./client.yaml)")
	sessionID := flag.String("session", "", "interview session id, overrides the config")
	token := flag.String("token", "", "access token, overrides the config")
	auto := flag.Bool("auto", true, "start talking whenever the interviewer finishes")
	flag.Parse()

	cfg, err := loadConfig(*configPath, *sessionID, *token)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := Logger.New(cfg.Debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := newLogNotifier(logger)
	s, err := newSession(cfg, notifier, logger)
	if err != nil {
		logger.Fatalf("Failed to create session: %v", err)
	}
	defer s.Close()

	if err := s.Start(ctx); err != nil {
		logger.Fatalf("Failed to connect: %v", err)
	}
	if err := s.BeginInterview(); err != nil {
		logger.Errorf("begin: %v", err)
	}

	commands := make(chan string)
	go readCommands(commands)

	logger.Info("commands: t=talk s=stop a=submit i=interrupt k=skip m=mute/unmute e=end q=quit")
	micOn := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-notifier.done:
			logger.Info("interview finished")
			return
		case <-notifier.yourTurn:
			if *auto && micOn {
				if err := s.StartTalking(ctx); err != nil {
					logger.Warnf("talk: %v", err)
				}
			}
		case cmd, ok := <-commands:
			if !ok {
				// stdin closed: keep running on auto until the interview ends
				commands = nil
				continue
			}
			if cmd == "q" {
				return
			}
			if cmd == "m" {
				micOn = !micOn
			}
			if err := runCommand(ctx, s, cmd, micOn); err != nil {
				logger.Warnf("%s: %v", cmd, err)
			}
		}
	}
}

func loadConfig(path, sessionID, token string) (*config.ClientSettings, error) {
	if sessionID != "" {
		os.Setenv("INTERVOX_SESSION_ID", sessionID)
	}
	if token != "" {
		os.Setenv("INTERVOX_TOKEN", token)
	}
	return config.LoadClient(path)
}

func newSession(cfg *config.ClientSettings, n session.Notifier, logger *Logger.Logger) (*session.Session, error) {
	ac := cfg.Audio
	captureCfg := audio.CaptureConfig{
		SampleRate:    ac.SampleRate,
		ChunkDuration: ac.ChunkDuration,
	}
	if ac.VADEnabled {
		v := vad.DefaultVADConfig()
		v.SampleRate = int32(ac.SampleRate)
		v.Threshold = ac.VADThreshold
		v.SilenceDuration = ac.SilenceDuration
		v.RequireSpeech = true
		captureCfg.VAD = &v
	}
	mic := &audio.WAVDevice{Path: ac.InputFile, Realtime: true, PadSilence: true}
	speaker := &audio.FileSink{Dir: ac.OutputDir, Realtime: true}

	tc := cfg.Transport
	return session.New(session.Config{
		Transport: transport.Config{
			URL:               cfg.ServerURL,
			SessionID:         cfg.SessionID,
			Token:             cfg.Token,
			BaseDelay:         tc.BaseDelay,
			Factor:            tc.Factor,
			MaxDelay:          tc.MaxDelay,
			MaxAttempts:       tc.MaxAttempts,
			HeartbeatInterval: tc.HeartbeatInterval,
			InactivityTimeout: tc.InactivityTimeout,
		},
		Turn: turn.Config{
			SubmitOnSilence:      ac.AutoSubmitOnSilence,
			RecordAfterInterrupt: true,
		},
	},
		session.WithCapture(audio.NewCapture(mic, captureCfg, logger)),
		session.WithPlayer(audio.NewPlayer(speaker, logger)),
		session.WithNotifier(n),
		session.WithLogger(logger),
	)
}

func readCommands(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if cmd := strings.TrimSpace(scanner.Text()); cmd != "" {
			out <- cmd
		}
	}
}

func runCommand(ctx context.Context, s *session.Session, cmd string, micOn bool) error {
	switch cmd {
	case "t":
		return s.StartTalking(ctx)
	case "s":
		return s.StopTalking(ctx)
	case "a":
		return s.SubmitAnswer(ctx)
	case "i":
		return s.Interrupt(ctx)
	case "k":
		return s.SkipQuestion(ctx)
	case "e":
		return s.EndInterview(ctx)
	case "m":
		return s.SetMicEnabled(ctx, micOn)
	}
	return nil
}
