package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kirahq/kirabridge/pkg/adapters"
	"github.com/kirahq/kirabridge/pkg/agent"
	"github.com/kirahq/kirabridge/pkg/assembler"
	"github.com/kirahq/kirabridge/pkg/attachments"
	"github.com/kirahq/kirabridge/pkg/bus"
	"github.com/kirahq/kirabridge/pkg/channels"
	"github.com/kirahq/kirabridge/pkg/config"
	"github.com/kirahq/kirabridge/pkg/logger"
	"github.com/kirahq/kirabridge/pkg/memory"
	"github.com/kirahq/kirabridge/pkg/persona"
	"github.com/kirahq/kirabridge/pkg/providers"
	"github.com/kirahq/kirabridge/pkg/sources"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	if cfg.Logging.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFileLogging(cfg.Logging.FilePath, cfg.Logging.MaxSizeMB, cfg.Logging.MaxAgeDays); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	workspace := cfg.WorkspacePath()
	os.MkdirAll(workspace, 0755)

	// Registries and sources, owned here and passed down.
	personaMgr := persona.NewManager(cfg.PersonasDir())
	injector := persona.NewInjector(personaMgr)
	memStore := memory.NewStore(workspace)

	asm := assembler.New()
	asm.SetSourceTimeout(time.Duration(cfg.Assembler.SourceTimeoutSeconds) * time.Second)
	asm.AddSource(sources.NewFilesystemSource(memStore.Retrieve))
	asm.AddSource(sources.NewTaskflowSource(cfg.Sources.Taskflow.APIKey, cfg.Sources.Taskflow.APIBase))
	asm.AddSource(sources.NewPersonaSource(cfg.Personas.Default, personaMgr))

	invoker, err := providers.New(cfg.Provider)
	if err != nil {
		logger.FatalC("main", err.Error())
	}

	msgBus := bus.NewMessageBus()
	router := adapters.NewRouter()
	pipeline := agent.NewPipeline(msgBus, router, asm, injector, invoker, cfg.Personas.Default)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	attachmentStore := attachments.NewStore(workspace)
	manager := channels.NewManager(msgBus)

	if cfg.Channels.Slack.Enabled {
		slackCh, err := channels.NewSlackChannel(cfg.Channels.Slack, msgBus)
		if err != nil {
			logger.ErrorCF("main", "Slack channel unavailable", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			manager.Register(slackCh)
		}
	}
	if cfg.Channels.Gateway.Enabled {
		manager.Register(channels.NewGatewayChannel(cfg.Channels.Gateway, msgBus, attachmentStore))
	}
	if cfg.Channels.CLI.Enabled {
		manager.Register(channels.NewCLIChannel(cfg.Channels.CLI, msgBus))
	}

	if len(manager.Channels()) == 0 {
		logger.FatalC("main", "No channels enabled, nothing to do")
	}

	manager.StartAll(ctx)

	logger.InfoCF("main", "kirabridge running", map[string]interface{}{
		"channels": len(manager.Channels()),
		"sources":  asm.SourceCount(),
		"personas": personaMgr.Count(),
		"provider": invoker.Name(),
	})

	pipeline.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	manager.StopAll(shutdownCtx)
	logger.InfoC("main", "Shutdown complete")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".kirabridge", "config.json")
}
