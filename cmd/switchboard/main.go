package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/switchboardhq/switchboard/internal/profile"
	"github.com/switchboardhq/switchboard/plugin/assistant/capability"
	"github.com/switchboardhq/switchboard/plugin/assistant/conversation"
	"github.com/switchboardhq/switchboard/plugin/assistant/intent"
	"github.com/switchboardhq/switchboard/plugin/assistant/llm"
	"github.com/switchboardhq/switchboard/plugin/assistant/orchestrator"
	"github.com/switchboardhq/switchboard/server"
	"github.com/switchboardhq/switchboard/store"
	"github.com/switchboardhq/switchboard/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "switchboard",
	Short: "A capability-routing assistant core",
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Data:    viper.GetString("data"),
			Driver:  viper.GetString("driver"),
			DSN:     viper.GetString("dsn"),
			Version: version,

			HistoryLimit: viper.GetInt("history-limit"),
			EntityLimit:  viper.GetInt("entity-limit"),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		driver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			return fmt.Errorf("failed to create database driver: %w", err)
		}
		if err := driver.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		storeInstance := store.New(driver, instanceProfile)
		defer func() {
			if err := storeInstance.Close(); err != nil {
				slog.Error("failed to close store", slog.Any("err", err))
			}
		}()

		var client llm.Client
		if instanceProfile.IsLLMEnabled() {
			client = llm.NewClient(llm.Config{
				APIKey:  instanceProfile.LLMAPIKey,
				BaseURL: instanceProfile.LLMBaseURL,
				Model:   instanceProfile.LLMModel,
			})
		} else {
			slog.Warn("no LLM API key configured; running with rules-only classification")
		}

		contexts := conversation.NewService(storeInstance, conversation.Config{
			HistoryLimit: instanceProfile.HistoryLimit,
			EntityLimit:  instanceProfile.EntityLimit,
			TTL:          instanceProfile.ContextTTL,
		})

		registry := capability.NewRegistry()
		registry.Register(intent.CapabilityContent, capability.NewContentHandler(client))
		registry.Register(intent.CapabilityCRM, capability.NewCRMHandler(client))
		registry.Register(intent.CapabilityTracker, capability.NewTrackerHandler(client))
		registry.Register(intent.CapabilityGeneral, capability.NewGeneralHandler(client))

		assistant := orchestrator.New(
			contexts,
			intent.NewService(client, intent.DefaultConfig()),
			registry,
			intent.DefaultConfig(),
		)

		httpServer := server.NewServer(instanceProfile, assistant)
		cleanupJob := conversation.NewCleanupJob(contexts, instanceProfile.CleanupInterval)

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			cleanupJob.Start(gCtx)
			<-gCtx.Done()
			cleanupJob.Stop()
			return nil
		})
		g.Go(func() error {
			if err := httpServer.Start(gCtx); err != nil {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gCtx.Done()
			httpServer.Shutdown(context.Background())
			return nil
		})

		slog.Info("switchboard started",
			slog.String("version", version),
			slog.String("driver", instanceProfile.Driver),
			slog.Bool("llm", instanceProfile.IsLLMEnabled()))

		if err := g.Wait(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of the server")
	rootCmd.PersistentFlags().String("data", ".", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database connection string")
	rootCmd.PersistentFlags().Int("history-limit", 10, "turns kept per conversation")
	rootCmd.PersistentFlags().Int("entity-limit", 5, "entities kept per kind per conversation")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn", "history-limit", "entity-limit"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("switchboard")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("failed to start", slog.Any("err", err))
		os.Exit(1)
	}
}
