package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/otolabs/oto/ai"
	"github.com/otolabs/oto/ai/core/llm"
	"github.com/otolabs/oto/ai/metrics"
	"github.com/otolabs/oto/internal/profile"
	"github.com/otolabs/oto/internal/version"
	"github.com/otolabs/oto/server"
	"github.com/otolabs/oto/space"
)

var rootCmd = &cobra.Command{
	Use:   "oto",
	Short: "Space-aware AI assistant service: pluggable providers, mention handling, and role-based permissions.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Load .env for direct binary execution; process managers supply
		// environment variables themselves.
		_ = godotenv.Load()
		return nil
	},
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile := &profile.Profile{
			Mode:    viper.GetString("mode"),
			Addr:    viper.GetString("addr"),
			Port:    viper.GetInt("port"),
			Version: version.String(),
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		registry, err := buildRegistry(ctx, instanceProfile)
		if err != nil {
			slog.Error("failed to build provider registry", "error", err)
			os.Exit(1)
		}

		recorder := metrics.NewRecorder(metrics.Config{})
		registry.SetRecorder(recorder)

		s := server.New(instanceProfile, registry, memberRoleLookup, recorder)

		c := make(chan os.Signal, 1)
		signal.Notify(c, terminationSignals...)
		go func() {
			<-c
			s.Shutdown(ctx)
			cancel()
		}()

		slog.Info("oto starting", "version", version.StringFull(), "mode", instanceProfile.Mode)
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server exited", "error", err)
			cancel()
		}
		<-ctx.Done()
	},
}

// buildRegistry registers the simulated fallback first, then any hosted
// provider the profile configures, which becomes the default.
func buildRegistry(ctx context.Context, p *profile.Profile) (*ai.Registry, error) {
	registry := ai.NewRegistry()

	if err := registry.Register("simulated", ai.NewSimulatedProvider(), ai.SimulatedDescriptor()); err != nil {
		return nil, err
	}

	if !p.IsHostedAIEnabled() {
		slog.Info("no hosted LLM configured, running on the simulated provider")
		return registry, nil
	}

	hosted, err := llm.New(&llm.Config{
		Provider: p.LLMProvider,
		Model:    p.LLMModel,
		APIKey:   p.LLMAPIKey,
		BaseURL:  p.LLMBaseURL,
		Timeout:  p.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}

	kind := ai.KindHostedOpenAI
	if p.IsGoogleProvider() {
		kind = ai.KindHostedGoogle
	}
	desc := ai.Descriptor{
		DisplayName: p.LLMProvider + "/" + p.LLMModel,
		Kind:        kind,
		IsDefault:   true,
		Status:      statusAtStartup(ctx, hosted),
	}
	if err := registry.Register(p.LLMProvider, hosted, desc); err != nil {
		return nil, err
	}
	return registry, nil
}

// statusAtStartup warms up the hosted provider and reports its initial
// connection status.
func statusAtStartup(ctx context.Context, p ai.Provider) ai.ProviderStatus {
	if w, ok := p.(interface{ Warmup(context.Context) }); ok {
		w.Warmup(ctx)
	}
	if p.IsAvailable(ctx) {
		return ai.StatusConnected
	}
	return ai.StatusDisconnected
}

// memberRoleLookup is the demo membership resolver. A real deployment
// replaces this with a lookup against the membership store; here every
// known user maps to a fixed role so the permission flow is exercisable.
func memberRoleLookup(_ context.Context, _, userID string) (space.Role, bool) {
	if userID == "" {
		return "", false
	}
	if role, ok := space.ParseRole(userID); ok {
		// Convenience for local testing: a userId equal to a role name
		// acts as that role.
		return role, true
	}
	return space.RoleMember, true
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28091)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28091, "port of server")

	for _, flag := range []string{"mode", "addr", "port"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("oto")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
