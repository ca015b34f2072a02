// Lumina is a terminal client for conversational text generation,
// image understanding and image generation, backed by Gemini.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lumina/cmd/lumina/ui"
	"lumina/internal/chat"
	"lumina/internal/config"
	"lumina/internal/gateway"
	"lumina/internal/logging"
	"lumina/internal/usage"
)

var (
	configPath string
	apiKey     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "lumina",
	Short: "Lumina - Gemini chat, vision and image generation in the terminal",
	Long: `Lumina is an interactive client for the Gemini generation APIs.

It offers three views: a streaming chat (with image attachments for
vision questions), an image generation surface, and a usage analytics
dashboard. Switch views with tab.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "path to config file")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (overrides config and GEMINI_API_KEY)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lumina", "config.yaml")
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiKey != "" {
		cfg.Gemini.APIKey = apiKey
	}
	if cfg.Gemini.APIKey == "" {
		return fmt.Errorf("no API key configured: set GEMINI_API_KEY, --api-key, or gemini.api_key in %s", configPath)
	}

	logDir := cfg.Logging.Dir
	if logDir == "" {
		logDir = filepath.Join(os.TempDir(), "lumina-logs")
	}
	logger, err := logging.New(logDir, verbose || cfg.Logging.Verbose)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	gwCfg := gateway.DefaultGeminiConfig(cfg.Gemini.APIKey)
	gwCfg.ChatModel = cfg.Gemini.ChatModel
	gwCfg.ImageModel = cfg.Gemini.ImageModel
	if cfg.Gemini.Temperature > 0 {
		gwCfg.Temperature = cfg.Gemini.Temperature
	}
	gw, err := gateway.NewGeminiClient(context.Background(), gwCfg, logger)
	if err != nil {
		return err
	}

	tracker := usage.NewTracker()
	log := chat.NewLog(chat.WelcomeMessage())
	ctrl := chat.NewController(log, gw, tracker, logger)

	logger.Info("starting lumina",
		zap.String("chat_model", gwCfg.ChatModel),
		zap.String("image_model", gwCfg.ImageModel))

	return ui.Run(ctrl, gw, tracker, logger)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
