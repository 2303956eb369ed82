package main

import (
	"log"

	"github.com/absmach/flock"
	"github.com/absmach/flock/cli"
	"github.com/absmach/flock/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defCoordinatorURL  = "http://localhost:7070"
	defInferenceURL    = "http://localhost:8081"
	defTLSVerification = false
)

func main() {
	var configPath string

	sdkConf := sdk.Config{
		CoordinatorURL:  defCoordinatorURL,
		InferenceURL:    defInferenceURL,
		TLSVerification: defTLSVerification,
	}

	rootCmd := &cobra.Command{
		Use:   "flock-cli",
		Short: "Flock CLI",
		Long:  `Flock CLI is a command line interface for driving federated training sessions and querying the trained model.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if configPath != "" {
				cfg, err := flock.LoadConfig(configPath)
				if err != nil {
					log.Fatalf("failed to load config: %s", err)
				}
				if cfg.Coordinator.URL != "" {
					sdkConf.CoordinatorURL = cfg.Coordinator.URL
				}
				if cfg.Inference.URL != "" {
					sdkConf.InferenceURL = cfg.Inference.URL
				}
				sdkConf.TLSVerification = cfg.Coordinator.TLSVerification
			}
			cli.SetFlockSDK(sdk.NewSDK(sdkConf))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&sdkConf.CoordinatorURL, "coordinator-url", defCoordinatorURL, "Coordinator URL")
	rootCmd.PersistentFlags().StringVar(&sdkConf.InferenceURL, "inference-url", defInferenceURL, "Inference service URL")

	rootCmd.AddCommand(
		cli.NewSessionsCmd(),
		cli.NewRoundsCmd(),
		cli.NewParticipantsCmd(),
		cli.NewPredictCmd(),
		cli.NewModelCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
