package cli

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func NewPredictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "predict <image>",
		Short: "Classify an image",
		Long: `Classify a PNG or JPEG image with the latest global model.

Examples:
  flock-cli predict ./digit.png`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			p, err := fsdk.Predict(filepath.Base(args[0]), data)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, p)
		},
	}
}

func NewModelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "model",
		Short: "Served model",
		Long:  `Show the checkpoint the inference service predicts with.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := fsdk.Model()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}
}
