package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/absmach/flock/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10

	maxRounds         int
	participants      []string
	collectionTimeout string
	maxRoundRetries   int
	watchInterval     time.Duration

	errInvalidIndex = errors.New("round index must be a positive integer")
)

var fsdk sdk.SDK

func SetFlockSDK(s sdk.SDK) {
	fsdk = s
}

func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [start|status|abort|watch]",
		Short: "Training sessions",
		Long:  `Start, inspect and abort federated training sessions.`,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start session",
		Long: `Start a training session.

Examples:
  # Train for five rounds with every alive participant
  flock-cli sessions start --rounds 5

  # Train two named participants with a one minute collection window
  flock-cli sessions start --rounds 3 --participants alpha,http://10.0.0.7:7070 --timeout 1m`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.StartSession(sdk.SessionRequest{
				MaxRounds:         maxRounds,
				Participants:      participants,
				CollectionTimeout: collectionTimeout,
				MaxRoundRetries:   maxRoundRetries,
			})
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	startCmd.Flags().IntVarP(&maxRounds, "rounds", "r", 1, "Number of federated rounds")
	startCmd.Flags().StringSliceVarP(&participants, "participants", "p", []string{}, "Participant ids or trainer URLs (comma-separated); empty selects every alive participant")
	startCmd.Flags().StringVarP(&collectionTimeout, "timeout", "t", "", "Per-round collection timeout, e.g. 90s")
	startCmd.Flags().IntVar(&maxRoundRetries, "retries", 0, "Retries of a round without updates; 0 retries forever")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Session status",
		Long:  `Show the state of the current or most recent session.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			s, err := fsdk.SessionStatus()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, s)
		},
	}

	abortCmd := &cobra.Command{
		Use:   "abort",
		Short: "Abort session",
		Long:  `Abort the running session before its next round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.AbortSession(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch session",
		Long:  `Poll the session status and print every round until the session ends.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			last := -1
			for {
				s, err := fsdk.SessionStatus()
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				if s.CurrentRound != last {
					last = s.CurrentRound
					logSuccessCmd(*cmd, fmt.Sprintf("round %d/%d (%s, %s)", s.CurrentRound, s.MaxRounds, s.State, s.Phase))
				}
				if s.State != "training" {
					logJSONCmd(*cmd, s)

					return
				}

				select {
				case <-cmd.Context().Done():
					return
				case <-time.After(watchInterval):
				}
			}
		},
	}

	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", 2*time.Second, "Polling interval")

	cmd.AddCommand(startCmd)
	cmd.AddCommand(statusCmd)
	cmd.AddCommand(abortCmd)
	cmd.AddCommand(watchCmd)

	return cmd
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [list|view]",
		Short: "Round history",
		Long:  `List and view the rounds of the current or most recent session.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List rounds",
		Long:  `List rounds.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			rp, err := fsdk.ListRounds(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, rp)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <index>",
		Short: "View round",
		Long:  `View round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			index, err := strconv.Atoi(args[0])
			if err != nil || index < 1 {
				logErrorCmd(*cmd, errInvalidIndex)

				return
			}

			r, err := fsdk.GetRound(index)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(viewCmd)
	addPageFlags(cmd)

	return cmd
}

func addPageFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)
}
