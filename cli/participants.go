package cli

import "github.com/spf13/cobra"

func NewParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants [list|remove]",
		Short: "Participant registry",
		Long:  `List and remove registered participants.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Long:  `List participants.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			pp, err := fsdk.ListParticipants(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, pp)
		},
	}

	removeCmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove participant",
		Long:  `Remove participant.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			if err := fsdk.RemoveParticipant(args[0]); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(removeCmd)
	addPageFlags(cmd)

	return cmd
}
