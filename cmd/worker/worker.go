package worker

import "github.com/spf13/cobra"

// NewWorkerCmd returns the parent "worker" command. The only worker today is
// the delivery recorder feeding the reporting store.
func NewWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run background workers",
		Long:  "Background consumers of the delivery event stream.",
	}
	cmd.AddCommand(recorderCmd)

	return cmd
}
