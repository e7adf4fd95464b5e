package main

import "github.com/spf13/cobra"

// annotationStructuredLog marks commands whose diagnostics go through the
// structured logger instead of plain stderr lines.
const annotationStructuredLog = "scanwatch.structured-log"

var rootCmd = &cobra.Command{
	Use:           "scanwatch",
	Short:         "Scanwatch mirrors a security-scan backend into a live local view.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setCommandExecutionContext(commandExecutionContext{
			CommandPath:       cmd.CommandPath(),
			UsesStructuredLog: commandUsesStructuredLogging(cmd),
		})
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func commandUsesStructuredLogging(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[annotationStructuredLog] == "true" {
			return true
		}
	}
	return false
}

func init() {
	rootCmd.AddCommand(serveCmd, scanCmd, reportCmd, historyCmd)
}
