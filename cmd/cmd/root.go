package cmd

import (
	"github.com/spf13/cobra"
)

const AppName = "volex"

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: AppName + " - read-only FAT32/NTFS forensic volume explorer",
	}

	rootCmd.AddCommand(DefineShellCommand())
	rootCmd.AddCommand(DefineFsstatCommand())
	rootCmd.AddCommand(DefineMountCommand())
	rootCmd.AddCommand(DefineReportCommand())

	return rootCmd.Execute()
}
