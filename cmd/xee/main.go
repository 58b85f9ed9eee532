package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/xuperchain/eeproxy/cmd/xee/cmd"
)

func main() {
	rootCmd := NewServiceCommand()
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("xee exit.err:%v", err)
	}
}

func NewServiceCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "xee <command> [arguments]",
		Short:         "Xee is the execution engine side of the host channel.",
		Long:          "Xee is the execution engine side of the host channel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       "xee serve --conf /home/rd/xee/conf/ee.yaml",
	}

	// cmd version
	rootCmd.AddCommand(cmd.GetVersionCmd().GetCmd())
	// cmd dump
	rootCmd.AddCommand(cmd.GetDumpCmd().GetCmd())
	// cmd serve
	rootCmd.AddCommand(cmd.GetServeCmd().GetCmd())
	return rootCmd
}
