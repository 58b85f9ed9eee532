package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	buildVersion = ""
	commitHash   = ""
	buildDate    = ""
)

type VersionCmd struct {
	BaseCmd
}

func GetVersionCmd() *VersionCmd {
	versionCmdIns := new(VersionCmd)

	versionCmdIns.cmd = &cobra.Command{
		Use:     "version",
		Short:   "View process version information.",
		Example: "xee version",
		Run: func(cmd *cobra.Command, args []string) {
			Version(cmd.OutOrStdout())
		},
	}

	return versionCmdIns
}

func Version(w io.Writer) {
	fmt.Fprintf(w, "%s-%s %s\n", buildVersion, commitHash, buildDate)
}
