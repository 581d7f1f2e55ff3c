package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/libcal/internal/constants"
)

// VersionInfo is printed by the version command.
type VersionInfo struct {
	Version string `json:"version" yaml:"version"`
	Client  string `json:"client"  yaml:"client"`
	Commit  string `json:"commit"  yaml:"commit"`
	Built   string `json:"built"   yaml:"built"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the LibCal CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := VersionInfo{
				Version: version,
				Client:  constants.Version,
				Commit:  commit,
				Built:   date,
			}

			return renderOutput(cmd.OutOrStdout(), info, func(w io.Writer) error {
				table := newTable(w, "Property", "Value")
				_ = table.Append("Version", info.Version)
				_ = table.Append("Client library", info.Client)
				_ = table.Append("Commit", info.Commit)
				_ = table.Append("Built", info.Built)

				return renderTable(table)
			})
		},
	}
}
