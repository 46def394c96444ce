package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information, set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var versionJSON bool

// VersionInfo is the machine-readable form of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func currentVersion() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build time and git commit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		v := currentVersion()
		out := cmd.OutOrStdout()
		if versionJSON {
			return json.NewEncoder(out).Encode(v)
		}
		fmt.Fprintf(out, "%s version %s\n", BinName(), v.Version)
		fmt.Fprintf(out, "  Git Commit: %s\n", v.GitCommit)
		fmt.Fprintf(out, "  Build Time: %s\n", v.BuildTime)
		fmt.Fprintf(out, "  Go Version: %s\n", v.GoVersion)
		fmt.Fprintf(out, "  OS/Arch:    %s\n", v.Platform)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print version information as JSON")
}
