package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/bnema/adforge/internal/adapters/gemini"
	"github.com/bnema/adforge/internal/version"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version, build and default model information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(out, version.Version)
				return err
			}

			line := fmt.Sprintf("adforge %s %s/%s %s", version.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
			if rev := vcsRevision(); rev != "" {
				line += " rev " + rev
			}
			_, err := fmt.Fprintf(out, "%s\nanalysis model: %s\nimage model:    %s\n",
				line, gemini.DefaultAnalysisModel, gemini.DefaultImageModel)
			return err
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}

// vcsRevision is the short commit the binary was built from, when known.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			rev = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}
