package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-intro-broker/internal/render"
	"github.com/tbourn/go-intro-broker/internal/sysutil"
	"github.com/tbourn/go-intro-broker/internal/templates"
)

func templatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Inspect message templates",
	}

	var (
		path     string
		smsLimit int
		strict   bool
	)
	check := &cobra.Command{
		Use:   "check",
		Short: "Lint the embedded defaults overlaid with a template file",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := checkTemplates(cmd.OutOrStdout(), path, smsLimit)
			if err != nil {
				return err
			}
			if strict && n > 0 {
				return fmt.Errorf("%d template issue(s)", n)
			}
			return nil
		},
	}
	check.Flags().StringVar(&path, "file", "", "YAML overlay (defaults to $TEMPLATES_PATH)")
	check.Flags().IntVar(&smsLimit, "sms-limit", render.DefaultSMSLimit, "SMS length limit")
	check.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any issue is found")
	check.PreRun = func(cmd *cobra.Command, args []string) {
		path = sysutil.FirstNonEmpty(path, os.Getenv("TEMPLATES_PATH"))
	}

	cmd.AddCommand(check)
	return cmd
}

// checkTemplates prints one line per template and per issue and returns the
// number of issues.
func checkTemplates(w io.Writer, path string, smsLimit int) (int, error) {
	reg, err := templates.NewRegistry(path)
	if err != nil {
		return 0, err
	}
	ts := reg.List()
	for _, t := range ts {
		fmt.Fprintf(w, "%-24s %-5s %d token(s)\n", t.Type, t.Channel, len(render.Tokens(t.Subject+" "+t.Body)))
	}
	issues := templates.Check(ts, smsLimit)
	for _, is := range issues {
		fmt.Fprintf(w, "issue: %s\n", is)
	}
	fmt.Fprintf(w, "%d template(s), %d issue(s)\n", len(ts), len(issues))
	return len(issues), nil
}
