package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/deptdata/internal/config"
	"github.com/JonMunkholm/deptdata/internal/core"
	"github.com/JonMunkholm/deptdata/internal/core/rules"
	"github.com/JonMunkholm/deptdata/internal/logging"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	rulesFile string
	verbose   bool
}

type processFlags struct {
	department  string
	project     string
	contentType string
	export      string
	out         string
	dryRun      bool
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:           "deptdata",
		Short:         "Validate and transform departmental data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := "warn"
			if g.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.rulesFile, "rules", "", "YAML rule catalog (default: built-in rules, or RULES_FILE)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Log pipeline details to stderr")

	root.AddCommand(newProcessCmd(&g), newRulesCmd(&g), newCategorizeCmd())
	return root
}

// newService builds a service from the environment configuration and the
// selected rule catalog. The --rules flag wins over RULES_FILE.
func newService(g *globalFlags) (*core.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, &exitErr{code: exitUsage, err: err}
	}

	path := cfg.Rules.File
	if g.rulesFile != "" {
		path = g.rulesFile
	}
	catalog, err := rules.Load(path)
	if err != nil {
		return nil, &exitErr{code: exitUsage, err: err}
	}

	return core.NewService(core.NewRuleRegistry(catalog), core.ServiceConfig{
		MaxFileSize:   cfg.Upload.MaxFileSize,
		MaxConcurrent: cfg.Upload.MaxConcurrent,
		MaxWaitTime:   cfg.Upload.MaxWaitTime,
		JobRetention:  cfg.Upload.JobRetention,
	}), nil
}

func newProcessCmd(g *globalFlags) *cobra.Command {
	var flags processFlags

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Process one file and print its stats, or export its records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), cmd.OutOrStdout(), g, args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.department, "department", "", "Department that owns the file (required)")
	f.StringVar(&flags.project, "project", "", "Project the file belongs to")
	f.StringVar(&flags.contentType, "type", "", "Content type, e.g. text/csv (default: from the file extension)")
	f.StringVar(&flags.export, "export", "", "Export processed records as json or csv instead of printing stats")
	f.StringVar(&flags.out, "out", "", "Write output to file instead of stdout")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print a preview of the outcome without storing records")
	_ = cmd.MarkFlagRequired("department")

	return cmd
}

func runProcess(ctx context.Context, stdout io.Writer, g *globalFlags, path string, flags processFlags) error {
	format := core.ExportFormat(strings.ToLower(flags.export))
	if format != "" && format != core.ExportJSON && format != core.ExportCSV {
		return &exitErr{code: exitUsage, err: fmt.Errorf("%w: %s", core.ErrUnsupportedExportFormat, flags.export)}
	}

	service, err := newService(g)
	if err != nil {
		return err
	}

	f, err := os.Open(path) //nolint:gosec // path is a CLI argument
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrFileRead, err)
	}
	defer f.Close()

	upload := core.Upload{
		Name:        filepath.Base(path),
		ContentType: flags.contentType,
		Body:        f,
	}

	if flags.dryRun {
		preview, err := service.PreviewFile(ctx, upload, flags.department)
		if err != nil {
			return err
		}
		return writeOutput(stdout, flags.out, preview)
	}

	stats, err := service.ProcessFile(ctx, upload, flags.department, flags.project, nil)
	if err != nil {
		return err
	}

	if format == "" {
		return writeOutput(stdout, flags.out, stats)
	}

	output, err := service.ExportProcessedData(flags.department, flags.project, format)
	if err != nil {
		return err
	}
	slog.Info("processed", "file", upload.Name, "total", stats.TotalRecords,
		"valid", stats.ValidRecords, "invalid", stats.InvalidRecords, "warning", stats.WarningRecords)

	return writeString(stdout, flags.out, output)
}

// writeOutput prints v as indented JSON.
func writeOutput(stdout io.Writer, out string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeString(stdout, out, string(data)+"\n")
}

// writeString writes to the --out file, or stdout when out is empty.
func writeString(stdout io.Writer, out, s string) error {
	if out != "" {
		return os.WriteFile(out, []byte(s), 0o644) //nolint:gosec // output is meant to be shared
	}
	_, err := io.WriteString(stdout, s)
	return err
}

func newRulesCmd(g *globalFlags) *cobra.Command {
	var department string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List processing rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, err := newService(g)
			if err != nil {
				return err
			}
			return printRules(cmd.OutOrStdout(), service.ProcessingRules(department), asJSON)
		},
	}

	cmd.Flags().StringVar(&department, "department", "", "Only list this department's rules")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print full rule definitions as JSON")
	return cmd
}

func printRules(w io.Writer, list []core.ProcessingRule, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDEPARTMENT\tCATEGORY\tPATTERN\tCHECKS\tTRANSFORMS")
	for _, r := range list {
		pattern := ""
		if r.FilePattern != nil {
			pattern = r.FilePattern.String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.Department, r.Category, pattern, len(r.Validations), len(r.Transformations))
	}
	return tw.Flush()
}

func newCategorizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categorize <file>...",
		Short: "Guess the category of each file from its name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "FILE\tCATEGORY\tCONFIDENCE")
			for _, name := range args {
				c := core.CategorizeFile(filepath.Base(name))
				fmt.Fprintf(tw, "%s\t%s\t%.1f\n", name, c.Category, c.Confidence)
			}
			return tw.Flush()
		},
	}
}
