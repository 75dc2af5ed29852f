package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"cascade-engine/internal/config"
	"cascade-engine/internal/derive/builtin"
	"cascade-engine/internal/mapping"
	"cascade-engine/internal/project"
	"cascade-engine/internal/stage"
)

var errInvalidTable = errors.New("prefill table has errors")

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cascade",
		Short: "Move scan-to-BIM projects through their production stages",
		Long: `cascade prefills each production stage of a project from the scoping
form and from the stages before it.

Projects live in a YAML store (--store or store_path in the config file).
Every command prints JSON.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().String("store", "", "Path to the project store (overrides store_path)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "config",
			Short: "Print the default configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), config.DefaultYAML)
				return err
			},
		},
		&cobra.Command{
			Use:   "validate [table]",
			Short: "Check a prefill table against the stage catalog and derivations",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runValidate,
		},
		&cobra.Command{
			Use:   "table",
			Short: "Print the built-in prefill table, as a starting point for a custom one",
			Args:  cobra.NoArgs,
			RunE:  runTable,
		},
		&cobra.Command{
			Use:   "catalog <stage>",
			Short: "List the fields a stage carries and their value kinds",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := stage.Parse(args[0])
				if err != nil {
					return err
				}

				return printJSON(cmd, project.Catalog(st))
			},
		},
		&cobra.Command{
			Use:   "mappings <from-stage>",
			Short: "List the prefill mappings of the transition leaving a stage",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runMappings),
		},
		&cobra.Command{
			Use:   "create <scoping.yaml>",
			Short: "Create a project from a scoping form export",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runCreate),
		},
		&cobra.Command{
			Use:   "set <project-id> <stage> <field> <value>",
			Short: "Record an operator value; the value is parsed as YAML",
			Args:  cobra.ExactArgs(4),
			RunE:  withApp(runSet),
		},
		&cobra.Command{
			Use:   "preview <project-id>...",
			Short: "Show what advancing would prefill, without changing anything",
			Args:  cobra.MinimumNArgs(1),
			RunE:  withApp(runPreview),
		},
		&cobra.Command{
			Use:   "advance <project-id>",
			Short: "Advance a project to its next stage",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runAdvance),
		},
		&cobra.Command{
			Use:   "show <project-id>",
			Short: "Print a stored project",
			Args:  cobra.ExactArgs(1),
			RunE:  withApp(runShow),
		},
	)

	return rootCmd
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

type validateReport struct {
	Table         string   `json:"table"`
	Valid         bool     `json:"valid"`
	Mappings      int      `json:"mappings"`
	Transitions   []string `json:"transitions,omitempty"`
	TransformKeys []string `json:"transformKeys,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Warnings      []string `json:"warnings,omitempty"`
	Infos         []string `json:"infos,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	path := cfg.MappingTable
	if len(args) == 1 {
		path = args[0]
	}

	var mf *mapping.MappingFile
	if path == "" {
		mf, err = mapping.DefaultFile()
	} else {
		mf, err = mapping.LoadFile(path)
	}

	if err != nil {
		return err
	}

	reg, err := builtin.NewRegistry(cfg.DerivationOptions())
	if err != nil {
		return err
	}

	diags := mapping.Validate(mf, reg)

	report := validateReport{Table: path, Valid: !diags.HasErrors()}
	if report.Table == "" {
		report.Table = "built-in"
	}

	if report.Valid {
		table, err := mapping.Build(mf, reg)
		if err != nil {
			return err
		}

		report.Mappings = table.Len()
		report.TransformKeys = table.TransformKeys()

		for _, tr := range table.Transitions() {
			report.Transitions = append(report.Transitions, tr.String())
		}
	}

	for _, d := range diags.Errors {
		report.Errors = append(report.Errors, d.String())
	}

	for _, d := range diags.Warnings {
		report.Warnings = append(report.Warnings, d.String())
	}

	for _, d := range diags.Infos {
		report.Infos = append(report.Infos, d.String())
	}

	if err := printJSON(cmd, report); err != nil {
		return err
	}

	if !report.Valid {
		return fmt.Errorf("%w: %d error(s)", errInvalidTable, len(diags.Errors))
	}

	return nil
}

func runTable(cmd *cobra.Command, _ []string) error {
	mf, err := mapping.DefaultFile()
	if err != nil {
		return err
	}

	data, err := mapping.Marshal(mf)
	if err != nil {
		return err
	}

	_, err = cmd.OutOrStdout().Write(data)

	return err
}

func runMappings(cmd *cobra.Command, a *app, args []string) error {
	from, err := stage.Parse(args[0])
	if err != nil {
		return err
	}

	if from.IsTerminal() {
		return fmt.Errorf("%s is the terminal stage", from)
	}

	to, _ := stage.Next(from)

	return printJSON(cmd, a.table.For(from, to))
}

func runCreate(cmd *cobra.Command, a *app, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read scoping form: %w", err)
	}

	var snapshot project.Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to parse scoping form: %w", err)
	}

	p, err := a.service.Create(cmd.Context(), snapshot)
	if err != nil {
		return err
	}

	return printJSON(cmd, p)
}

func runSet(cmd *cobra.Command, a *app, args []string) error {
	st, err := stage.Parse(args[1])
	if err != nil {
		return err
	}

	value, err := parseValue(args[3])
	if err != nil {
		return err
	}

	p, err := a.service.SetField(cmd.Context(), args[0], st, args[2], value)
	if err != nil {
		return err
	}

	return printJSON(cmd, p)
}

// parseValue reads a command line value as a YAML scalar or flow list, so
// 15, true, 2.5 and [a, b] keep their types and dates stay text.
func parseValue(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("failed to parse value %q: %w", raw, err)
	}

	if v == nil {
		return raw, nil
	}

	return v, nil
}

func runPreview(cmd *cobra.Command, a *app, args []string) error {
	if len(args) == 1 {
		pv, err := a.service.Preview(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return printJSON(cmd, pv)
	}

	previews, err := a.service.PreviewBatch(cmd.Context(), args)
	if err != nil {
		return err
	}

	return printJSON(cmd, previews)
}

func runAdvance(cmd *cobra.Command, a *app, args []string) error {
	adv, err := a.service.Advance(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return printJSON(cmd, adv)
}

func runShow(cmd *cobra.Command, a *app, args []string) error {
	p, err := a.service.Project(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	return printJSON(cmd, p)
}
