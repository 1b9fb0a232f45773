package app

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/meridianmaps/catalog-server/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file, then print a summary of the
catalog groups it defines. Exits non-zero when the configuration is invalid.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	if err := validateCmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to retrieve config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration %s is valid\n\n", configPath)
	fmt.Fprintf(out, "Catalog:  %s\n", cfg.GetCatalogName())
	fmt.Fprintf(out, "Data dir: %s\n", cfg.Storage.GetDataDir())
	fmt.Fprintf(out, "Address:  %s\n", cfg.Server.GetAddress())
	if cfg.Proxy != nil {
		fmt.Fprintf(out, "Proxy:    %s (cache %s)\n", cfg.Proxy.BaseURL, cfg.Proxy.GetDuration())
	}
	fmt.Fprintln(out)

	table := tablewriter.NewWriter(out)
	table.Header("Group", "Type", "Source", "Interval", "Filter")
	for i := range cfg.Groups {
		group := &cfg.Groups[i]
		row := []string{
			group.Name,
			group.GetType(),
			groupSource(group),
			groupInterval(cfg, group),
			groupFilter(group),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to render group table: %w", err)
		}
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render group table: %w", err)
	}

	return nil
}

// groupSource describes where a group's members come from
func groupSource(group *config.GroupConfig) string {
	switch group.GetType() {
	case config.SourceTypeWFS:
		return group.WFS.URL
	case config.SourceTypeFile:
		return group.File.Path
	case config.SourceTypeGit:
		return group.Git.Repository
	case config.SourceTypeStatic:
		return fmt.Sprintf("%d inline members", len(group.Static.Members))
	default:
		return ""
	}
}

// groupInterval describes the refresh interval that applies to a group,
// falling back to the catalog-wide default
func groupInterval(cfg *config.Config, group *config.GroupConfig) string {
	if group.RefreshPolicy != nil && group.RefreshPolicy.Interval != "" {
		return group.RefreshPolicy.Interval
	}
	if cfg.RefreshPolicy != nil && cfg.RefreshPolicy.Interval != "" {
		return cfg.RefreshPolicy.Interval + " (default)"
	}
	return "manual"
}

// groupFilter summarizes a group's include/exclude rules
func groupFilter(group *config.GroupConfig) string {
	if group.Filter == nil || (len(group.Filter.Include) == 0 && len(group.Filter.Exclude) == 0) {
		return "-"
	}
	return fmt.Sprintf("include %d, exclude %d", len(group.Filter.Include), len(group.Filter.Exclude))
}
