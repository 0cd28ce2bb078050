package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

var (
	forceRefresh bool
	exportPath   string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch a dataset into the local cache",
}

var fetchDailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Fetch the daily casualty series",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := build(cfg, observability.NewMetrics())
		defer c.close()

		records, err := c.daily.GetData(cmd.Context(), forceRefresh)
		if err != nil {
			return c.explain(err)
		}
		if exportPath != "" {
			if err := export(exportPath, func(w io.Writer) error { return domain.EncodeDaily(w, records) }); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Daily reports: %d\n", len(records))
		if s, ok := domain.LatestSummary(records); ok {
			fmt.Fprintf(out, "Latest report: %s\n", s.ReportDate)
			printCount(cmd, "Killed", s.Killed)
			printCount(cmd, "Children killed", s.KilledChildren)
			printCount(cmd, "Women killed", s.KilledWomen)
			printCount(cmd, "Injured", s.Injured)
		}
		fmt.Fprintf(out, "Cache: %s\n", c.store.Dir())
		return nil
	},
}

var fetchNamesCmd = &cobra.Command{
	Use:   "names",
	Short: "Fetch the victims registry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := build(cfg, observability.NewMetrics())
		defer c.close()

		victims, err := c.names.GetNames(cmd.Context(), forceRefresh)
		if err != nil {
			return c.explain(err)
		}
		if exportPath != "" {
			if err := export(exportPath, func(w io.Writer) error { return domain.EncodeVictims(w, victims) }); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		report := c.names.Report()
		fmt.Fprintf(out, "Victims: %d\n", len(victims))
		fmt.Fprintf(out, "Skipped lines: %d\n", report.Skipped)
		fmt.Fprintf(out, "Cached at: %s\n", c.names.LoadedAt().Format("2006-01-02 15:04:05"))
		for _, field := range []string{
			domain.FieldID, domain.FieldEnglishName, domain.FieldArabicName,
			domain.FieldAge, domain.FieldSex, domain.FieldDOB, domain.FieldSource,
		} {
			if col, ok := report.Columns[field]; ok {
				fmt.Fprintf(out, "  %-13s <- %s\n", field, col)
			}
		}
		return nil
	},
}

// explain adds the cache location to a DataUnavailable so the operator knows
// which earlier snapshots remain on disk.
func (c *components) explain(err error) error {
	if domain.IsDataUnavailable(err) {
		return fmt.Errorf("%w; earlier snapshots, if any, remain in %s", err, c.store.Dir())
	}
	return err
}

// export writes a canonical CSV rendering through the cache's atomic writer.
func export(path string, encode func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := encode(&buf); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := cache.NewStore(filepath.Dir(path)).WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func printCount(cmd *cobra.Command, label string, c *domain.Count) {
	if c == nil {
		return
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %d\n", label+":", *c)
}

func init() {
	fetchCmd.PersistentFlags().BoolVar(&forceRefresh, "refresh", false, "bypass the cache and download again")
	fetchCmd.PersistentFlags().StringVar(&exportPath, "export", "", "also write the table as canonical CSV to this path")
	fetchCmd.AddCommand(fetchDailyCmd)
	fetchCmd.AddCommand(fetchNamesCmd)
}
