package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate [daily-csv]",
	Short: "Check the cached datasets for integrity",
	Long: "validate checks that the cached daily series is sorted by report date with no duplicate dates, " +
		"and that the cached registry resolves an id column. The daily file defaults to the latest pointer in DATA_DIR.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.NewStore(cfg.DataDir)
		dailyPath := store.PointerPath(domain.DatasetDaily)
		if len(args) == 1 {
			dailyPath = args[0]
		}

		phases := []*phase{validateDailyFile(store, dailyPath)}
		if p := validateNamesFile(store, store.PointerPath(domain.DatasetNames)); p != nil {
			phases = append(phases, p)
		}
		if !report(cmd.OutOrStdout(), phases) {
			return errors.New("validation failed")
		}
		return nil
	},
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func validateDailyFile(store *cache.Store, path string) *phase {
	p := &phase{name: "Daily series " + path}
	data, err := store.Read(path)
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	checkDaily(p, data)
	return p
}

// checkDaily requires the file to decode and to be strictly ascending by
// report date, which rules out duplicates.
func checkDaily(p *phase, data []byte) {
	records, err := domain.DecodeDaily(bytes.NewReader(data))
	if err != nil {
		p.errorf("decode: %v", err)
		return
	}
	if len(records) == 0 {
		p.errorf("no rows")
		return
	}
	for i := 1; i < len(records); i++ {
		prev, cur := records[i-1].ReportDate, records[i].ReportDate
		switch {
		case cur.Equal(prev):
			p.errorf("row %d: duplicate report_date %s", i+1, cur)
		case cur.Before(prev):
			p.errorf("row %d: report_date %s before %s", i+1, cur, prev)
		}
	}
}

// validateNamesFile returns nil when the registry has never been cached.
func validateNamesFile(store *cache.Store, path string) *phase {
	p := &phase{name: "Names registry " + path}
	data, err := store.Read(path)
	if cache.IsNotExist(err) {
		return nil
	}
	if err != nil {
		p.errorf("read: %v", err)
		return p
	}
	checkNames(p, data)
	return p
}

func checkNames(p *phase, data []byte) {
	victims, rep, err := domain.ParseVictims(bytes.NewReader(data), domain.DefaultAliases)
	if err != nil {
		p.errorf("parse: %v", err)
		return
	}
	if len(victims) == 0 {
		p.errorf("no rows")
	}
	if rep.Skipped > 0 {
		p.errorf("%d malformed lines", rep.Skipped)
	}
}

func report(w io.Writer, phases []*phase) bool {
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-60s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
	} else {
		fmt.Fprintln(w, "\nValidation FAILED.")
	}
	return allPassed
}
