package commands

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapload/internal/cli/config"
	"github.com/leapstack-labs/leapload/internal/cli/output"
	"github.com/leapstack-labs/leapload/internal/source"
	"github.com/leapstack-labs/leapload/internal/warehouse"
	"github.com/leapstack-labs/leapload/pkg/core"
	"github.com/spf13/cobra"
)

// Check groups, in report order.
const (
	groupConfig  = "configuration"
	groupSources = "sources"
	groupTarget  = "target"
	groupHistory = "history"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that a load can run",
		Long: `Check the project setup before loading.

The doctor command verifies:
- Configuration (config file, target settings)
- Sources (data directories exist and hold input files)
- Target (connection, star schema tables and columns)
- History (state database opens)

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  leapload doctor

  # Check the prod target as JSON
  leapload doctor --target prod --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)
			out := runChecks(cmd.Context(), cc)
			if err := renderDoctor(cc.Renderer, out); err != nil {
				return err
			}
			if out.Errors > 0 {
				return fmt.Errorf("doctor found %d problem(s)", out.Errors)
			}
			return nil
		},
	}
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	HealthChecks []HealthCheck `json:"health_checks"`
	Errors       int           `json:"errors"`
	Warnings     int           `json:"warnings"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Group   string   `json:"group"`
	Status  string   `json:"status"` // "pass", "warn", "error"
	Details []string `json:"details,omitempty"`
}

func (o *DoctorOutput) add(c HealthCheck) {
	switch c.Status {
	case checkError:
		o.Errors++
	case checkWarn:
		o.Warnings++
	}
	o.HealthChecks = append(o.HealthChecks, c)
}

func runChecks(ctx context.Context, cc *CommandContext) *DoctorOutput {
	cfg := cc.Cfg
	out := &DoctorOutput{}

	cfgCheck := HealthCheck{ID: "CF01", Name: "Config file", Group: groupConfig, Status: checkPass}
	if file := config.GetConfigFileUsed(); file != "" {
		cfgCheck.Details = []string{file}
	} else {
		cfgCheck.Status = checkWarn
		cfgCheck.Details = []string{"no leapload.yaml found, using defaults"}
	}
	out.add(cfgCheck)

	out.add(checkSource("SR01", "Song catalog", cfg.SongData, cfg.Extension))
	out.add(checkSource("SR02", "Listening logs", cfg.LogData, cfg.Extension))

	for _, c := range checkTarget(ctx, cc) {
		out.add(c)
	}

	stateCheck := HealthCheck{ID: "HS01", Name: "State database", Group: groupHistory, Status: checkPass, Details: []string{cfg.StatePath}}
	if store, err := openState(cfg, cc.Logger); err != nil {
		stateCheck.Status = checkError
		stateCheck.Details = append(stateCheck.Details, err.Error())
	} else {
		_ = store.Close()
	}
	out.add(stateCheck)

	return out
}

func checkSource(id, name, root, ext string) HealthCheck {
	c := HealthCheck{ID: id, Name: name, Group: groupSources, Status: checkPass}
	files, err := source.Discover(root, ext)
	switch {
	case err != nil:
		c.Status = checkError
		c.Details = []string{err.Error()}
	case len(files) == 0:
		c.Status = checkWarn
		c.Details = []string{fmt.Sprintf("no %s files in %s", ext, root)}
	default:
		c.Details = []string{fmt.Sprintf("%d files in %s", len(files), root)}
	}
	return c
}

func checkTarget(ctx context.Context, cc *CommandContext) []HealthCheck {
	conn := HealthCheck{ID: "TG01", Name: "Connection", Group: groupTarget, Status: checkPass}
	if cc.Cfg.Target != nil {
		conn.Details = []string{fmt.Sprintf("%s %s", cc.Cfg.Target.Type, cc.Cfg.Target.Database)}
	}

	adp, err := openWarehouse(ctx, cc.Cfg, cc.Logger)
	if err != nil {
		conn.Status = checkError
		conn.Details = append(conn.Details, err.Error())
		return []HealthCheck{conn}
	}
	defer func() { _ = adp.Close() }()

	schema := HealthCheck{ID: "TG02", Name: "Star schema", Group: groupTarget, Status: checkPass}
	for _, rel := range core.Relations {
		meta, err := adp.GetTableMetadata(ctx, string(rel))
		if err != nil {
			schema.Status = checkError
			schema.Details = append(schema.Details, fmt.Sprintf("%s: table missing", rel))
			continue
		}
		if missing := warehouse.MissingColumns(meta, rel); len(missing) > 0 {
			schema.Status = checkError
			schema.Details = append(schema.Details, fmt.Sprintf("%s: missing columns %s", rel, strings.Join(missing, ", ")))
		}
	}
	return []HealthCheck{conn, schema}
}

func renderDoctor(r *output.Renderer, out *DoctorOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "leapload Health Report")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			if currentGroup != "" {
				r.Println("")
			}
			currentGroup = check.Group
			r.Header(2, titleCaser.String(currentGroup))
		}

		status := "success"
		switch check.Status {
		case checkWarn:
			status = "skipped"
		case checkError:
			status = "failed"
		}
		r.StatusLine(check.ID+" "+check.Name, status, strings.Join(check.Details, "; "))
	}
	r.Println("")

	switch {
	case out.Errors > 0:
		r.Printf("%d error(s), %d warning(s)\n", out.Errors, out.Warnings)
	case out.Warnings > 0:
		r.Printf("Ready to load with %d warning(s)\n", out.Warnings)
	default:
		r.Success("Ready to load")
	}
	return nil
}
