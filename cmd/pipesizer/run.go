package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/manual"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/metrics"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/pipeline"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/projection"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/scene"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/validation"
)

// loadAndValidate loads the project file and runs schema validation.
func loadAndValidate(projectPath string) (*spec.ProjectSpec, *validation.Report, error) {
	ps, err := spec.LoadProject(projectPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading spec: %w", err)
	}
	schemaReport := validation.ValidateSchema(ps)
	return ps, schemaReport, nil
}

func runValidate(projectPath string) error {
	ps, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return err
	}

	// Build the network to catch topology and static pressure problems.
	if schemaReport.Valid {
		_, netReport, err := pipeline.Prepare(ps, pipeline.Options{})
		schemaReport.Merge(netReport)
		if err != nil {
			schemaReport.AddError(validation.Result{
				Level:   validation.LevelTopology,
				Message: err.Error(),
			})
		}
	}

	printValidationReport(os.Stdout, schemaReport)

	if !schemaReport.Valid {
		os.Exit(1)
	}
	return nil
}

// execute runs the batch for a project that passed schema validation.
func execute(ctx context.Context, projectPath string) (*pipeline.Run, error) {
	ps, schemaReport, err := loadAndValidate(projectPath)
	if err != nil {
		return nil, err
	}
	if !schemaReport.Valid {
		printValidationReport(os.Stderr, schemaReport)
		return nil, fmt.Errorf("spec has validation errors")
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	run, err := pipeline.Execute(ctx, ps, pipeline.Options{Metrics: metrics.DefaultRegistry()})
	if err != nil {
		if run != nil && len(run.Validation.Errors)+len(run.Validation.Warnings) > 0 {
			printValidationReport(os.Stderr, run.Validation)
		}
		return nil, fmt.Errorf("%s: %w", pipeline.Outcome(err), err)
	}
	return run, nil
}

func runSolve(ctx context.Context, projectPath string, asJSON bool, scenePath string) error {
	run, err := execute(ctx, projectPath)
	if err != nil {
		return err
	}

	if scenePath != "" {
		if err := writeScene(scenePath, run); err != nil {
			return err
		}
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	}
	printRun(os.Stdout, run)
	if len(run.Validation.Warnings) > 0 {
		fmt.Println()
		printValidationReport(os.Stdout, run.Validation)
	}
	return nil
}

func writeScene(path string, run *pipeline.Run) error {
	g := scene.Assemble(run.Spec.Name, run.ID, run.Network, run.Result)
	if report := scene.ValidateGraph(g); !report.Valid {
		printValidationReport(os.Stderr, report)
		return fmt.Errorf("scene graph has validation errors")
	}
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding scene graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing scene graph: %w", err)
	}
	return nil
}

func runCompare(ctx context.Context, projectPath, manualPath string, interactive, asJSON bool) error {
	run, err := execute(ctx, projectPath)
	if err != nil {
		return err
	}

	var a projection.Assignment
	switch {
	case interactive:
		values, err := promptDiameters(run.Network, run.Flows, run.Tables)
		if err != nil {
			return err
		}
		a, err = manual.FromValues(values, run.Network, run.Tables)
		if err != nil {
			return err
		}
	default:
		f, err := os.Open(manualPath)
		if err != nil {
			return fmt.Errorf("opening manual assignment: %w", err)
		}
		defer f.Close()
		a, err = manual.Parse(f, run.Network, run.Tables)
		if err != nil {
			return fmt.Errorf("%s: %w", manualPath, err)
		}
	}

	cmp, report, err := run.Compare(a, pipeline.Options{Metrics: metrics.DefaultRegistry()})
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run_id":     run.ID,
			"comparison": cmp,
			"validation": report,
		})
	}
	printComparison(os.Stdout, cmp)
	if len(report.Warnings)+len(report.Info) > 0 {
		fmt.Println()
		printValidationReport(os.Stdout, report)
	}
	return nil
}
