package validation

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateSchema performs schema validation on a parsed ProjectSpec.
// It checks structural correctness before any file is read or any
// computation runs.
func ValidateSchema(s *spec.ProjectSpec) *Report {
	r := NewReport()

	validateTags(s, r)
	validateFiles(s, r)
	validateSolver(s, r)
	validateHydraulics(s, r)

	return r
}

func validateTags(s *spec.ProjectSpec, r *Report) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		r.AddError(Result{Level: LevelSchema, Message: err.Error()})
		return
	}
	for _, e := range errs {
		path := strings.TrimPrefix(e.Namespace(), "ProjectSpec.")
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("%s: %s", path, describeTag(e)),
			Path:        path,
			ActualValue: e.Value(),
			Expected:    expectedFor(e),
		})
	}
}

func describeTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "required_without":
		return fmt.Sprintf("required when %s is not set", strings.ToLower(e.Param()))
	case "excluded_with":
		return fmt.Sprintf("cannot be combined with %s", strings.ToLower(e.Param()))
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must not exceed %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", e.Param())
	}
	return fmt.Sprintf("validation failed (%s)", e.Tag())
}

func expectedFor(e validator.FieldError) string {
	switch e.Tag() {
	case "gte":
		return ">= " + e.Param()
	case "lte":
		return "<= " + e.Param()
	case "oneof":
		return strings.ReplaceAll(e.Param(), " ", " | ")
	}
	return ""
}

func validateFiles(s *spec.ProjectSpec, r *Report) {
	files := []struct {
		path, value string
	}{
		{"network.drawing", s.Network.Drawing},
		{"network.file", s.Network.File},
		{"tables.fixtures", s.Tables.Fixtures},
		{"tables.diameters", s.Tables.Diameters},
		{"tables.fittings", s.Tables.Fittings},
		{"tables.fitting_prices", s.Tables.FittingPrices},
		{"tables.reductions", s.Tables.Reductions},
		{"tables.meters", s.Tables.Meters},
	}
	for _, f := range files {
		if f.value == "" {
			continue
		}
		resolved := s.Resolve(f.value)
		if _, err := os.Stat(resolved); err != nil {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s: file %s not found", f.path, resolved),
				Path:        f.path,
				ActualValue: f.value,
				Suggestions: []string{"Paths are relative to the project directory"},
			})
		}
	}
	if s.Tables.FittingPrices == "" && s.Sizing.IncludeFittingCosts {
		r.AddWarning(Result{
			Level:    LevelSchema,
			Message:  "include_fitting_costs is set but no fitting price table is given; fittings will be unpriced",
			Path:     "tables.fitting_prices",
			Expected: "a fitting price CSV",
		})
	}
}

func validateSolver(s *spec.ProjectSpec, r *Report) {
	if s.Solver.Backend == "cbc" && s.Solver.CBCPath != "" {
		if _, err := os.Stat(s.Resolve(s.Solver.CBCPath)); err != nil {
			r.AddWarning(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("solver.cbc_path: %s not found, the run will fail when the solver starts", s.Solver.CBCPath),
				Path:        "solver.cbc_path",
				ActualValue: s.Solver.CBCPath,
			})
		}
	}
	if s.Extra() == 0 {
		r.AddInfo(Result{
			Level:    LevelSchema,
			Message:  "extra_candidates is 0: every segment gets its smallest admissible diameter and the optimizer has no choice to make",
			Path:     "sizing.extra_candidates",
			Expected: ">= 1 to trade cost against pressure",
		})
	}
}

func validateHydraulics(s *spec.ProjectSpec, r *Report) {
	h := s.Hydraulics
	if h.MaxVelocity > 3.0 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("max_velocity %.2f m/s exceeds the 3 m/s ceiling for building supply pipes", h.MaxVelocity),
			Path:        "hydraulics.max_velocity",
			ActualValue: h.MaxVelocity,
			Expected:    "<= 3.0",
		})
	}
	if h.FrictionModel == "darcy-weisbach" && h.Roughness > 1e-3 {
		r.AddWarning(Result{
			Level:       LevelSchema,
			Message:     fmt.Sprintf("roughness %.4g m is unusually large for building pipes", h.Roughness),
			Path:        "hydraulics.roughness_m",
			ActualValue: h.Roughness,
			Suggestions: []string{"Roughness is an absolute length in metres, e.g. 6e-5 for plastic pipe"},
		})
	}
}
