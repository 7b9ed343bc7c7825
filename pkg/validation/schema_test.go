package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mar-f-go/PROJETO-PLIB-SPAF/pkg/spec"
)

const exampleProject = "../../examples/two-storey-house"

func loadExample(t *testing.T) *spec.ProjectSpec {
	t.Helper()
	s, err := spec.LoadProject(exampleProject)
	if err != nil {
		t.Fatalf("LoadProject failed: %v", err)
	}
	return s
}

func hasPath(results []Result, path string) bool {
	for _, r := range results {
		if r.Path == path {
			return true
		}
	}
	return false
}

func TestValidateSchemaExample(t *testing.T) {
	r := ValidateSchema(loadExample(t))
	if !r.Valid {
		t.Fatalf("example project should be valid, got %v", r.Errors)
	}
	if len(r.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", r.Warnings)
	}
}

func TestValidateSchemaTags(t *testing.T) {
	s := loadExample(t)
	s.Name = ""
	s.Hydraulics.FrictionModel = "hazen-williams"
	s.Solver.Backend = "glpk"
	s.Hydraulics.MaxVelocity = -1
	k := 12
	s.Sizing.ExtraCandidates = &k

	r := ValidateSchema(s)
	if r.Valid {
		t.Fatal("report should be invalid")
	}
	for _, p := range []string{"name", "hydraulics.friction_model", "solver.backend", "hydraulics.max_velocity", "sizing.extra_candidates"} {
		if !hasPath(r.Errors, p) {
			t.Errorf("missing error for %s in %v", p, r.Errors)
		}
	}
	for _, e := range r.Errors {
		if e.Level != LevelSchema {
			t.Errorf("error %q has level %s, want schema", e.Message, e.Level)
		}
	}
}

func TestValidateSchemaNetworkSource(t *testing.T) {
	s := loadExample(t)
	s.Network.Drawing = ""
	r := ValidateSchema(s)
	if !hasPath(r.Errors, "network.drawing") || !hasPath(r.Errors, "network.file") {
		t.Errorf("expected both network source errors, got %v", r.Errors)
	}

	s = loadExample(t)
	s.Network.File = "network.yaml"
	r = ValidateSchema(s)
	if !hasPath(r.Errors, "network.drawing") {
		t.Errorf("expected exclusive source error, got %v", r.Errors)
	}
}

func TestValidateSchemaMissingFiles(t *testing.T) {
	s := loadExample(t)
	s.Tables.Fittings = "tables/missing.csv"
	r := ValidateSchema(s)
	if !hasPath(r.Errors, "tables.fittings") {
		t.Fatalf("expected missing file error, got %v", r.Errors)
	}
	if !strings.Contains(r.Errors[0].Message, "missing.csv") {
		t.Errorf("message should name the file: %s", r.Errors[0].Message)
	}
}

func TestValidateSchemaWarnings(t *testing.T) {
	dir := t.TempDir()
	data, err := os.ReadFile(filepath.Join(exampleProject, spec.ProjectFile))
	if err != nil {
		t.Fatal(err)
	}
	s, err := spec.Parse(data)
	if err != nil {
		t.Fatal(err)
	}
	s.Dir, _ = filepath.Abs(exampleProject)
	s.Tables.FittingPrices = ""
	s.Sizing.IncludeFittingCosts = true
	s.Hydraulics.MaxVelocity = 3.5
	s.Solver.Backend = "cbc"
	s.Solver.CBCPath = filepath.Join(dir, "cbc")
	zero := 0
	s.Sizing.ExtraCandidates = &zero

	r := ValidateSchema(s)
	if !r.Valid {
		t.Fatalf("warnings only, got errors %v", r.Errors)
	}
	for _, p := range []string{"tables.fitting_prices", "hydraulics.max_velocity", "solver.cbc_path"} {
		if !hasPath(r.Warnings, p) {
			t.Errorf("missing warning for %s", p)
		}
	}
	if !hasPath(r.Info, "sizing.extra_candidates") {
		t.Error("missing info for extra_candidates = 0")
	}
}
