package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alibahaloo/PharmaTrack-sub000/config"
	"github.com/alibahaloo/PharmaTrack-sub000/interfaces"
)

const (
	testDrugs = "100\tADVIL 200 mg\tcomprimé\torale\n" +
		"200\tCOUMADINE 5 mg\tcomprimé\torale\n" +
		"300\tPLACEBO\tgélule\torale\n"

	testCompositions = "100\tcomprimé\t1\tIBUPROFEN\t200 mg\tun comprimé\tSA\t1\n" +
		"200\tcomprimé\t2\tWarfarin\t5 mg\tun comprimé\tSA\t1\n"

	testCatalogue = `interactions:
  - a: ibuprofen
    b: warfarin
    level: major
    description: Increased bleeding risk
`
)

// writeReference writes the three reference files and returns the matching flags
func writeReference(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"drugs.txt":         testDrugs,
		"compositions.txt":  testCompositions,
		"interactions.yaml": testCatalogue,
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	return []string{
		"--source", "files",
		"--drugs", filepath.Join(dir, "drugs.txt"),
		"--compositions", filepath.Join(dir, "compositions.txt"),
		"--interactions", filepath.Join(dir, "interactions.yaml"),
	}
}

// run executes the CLI with a clean environment and returns stdout
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range config.GetEnvVars() {
		t.Setenv(key, "")
	}

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestResolveDrugs(t *testing.T) {
	args := append([]string{"resolve", "drugs", "100,200,999"}, writeReference(t)...)

	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("resolve drugs failed: %v", err)
	}

	var result interfaces.DrugResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Output is not a drug result: %v\n%s", err, out)
	}

	if len(result.Drugs) != 3 {
		t.Fatalf("Expected 3 drugs, got %d", len(result.Drugs))
	}
	if result.Drugs[2].DrugCode != 999 || result.Drugs[2].DrugName != nil {
		t.Errorf("Unknown code should have a null name: %+v", result.Drugs[2])
	}
	if len(result.Interactions) != 1 || result.Interactions[0].Level != "major" {
		t.Errorf("Expected the ibuprofen/warfarin interaction, got %+v", result.Interactions)
	}
	if !result.Drugs[0].Ingredients[0].HasInteraction {
		t.Error("Ibuprofen should be flagged")
	}
}

func TestResolveIngredients(t *testing.T) {
	args := append([]string{"resolve", "ingredients", "Warfarin, IBUPROFEN"}, writeReference(t)...)

	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("resolve ingredients failed: %v", err)
	}

	var result interfaces.IngredientResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("Output is not an ingredient result: %v\n%s", err, out)
	}
	if len(result.Interactions) != 1 {
		t.Errorf("Expected one interaction, got %d", len(result.Interactions))
	}
}

func TestResolveDrugs_InvalidInput(t *testing.T) {
	args := append([]string{"resolve", "drugs", "100,abc"}, writeReference(t)...)

	_, err := run(t, args...)
	if err == nil || !strings.Contains(err.Error(), `"abc"`) {
		t.Errorf("Expected an error naming the bad token, got %v", err)
	}
}

func TestReport(t *testing.T) {
	args := append([]string{"report"}, writeReference(t)...)

	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}

	var report interfaces.DataQualityReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("Output is not a report: %v\n%s", err, out)
	}
	if report.DrugsWithoutCompositions != 1 {
		t.Errorf("Expected the placebo without compositions, got %d", report.DrugsWithoutCompositions)
	}
}

func TestImport_RequiresDatabaseURL(t *testing.T) {
	args := append([]string{"import"}, writeReference(t)...)

	_, err := run(t, args...)
	if err == nil || !strings.Contains(err.Error(), "database-url") {
		t.Errorf("Expected a missing database url error, got %v", err)
	}
}

func TestUnknownSource(t *testing.T) {
	_, err := run(t, "report", "--source", "mysql")
	if err == nil || !strings.Contains(err.Error(), "unknown source") {
		t.Errorf("Expected an unknown source error, got %v", err)
	}
}
