package rules

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/xuri/excelize/v2"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed defaults.json
var defaultsJSON []byte

// Default returns the embedded rule set, for zero-config startup.
func Default() *Table {
	t, err := decodeAndValidate(defaultsJSON)
	if err != nil {
		// embedded document is validated by tests; this is unreachable
		panic(fmt.Sprintf("rules: embedded defaults invalid: %v", err))
	}
	return t
}

// Load reads a rule table document, dispatching on file extension:
// .json (schema-validated) or .xlsx (sheets interactions/overdose/food).
func Load(path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read rules: %w", err)
		}
		return decodeAndValidate(b)
	case ".xlsx":
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open rules workbook: %w", err)
		}
		defer f.Close()
		return loadWorkbook(f)
	default:
		return nil, fmt.Errorf("unsupported rules format: %q", filepath.Ext(path))
	}
}

// decodeAndValidate validates the raw document against the embedded JSON
// Schema before decoding, so a malformed table is rejected at startup rather
// than silently matched against nothing.
func decodeAndValidate(raw []byte) (*Table, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rules.schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("rules.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("rules document does not match schema: %w", err)
	}
	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return &t, nil
}

// loadWorkbook reads the three rule sheets (header row + data rows) and
// funnels the result through the same schema validation as JSON input.
func loadWorkbook(f *excelize.File) (*Table, error) {
	var t Table

	rows, err := sheetRows(f, "interactions", 4)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		t.Interactions = append(t.Interactions, InteractionRule{
			A: r[0], B: r[1], Severity: r[2], Message: r[3],
		})
	}

	rows, err = sheetRows(f, "overdose", 3)
	if err != nil {
		return nil, err
	}
	for i, r := range rows {
		maxMg, err := strconv.ParseFloat(strings.TrimSpace(r[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("overdose row %d: bad maxDailyMg %q", i+2, r[1])
		}
		t.Overdose = append(t.Overdose, OverdoseRule{
			Drug: r[0], MaxDailyMg: maxMg, Message: r[2],
		})
	}

	rows, err = sheetRows(f, "food", 3)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		t.Food = append(t.Food, FoodRule{Drug: r[0], Trigger: r[1], Message: r[2]})
	}

	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encode rules: %w", err)
	}
	return decodeAndValidate(raw)
}

// sheetRows returns the data rows of a sheet, skipping the header and
// padding short rows so callers can index columns directly.
func sheetRows(f *excelize.File, sheet string, cols int) ([][]string, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	out := make([][]string, 0, len(rows)-1)
	for _, r := range rows[1:] {
		if isBlank(r) {
			continue
		}
		for len(r) < cols {
			r = append(r, "")
		}
		out = append(out, r)
	}
	return out, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
