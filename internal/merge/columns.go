package merge

import (
	"fmt"
	"strings"
)

// Field is a logical column of an input sheet.
type Field struct {
	Name     string
	Synonyms []string
	Required bool
}

// Measure sheet fields. A row needs a label or an id, so neither is
// individually required; at least one of the two columns must exist.
var (
	FieldID           = Field{Name: "measureID", Synonyms: []string{"measure_id", "MeasureID", "id"}}
	FieldLabel        = Field{Name: "measureLabel", Synonyms: []string{"hasName", "name", "label", "MeasureLabel"}}
	FieldNewConstruct = Field{Name: "NewConstruct", Synonyms: []string{"new_construct", "New_Construct"}}
	FieldConstruct    = Field{Name: "construct", Required: true, Synonyms: []string{"Construct", "originalConstruct", "MeasuresConstruct", "measuresConstruct", "targetConstruct", "TargetConstruct", "teamConstruct", "TeamConstruct", "Constructs"}}
	FieldModality     = Field{Name: "includesModality", Required: true, Synonyms: []string{"modality", "Modality"}}
	FieldTechnique    = Field{Name: "usesAnalyticTechnique", Required: true, Synonyms: []string{"analyticTechnique", "technique", "Technique"}}
	FieldLevel        = Field{Name: "levelOfAnalysis", Required: true, Synonyms: []string{"hasLevelOfAnalysis", "LevelOfAnalysis"}}
	FieldDescription  = Field{Name: "description", Synonyms: []string{"hasDescription", "Description"}}
	FieldSource       = Field{Name: "source", Synonyms: []string{"hasSource", "Source"}}
)

var measureFields = []Field{
	FieldID, FieldLabel, FieldNewConstruct, FieldConstruct, FieldModality,
	FieldTechnique, FieldLevel, FieldDescription, FieldSource,
}

func fieldByName(name string) (Field, bool) {
	for _, f := range measureFields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	for _, s := range evidenceSheets {
		for _, f := range s.fields {
			if strings.EqualFold(f.Name, name) {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Columns maps field names to header indexes.
type Columns struct {
	index map[string]int
	// constructs are every construct-like column in priority order.
	constructs []int
	header     []string
}

// Col returns the index of field, or -1.
func (c Columns) Col(f Field) int {
	if i, ok := c.index[f.Name]; ok {
		return i
	}
	return -1
}

// Header names the column at index i.
func (c Columns) Header(i int) string {
	if i < 0 || i >= len(c.header) {
		return ""
	}
	return c.header[i]
}

// ColumnError is a required column that could not be detected.
type ColumnError struct {
	Sheet string
	Field string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("sheet %s: no column for required field %s", e.Sheet, e.Field)
}

// detectColumns binds each field to a header: an override first, then the
// field name, then its synonyms, all case-insensitive.
func detectColumns(t *Table, fields []Field, overrides map[string]string) (Columns, error) {
	c := Columns{index: map[string]int{}, header: t.Header}
	find := func(name string) int {
		for i, h := range t.Header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	for _, f := range fields {
		if o, ok := lookupOverride(overrides, f.Name); ok {
			i := find(o)
			if i < 0 {
				return c, &ColumnError{Sheet: t.Sheet, Field: fmt.Sprintf("%s (override %q)", f.Name, o)}
			}
			c.index[f.Name] = i
			continue
		}
		for _, name := range append([]string{f.Name}, f.Synonyms...) {
			if i := find(name); i >= 0 {
				c.index[f.Name] = i
				break
			}
		}
	}
	return c, nil
}

func lookupOverride(overrides map[string]string, field string) (string, bool) {
	for k, v := range overrides {
		if strings.EqualFold(k, field) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// detectMeasureColumns also collects every column whose header mentions
// "construct", after NewConstruct and construct.
func detectMeasureColumns(t *Table, overrides map[string]string) (Columns, error) {
	c, err := detectColumns(t, measureFields, overrides)
	if err != nil {
		return c, err
	}
	seen := map[int]bool{}
	for _, f := range []Field{FieldNewConstruct, FieldConstruct} {
		if i := c.Col(f); i >= 0 && !seen[i] {
			c.constructs = append(c.constructs, i)
			seen[i] = true
		}
	}
	for i, h := range t.Header {
		if !seen[i] && strings.Contains(strings.ToLower(h), "construct") {
			c.constructs = append(c.constructs, i)
			seen[i] = true
		}
	}

	if c.Col(FieldID) < 0 && c.Col(FieldLabel) < 0 {
		return c, &ColumnError{Sheet: t.Sheet, Field: FieldLabel.Name + " or " + FieldID.Name}
	}
	if len(c.constructs) == 0 {
		return c, &ColumnError{Sheet: t.Sheet, Field: FieldConstruct.Name}
	}
	for _, f := range []Field{FieldModality, FieldTechnique, FieldLevel} {
		if c.Col(f) < 0 {
			return c, &ColumnError{Sheet: t.Sheet, Field: f.Name}
		}
	}
	return c, nil
}
