package courseio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/academy-dev/academy/internal/curriculum"
)

// Normalize prepares a validated document for a fresh save: the course and
// every module, lesson, task and option get a new draft id and order equal to
// their position. Missing child lists become empty lists, option text
// defaults to "" and isCorrect becomes a boolean. Other fields are kept.
func Normalize(doc map[string]any) map[string]any {
	out := cloneMap(doc)
	out["id"] = curriculum.NewDraftID().Int64()
	out["modules"] = mapList(doc["modules"], func(m map[string]any) {
		m["lessons"] = mapList(m["lessons"], func(l map[string]any) {
			l["tasks"] = mapList(l["tasks"], func(t map[string]any) {
				t["options"] = mapList(t["options"], func(o map[string]any) {
					if !truthy(o["text"]) {
						o["text"] = ""
					}
					o["isCorrect"] = truthy(o["isCorrect"])
				})
			})
		})
	})
	return out
}

// mapList copies a list of objects, assigning id and order to each and
// letting fill adjust it. Non-list input yields an empty list.
func mapList(v any, fill func(map[string]any)) []any {
	items, _ := v.([]any)
	out := make([]any, len(items))
	for i, item := range items {
		src, _ := item.(map[string]any)
		m := cloneMap(src)
		m["id"] = curriculum.NewDraftID().Int64()
		m["order"] = i
		fill(m)
		out[i] = m
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

// Import reads a course document (JSON, or YAML when the input is not JSON),
// validates it and returns the normalized course. Every id in the result is
// a draft.
func Import(raw []byte) (curriculum.Course, error) {
	var (
		doc any
		err error
	)
	if json.Valid(raw) {
		doc, err = decodeJSON(raw)
	} else {
		doc, err = decodeYAML(raw)
	}
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return importDoc(doc)
}

// ImportFile imports a .json, .yaml or .yml course file.
func ImportFile(path string) (curriculum.Course, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("read %s: %w", path, err)
	}
	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = decodeYAML(data)
	default:
		doc, err = decodeJSON(data)
	}
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("%s: %w: %v", path, ErrInvalidStructure, err)
	}
	c, err := importDoc(doc)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func importDoc(doc any) (curriculum.Course, error) {
	if err := validateDoc(doc); err != nil {
		return curriculum.Course{}, err
	}
	normalized := Normalize(doc.(map[string]any))

	data, err := json.Marshal(normalized)
	if err != nil {
		return curriculum.Course{}, fmt.Errorf("encode normalized course: %w", err)
	}
	var c curriculum.Course
	if err := json.Unmarshal(data, &c); err != nil {
		return curriculum.Course{}, fmt.Errorf("%w: %v", ErrInvalidStructure, err)
	}
	return asDrafts(c), nil
}

// decodeYAML reads YAML into the same shapes encoding/json produces.
func decodeYAML(raw []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return decodeJSON(data)
}

// asDrafts re-tags decoded ids, which always decode as saved, as drafts.
func asDrafts(c curriculum.Course) curriculum.Course {
	c.ID = curriculum.Draft(c.ID.Int64())
	for mi := range c.Modules {
		m := &c.Modules[mi]
		m.ID = curriculum.Draft(m.ID.Int64())
		for li := range m.Lessons {
			l := &m.Lessons[li]
			l.ID = curriculum.Draft(l.ID.Int64())
			for ti := range l.Tasks {
				t := &l.Tasks[ti]
				t.ID = curriculum.Draft(t.ID.Int64())
				for oi := range t.Options {
					t.Options[oi].ID = curriculum.Draft(t.Options[oi].ID.Int64())
				}
			}
		}
	}
	return c
}
