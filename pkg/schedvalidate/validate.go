package schedvalidate

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

var structValidate = validator.New(validator.WithRequiredStructEnabled())

type ruleEntry struct {
	Weekday int    `validate:"min=0,max=6"`
	Start   string `validate:"required,datetime=15:04"`
	End     string `validate:"required,datetime=15:04"`
}

type exceptionDateEntry struct {
	Date      string `validate:"required,datetime=2006-01-02"`
	IsWorking bool
	Start     string `validate:"omitempty,datetime=15:04"`
	End       string `validate:"omitempty,datetime=15:04"`
}

// Validate checks doc against the calendar-input JSON Schema and then
// against the decoded Go representation's struct-tag rules, returning the
// combined diagnostic list (empty means valid). A malformed top-level JSON
// document is reported as a single diagnostic rather than a decode error,
// matching the out-of-core validator's "list of messages" contract.
func Validate(doc []byte) []string {
	var errs []string

	obj, uerr := jsonschema.UnmarshalJSON(bytes.NewReader(doc))
	if uerr != nil {
		return []string{fmt.Sprintf("invalid json: %v", uerr)}
	}
	if schema, err := compileSchema(JSONSchemaID, JSONSchema()); err == nil {
		if err := schema.Validate(obj); err != nil {
			errs = append(errs, fmt.Sprintf("schema: %v", err))
		}
	} else {
		errs = append(errs, fmt.Sprintf("schema: failed to compile: %v", err))
	}

	d, err := parseDocument(doc)
	if err != nil {
		return append(errs, err.Error())
	}
	if d.Calendar == nil {
		return append(errs, "missing \"calendar\" object")
	}

	errs = append(errs, validateRules(d.Calendar.Rules)...)
	errs = append(errs, validateExceptions(d.Calendar.Exceptions)...)
	return errs
}

func validateRules(rules map[string][][2]string) []string {
	var errs []string
	for key, periods := range rules {
		weekday, err := strconv.Atoi(key)
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid weekday key: %q (must be 0-6)", key))
			continue
		}
		var parsed []ruleEntry
		for i, period := range periods {
			re := ruleEntry{Weekday: weekday, Start: period[0], End: period[1]}
			if err := structValidate.Struct(re); err != nil {
				errs = append(errs, fmt.Sprintf("weekday %d, period %d: %v", weekday, i, err))
				continue
			}
			parsed = append(parsed, re)
		}
		errs = append(errs, checkOverlap(weekday, parsed)...)
	}
	return errs
}

func checkOverlap(weekday int, periods []ruleEntry) []string {
	type span struct{ start, end string }
	var spans []span
	for _, p := range periods {
		if p.End > p.Start { // skip overnight periods, mirroring the reference validator
			spans = append(spans, span{p.Start, p.End})
		}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var errs []string
	for i := 1; i < len(spans); i++ {
		if spans[i].start < spans[i-1].end {
			errs = append(errs, fmt.Sprintf("weekday %d: overlapping periods (%s,%s) and (%s,%s)",
				weekday, spans[i-1].start, spans[i-1].end, spans[i].start, spans[i].end))
		}
	}
	return errs
}

func validateExceptions(exceptions map[string][]exceptionEntry) []string {
	var errs []string
	for dateStr, entries := range exceptions {
		if _, err := time.Parse("2006-01-02", dateStr); err != nil {
			errs = append(errs, fmt.Sprintf("invalid date: %q", dateStr))
			continue
		}
		for i, e := range entries {
			if e.IsWorking == nil {
				errs = append(errs, fmt.Sprintf("date %s, entry %d: missing \"is_working\"", dateStr, i))
				continue
			}
			if !*e.IsWorking {
				continue
			}
			if e.Start == nil || e.End == nil {
				errs = append(errs, fmt.Sprintf("date %s, entry %d: working entry missing start/end", dateStr, i))
				continue
			}
			ede := exceptionDateEntry{Date: dateStr, IsWorking: *e.IsWorking, Start: *e.Start, End: *e.End}
			if err := structValidate.Struct(ede); err != nil {
				errs = append(errs, fmt.Sprintf("date %s, entry %d: %v", dateStr, i, err))
			}
		}
	}
	return errs
}

func compileSchema(url string, buf []byte) (*jsonschema.Schema, error) {
	obj, err := jsonschema.UnmarshalJSON(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}
	cmp := jsonschema.NewCompiler()
	if err := cmp.AddResource(url, obj); err != nil {
		return nil, fmt.Errorf("add resource: %w", err)
	}
	sch, err := cmp.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}
	return sch, nil
}
