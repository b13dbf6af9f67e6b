package schedvalidate

import "testing"

func testdata() map[string][]byte {
	return map[string][]byte{
		"standard": []byte(`{
			"id": "standard",
			"calendar": {
				"rules": {
					"0": [["08:00","17:00"]],
					"1": [["08:00","17:00"]],
					"2": [["08:00","17:00"]],
					"3": [["08:00","17:00"]],
					"4": [["08:00","17:00"]]
				},
				"exceptions": {
					"2025-01-11": [{"is_working": true, "start": "09:00", "end": "13:00"}]
				}
			}
		}`),
		"overnight": []byte(`{
			"calendar": {
				"rules": { "6": [["22:00","06:00"]] }
			}
		}`),
		"closed_day": []byte(`{
			"calendar": {
				"rules": { "0": [["08:00","17:00"]] },
				"exceptions": { "2025-01-06": [{"is_working": false}] }
			}
		}`),
	}
}

func invalidTestdata() map[string][]byte {
	return map[string][]byte{
		"bad weekday":      []byte(`{"calendar": {"rules": {"7": [["08:00","17:00"]]}}}`),
		"bad time":         []byte(`{"calendar": {"rules": {"0": [["8am","5pm"]]}}}`),
		"overlap":          []byte(`{"calendar": {"rules": {"0": [["08:00","12:00"],["10:00","14:00"]]}}}`),
		"bad date":         []byte(`{"calendar": {"rules": {}, "exceptions": {"not-a-date": [{"is_working": false}]}}}`),
		"missing working":  []byte(`{"calendar": {"rules": {}, "exceptions": {"2025-01-06": [{}]}}}`),
		"working no range": []byte(`{"calendar": {"rules": {}, "exceptions": {"2025-01-06": [{"is_working": true}]}}}`),
		"no calendar":      []byte(`{"id": "x"}`),
		"not json":         []byte(`not json at all`),
	}
}

func TestValidateAccepts(t *testing.T) {
	for name, data := range testdata() {
		t.Run(name, func(t *testing.T) {
			if errs := Validate(data); len(errs) != 0 {
				t.Fatalf("unexpected diagnostics: %v", errs)
			}
		})
	}
}

func TestValidateRejects(t *testing.T) {
	for name, data := range invalidTestdata() {
		t.Run(name, func(t *testing.T) {
			if errs := Validate(data); len(errs) == 0 {
				t.Fatalf("expected diagnostics, got none")
			}
		})
	}
}

func TestLoadBuildsCalendar(t *testing.T) {
	cal, errs, err := Load(testdata()["standard"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected diagnostics: %v", errs)
	}
	if cal.PatternID() != "standard" {
		t.Fatalf("got pattern id %q, want standard", cal.PatternID())
	}
}

func TestLoadReportsDiagnostics(t *testing.T) {
	cal, errs, err := Load(invalidTestdata()["overlap"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cal != nil {
		t.Fatalf("expected nil calendar for invalid input")
	}
	if len(errs) == 0 {
		t.Fatalf("expected diagnostics")
	}
}

func TestJSONSchemaCompiles(t *testing.T) {
	buf := JSONSchema()
	if len(buf) == 0 {
		t.Fatalf("empty schema")
	}
	if _, err := compileSchema(JSONSchemaID, buf); err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}
}
