// Command schedwalk is the reference greedy driver: it schedules a batch of
// operations against one resource's calendar in input order, demonstrating
// how the primitives compose. It is not a production scheduler and
// implements no priority or sequencing policy beyond the order operations
// were given.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"

	"github.com/pgaskin/finitecap/internal/pflagx"
	"github.com/pgaskin/finitecap/pkg/occupancy"
	"github.com/pgaskin/finitecap/pkg/schedvalidate"
	"github.com/pgaskin/finitecap/pkg/timeunit"
)

var (
	EnvPrefix    = "SCHEDWALK_"
	CalendarPath = pflag.StringP("calendar", "c", "", "path to a calendar-input JSON document (required)")
	OpsPath      = pflag.StringP("ops", "o", "", "path to a JSON array of operations to schedule (required)")
	Holidays     = pflag.String("holidays", "", "optional bundled holiday set to seed as closures (US, CA)")
	SlackWeeks   = pflag.Int("slack-weeks", 1, "extra weeks of horizon to materialize beyond the furthest deadline/start")
	LogLevel     = pflagx.LevelP("log-level", "L", slog.LevelInfo, "log level")
	LogJSON      = pflag.Bool("log-json", false, "use json logs")
	Help         = pflag.BoolP("help", "h", false, "show this help text")
)

// opRequest is the on-disk shape of one entry in --ops.
type opRequest struct {
	OperationID   string `json:"operation_id"`
	EarliestStart int64  `json:"earliest_start"`
	WorkUnits     int64  `json:"work_units"`
	AllowSplit    bool   `json:"allow_split"`
	MinSplit      int64  `json:"min_split"`
	Deadline      *int64 `json:"deadline"`
}

func main() {
	pflagx.ParseEnv(EnvPrefix)
	pflag.Parse()

	if *Help || pflag.NArg() != 0 {
		fmt.Printf("usage: %s [options]\n%s", os.Args[0], pflag.CommandLine.FlagUsages())
		if *Help {
			return
		}
		os.Exit(2)
	}

	if *LogJSON {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: LogLevel,
		})))
	} else {
		slog.SetDefault(slog.New(tint.NewHandler(os.Stdout, &tint.Options{
			Level: LogLevel,
		})))
	}
	slog.SetLogLoggerLevel(LogLevel.Level())

	if err := run(); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if *CalendarPath == "" {
		return fmt.Errorf("no calendar path specified")
	}
	if *OpsPath == "" {
		return fmt.Errorf("no ops path specified")
	}

	calendarDoc, err := os.ReadFile(*CalendarPath)
	if err != nil {
		return fmt.Errorf("read calendar: %w", err)
	}
	opsDoc, err := os.ReadFile(*OpsPath)
	if err != nil {
		return fmt.Errorf("read ops: %w", err)
	}

	var requests []opRequest
	if err := json.Unmarshal(opsDoc, &requests); err != nil {
		return fmt.Errorf("decode ops: %w", err)
	}

	epoch := time.Now().UTC().Truncate(24 * time.Hour)
	var horizonDays int64
	for _, r := range requests {
		end := r.EarliestStart + r.WorkUnits
		if r.Deadline != nil && *r.Deadline > end {
			end = *r.Deadline
		}
		if days := end/1440 + 1; days > horizonDays {
			horizonDays = days
		}
	}
	horizonDays += int64(*SlackWeeks) * 7
	horizonStart := epoch
	horizonEnd := epoch.AddDate(0, 0, int(horizonDays))

	cal, diagnostics, err := schedvalidate.LoadWithHolidays(calendarDoc, schedvalidate.HolidaySet(*Holidays), horizonStart, horizonEnd)
	if err != nil {
		return fmt.Errorf("load calendar: %w", err)
	}
	if len(diagnostics) > 0 {
		for _, d := range diagnostics {
			slog.Error("calendar validation failed", "diagnostic", d)
		}
		return fmt.Errorf("calendar-input document failed validation (%d diagnostics)", len(diagnostics))
	}

	bm, err := occupancy.FromCalendar(cal, horizonStart, horizonEnd, epoch, timeunit.Minute)
	if err != nil {
		return fmt.Errorf("materialize bitmap: %w", err)
	}

	slog.Info("scheduling operations", "resource_id", bm.ResourceID, "count", len(requests))

	var (
		ok   int
		fail int
	)
	for _, r := range requests {
		opID := r.OperationID
		if opID == "" {
			opID = uuid.NewString()
		}
		minSplit := r.MinSplit
		if minSplit <= 0 {
			minSplit = 1
		}
		record, err := occupancy.Allocate(bm, opID, r.EarliestStart, r.WorkUnits, r.AllowSplit, minSplit, r.Deadline)
		if err != nil {
			fail++
			slog.Warn("operation infeasible", "operation_id", opID, "error", err)
			continue
		}
		ok++
		fmt.Printf("%-36s  start=%-8s finish=%-8s units=%-8s spans=%d\n",
			record.OperationID,
			humanize.Comma(record.Start),
			humanize.Comma(record.Finish),
			humanize.Comma(record.WorkUnits),
			len(record.Spans))
	}

	slog.Info("done", "scheduled", ok, "infeasible", fail)
	return nil
}
