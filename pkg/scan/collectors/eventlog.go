// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package collectors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/mradaci/WinGamingDiag/pkg/facts"
	"github.com/mradaci/WinGamingDiag/pkg/scan"
)

// gamingEventSources are event sources whose errors commonly surface gaming
// problems.
var gamingEventSources = []string{
	"application error",
	"application hang",
	"windows error reporting",
	"display",
	"kernel-power",
	"kernel-processor-power",
	"winlogon",
	"service control manager",
}

// gamingKeywords flag event messages as gaming-related.
var gamingKeywords = []string{
	"game", "steam", "epic", "origin", "battle.net", "battlenet",
	"uplay", "ubisoft", "electronic arts", "riot", "valorant",
	"league of legends", "fortnite", "apex", "overwatch", "call of duty",
	"gpu", "graphics", "directx", "dxgi", "nvidia", "amd",
	"display driver", "gpu driver", "graphics driver", "video driver",
	"d3d", "opengl", "vulkan", "crash", "hang", "freeze", "bsod",
	"blue screen", "access violation", "exception",
}

var _ scan.Collector = (*EventLogCollector)(nil)

// EventLogCollector reads the Windows System and Application event logs over
// a recent window and summarizes crashes, driver errors, and gaming-related
// entries.
type EventLogCollector struct {
	scan.BaseCollector
	provider facts.Provider
	days     int
	now      func() time.Time
}

func NewEventLogCollector(logger logr.Logger, provider facts.Provider, days int) (*EventLogCollector, error) {
	if provider == nil {
		return nil, fmt.Errorf("fact provider is required")
	}
	if days <= 0 {
		days = 7
	}
	return &EventLogCollector{
		BaseCollector: scan.NewBaseCollector(scan.CollectorEventLogs, "Event Logs", logger),
		provider:      provider,
		days:          days,
		now:           time.Now,
	}, nil
}

func (c *EventLogCollector) Collect(ctx context.Context) (any, error) {
	summary := scan.EventLogSummary{AnalysisPeriodDays: c.days}
	if !c.provider.Available() {
		return summary, facts.ErrUnavailable
	}

	cutoff := c.now().AddDate(0, 0, -c.days)
	var allEvents []scan.EventLogEntry
	var firstErr error
	for _, logfile := range []string{"System", "Application"} {
		events, err := c.queryLog(ctx, logfile, cutoff)
		if err != nil {
			c.Logger().V(1).Info("Event log query failed", "logfile", logfile, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%s log: %w", strings.ToLower(logfile), err)
			}
			continue
		}
		allEvents = append(allEvents, events...)
	}

	for i := range allEvents {
		event := &allEvents[i]
		summary.TotalEvents++
		switch event.Level {
		case scan.EventLevelCritical:
			summary.CriticalCount++
		case scan.EventLevelError:
			summary.ErrorCount++
		case scan.EventLevelWarning:
			summary.WarningCount++
		}
		if isGamingRelated(*event) {
			event.GamingRelated = true
			summary.GamingRelated = append(summary.GamingRelated, *event)
		}
		switch {
		case event.EventID == 1001 || event.EventID == 1002:
			summary.RecentCrashes = append(summary.RecentCrashes, *event)
		case event.EventID == 7026 || strings.Contains(strings.ToLower(event.Source), "driver"):
			summary.DriverErrors = append(summary.DriverErrors, *event)
		}
	}

	c.Logger().V(1).Info("Event log summary built",
		"total", summary.TotalEvents, "crashes", len(summary.RecentCrashes), "driverErrors", len(summary.DriverErrors))
	return summary, firstErr
}

// queryLog fetches error-and-worse events from one logfile since cutoff.
// EventType <= 2 restricts the query to error and critical entries, keeping
// the result set small enough for WMI to return in bounded time.
func (c *EventLogCollector) queryLog(ctx context.Context, logfile string, cutoff time.Time) ([]scan.EventLogEntry, error) {
	where := fmt.Sprintf("Logfile='%s' AND TimeGenerated>='%s' AND EventType<=2",
		logfile, cutoff.Format("20060102150405"))
	var raw []win32NTLogEvent
	if _, err := c.provider.Query(ctx, &raw, "Win32_NTLogEvent", where); err != nil {
		return nil, err
	}

	events := make([]scan.EventLogEntry, 0, len(raw))
	for _, r := range raw {
		entry := scan.EventLogEntry{
			Level:   eventLevel(r.EventType),
			Source:  r.SourceName,
			EventID: int(r.EventCode),
			Message: truncateMessage(r.Message),
		}
		if entry.Source == "" {
			entry.Source = "Unknown"
		}
		if ts, ok := facts.ParseWMIDateTime(r.TimeGenerated); ok {
			entry.Timestamp = ts
		} else {
			entry.Timestamp = c.now()
		}
		events = append(events, entry)
	}
	return events, nil
}

func eventLevel(eventType uint16) scan.EventLevel {
	switch eventType {
	case 1:
		return scan.EventLevelCritical
	case 2:
		return scan.EventLevelError
	case 3:
		return scan.EventLevelWarning
	case 5:
		return scan.EventLevelVerbose
	default:
		return scan.EventLevelInformation
	}
}

func truncateMessage(msg string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "No message"
	}
	if len(msg) > 500 {
		return msg[:500]
	}
	return msg
}

func isGamingRelated(event scan.EventLogEntry) bool {
	// Application crashes and hangs always count.
	if event.EventID == 1001 || event.EventID == 1002 {
		return true
	}
	if event.Level != scan.EventLevelCritical && event.Level != scan.EventLevelError {
		return false
	}

	source := strings.ToLower(event.Source)
	for _, vendor := range []string{"display", "nvidia", "amd", "intel"} {
		if strings.Contains(source, vendor) {
			return true
		}
	}

	for _, src := range gamingEventSources {
		if !strings.Contains(source, src) {
			continue
		}
		message := strings.ToLower(event.Message)
		for _, kw := range gamingKeywords {
			if strings.Contains(message, kw) {
				return true
			}
		}
	}
	return false
}
