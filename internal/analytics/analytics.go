package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"frames-ai/internal/storage"
)

// DailyStats holds the aggregated turn journal for one day.
type DailyStats struct {
	Date           string                  `json:"date"`
	TotalTurns     int                     `json:"total_turns"`
	ChatTurns      int                     `json:"chat_turns"`
	SmallTalkTurns int                     `json:"small_talk_turns"`
	ToolCallsTotal int                     `json:"tool_calls_total"`
	ToolsByName    map[string]int          `json:"tools_by_name"`
	Errors         int                     `json:"errors"`
	TotalTokens    int                     `json:"total_tokens"`
	UniqueSessions int                     `json:"unique_sessions"`
	SessionStats   map[string]SessionStats `json:"session_stats"`
}

// SessionStats holds per-session counters.
type SessionStats struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	ToolCalls int    `json:"tool_calls"`
	Errors    int    `json:"errors"`
}

// AnalyzeDailyLogs aggregates the events that fall on targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		ToolsByName:  make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// entries without user input are not turns
		if event.UserMessage == "" {
			continue
		}

		stats.TotalTurns++
		stats.TotalTokens += event.TotalTokens
		sessionStat, ok := stats.SessionStats[event.SessionID]
		if !ok {
			sessionStat = SessionStats{SessionID: event.SessionID}
		}
		sessionStat.Turns++

		switch event.Kind {
		case storage.KindChat:
			stats.ChatTurns++
		case storage.KindSmallTalk:
			stats.SmallTalkTurns++
		case storage.KindTool:
			stats.ToolCallsTotal++
			stats.ToolsByName[event.Tool]++
			sessionStat.ToolCalls++
		}
		if event.IsError {
			stats.Errors++
			sessionStat.Errors++
		}
		stats.SessionStats[event.SessionID] = sessionStat
	}

	stats.UniqueSessions = len(stats.SessionStats)
	return stats
}

// GenerateReportSummary renders a plain-text report.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Frames AI usage for %s:\n\n", ds.Date)
	b.WriteString("Activity:\n")
	fmt.Fprintf(&b, "- Turns: %d\n", ds.TotalTurns)
	fmt.Fprintf(&b, "- Chat turns: %d\n", ds.ChatTurns)
	fmt.Fprintf(&b, "- Small talk: %d\n", ds.SmallTalkTurns)
	fmt.Fprintf(&b, "- Tool calls: %d\n", ds.ToolCallsTotal)
	fmt.Fprintf(&b, "- Errors: %d\n", ds.Errors)
	fmt.Fprintf(&b, "- Tokens: %d\n", ds.TotalTokens)
	fmt.Fprintf(&b, "- Sessions: %d\n", ds.UniqueSessions)

	if len(ds.ToolsByName) > 0 {
		b.WriteString("\nTools:\n")
		for _, name := range sortedKeys(ds.ToolsByName) {
			fmt.Fprintf(&b, "- %s: %d\n", name, ds.ToolsByName[name])
		}
	}

	if len(ds.SessionStats) > 0 {
		b.WriteString("\nSessions:\n")
		ids := make([]string, 0, len(ds.SessionStats))
		for id := range ds.SessionStats {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			s := ds.SessionStats[id]
			label := id
			if label == "" {
				label = "(unknown)"
			}
			fmt.Fprintf(&b, "- %s: %d turns", label, s.Turns)
			if s.ToolCalls > 0 {
				fmt.Fprintf(&b, ", %d tool calls", s.ToolCalls)
			}
			if s.Errors > 0 {
				fmt.Fprintf(&b, ", %d errors", s.Errors)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToJSON serializes the stats for machine consumption.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
