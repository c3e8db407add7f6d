// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

package reconcile

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tomtom215/ticketbridge/internal/config"
	"github.com/tomtom215/ticketbridge/internal/models"
)

// MatchPolicy selects the scoring used to link unlinked board items.
type MatchPolicy string

const (
	// PolicyAttributes scores device, county, location and tags, and links
	// confident matches.
	PolicyAttributes MatchPolicy = "a"
	// PolicySummary scores device, date and summary similarity for review
	// only.
	PolicySummary MatchPolicy = "b"
)

// Scoring constants.
const (
	ConfidentScore   = 10 // PolicyAttributes: applied at or above
	ReviewScore      = 30 // PolicySummary: reported above
	minSimilarWord   = 4  // shortest token counted by SummarySimilarity
	similarityWeight = 30
)

// ParseMatchPolicy accepts "a" or "b" in any case.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch p := MatchPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyAttributes, PolicySummary:
		return p, nil
	default:
		return "", fmt.Errorf("unknown match policy %q: use a or b", s)
	}
}

// TargetFields are the values read from an unlinked board item.
type TargetFields struct {
	Name     string
	DeviceID string
	County   string
	Location string
	Tags     string // rendered tag text, comma separated
	Date     string
}

// TargetFieldsFromItem reads the scored fields from a board item.
func TargetFieldsFromItem(item models.Item, cols config.ColumnConfig) TargetFields {
	return TargetFields{
		Name:     item.Name,
		DeviceID: item.Text(cols.Device),
		County:   item.Text(cols.County),
		Location: item.Text(cols.Location),
		Tags:     item.Text(cols.Tags),
		Date:     item.Text(cols.Date),
	}
}

// Match is the best scoring ticket for one board item.
type Match struct {
	Ticket  *models.SourceTicket
	Score   float64
	Matches []string
}

// scorer scores one ticket against a target.
type scorer func(target TargetFields, t *models.SourceTicket) (float64, []string)

// bestMatch returns the highest scoring ticket. Ties keep the earlier ticket;
// a zero best score is no match.
func bestMatch(target TargetFields, tickets []models.SourceTicket, score scorer) (Match, bool) {
	var best Match
	for i := range tickets {
		s, matches := score(target, &tickets[i])
		if s > best.Score {
			best = Match{Ticket: &tickets[i], Score: s, Matches: matches}
		}
	}
	return best, best.Ticket != nil
}

// AttributeScorer builds the PolicyAttributes scorer. The ticket's own county
// and location are filled from the lookup index only when absent.
func AttributeScorer(lookup LookupIndex, countyAttribute int) func(TargetFields, *models.SourceTicket) (float64, []string) {
	return func(target TargetFields, t *models.SourceTicket) (float64, []string) {
		device, _ := ToShortDeviceID(t.DeviceName())
		county := ""
		if countyAttribute != 0 {
			county = t.AttributeText(countyAttribute)
		}
		location := t.LocationName()
		if info, ok := lookup.Get(device); ok {
			if county == "" {
				county = info.County
			}
			if location == "" {
				location = info.Location
			}
		}
		tags := strings.Join(t.Tags, ", ")

		score := 0
		var matches []string
		if target.DeviceID != "" && device != "" && target.DeviceID == device {
			score += 10
			matches = append(matches, "device")
		}
		if target.County != "" && county != "" && strings.EqualFold(target.County, county) {
			score += 5
			matches = append(matches, "county")
		}
		switch containment(target.Location, location) {
		case exactMatch:
			score += 8
			matches = append(matches, "location (exact)")
		case partialMatch:
			score += 4
			matches = append(matches, "location (partial)")
		}
		switch containment(target.Tags, tags) {
		case exactMatch:
			score += 6
			matches = append(matches, "tags (exact)")
		case partialMatch:
			score += 3
			matches = append(matches, "tags (partial)")
		}
		return float64(score), matches
	}
}

type matchKind int

const (
	noMatch matchKind = iota
	partialMatch
	exactMatch
)

// containment compares two non-empty strings case-insensitively.
func containment(a, b string) matchKind {
	if a == "" || b == "" {
		return noMatch
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	switch {
	case a == b:
		return exactMatch
	case strings.Contains(a, b) || strings.Contains(b, a):
		return partialMatch
	default:
		return noMatch
	}
}

// SummaryScorer is the PolicySummary scorer: device +50, date +40 and
// summary similarity times 30.
func SummaryScorer(target TargetFields, t *models.SourceTicket) (float64, []string) {
	var (
		score   float64
		matches []string
	)
	device, _ := ToShortDeviceID(t.DeviceName())
	if device != "" && target.DeviceID != "" && device == target.DeviceID {
		score += 50
		matches = append(matches, "device")
	}
	date, _ := UnixToCalendarDate(int64(t.CreateTime))
	if date != "" && target.Date != "" && date == target.Date {
		score += 40
		matches = append(matches, "date")
	}
	if sim := SummarySimilarity(t.Summary, target.Name); sim > 0 {
		score += sim * similarityWeight
		matches = append(matches, fmt.Sprintf("summary (%.2f)", sim))
	}
	return score, matches
}

// SummarySimilarity is a crude token overlap, not an edit distance. It is 1
// for a case-insensitive exact match; otherwise the number of summary words
// longer than three characters that also appear in name, divided by the
// larger word count. Either side empty scores 0.
func SummarySimilarity(summary, name string) float64 {
	if summary == "" || name == "" {
		return 0
	}
	s, n := strings.ToLower(summary), strings.ToLower(name)
	if s == n {
		return 1
	}
	summaryWords := strings.Fields(s)
	nameWords := strings.Fields(n)
	if len(summaryWords) == 0 || len(nameWords) == 0 {
		return 0
	}
	inName := make(map[string]bool, len(nameWords))
	for _, w := range nameWords {
		inName[w] = true
	}
	shared := 0
	for _, w := range summaryWords {
		if utf8.RuneCountInString(w) >= minSimilarWord && inName[w] {
			shared++
		}
	}
	return float64(shared) / float64(max(len(summaryWords), len(nameWords)))
}
