// Package report turns collected cards into the dated activity report.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/Sternrassler/leankit-activity/pkg/leankit"
)

// DateLayout is the layout of window bounds.
const DateLayout = "2006-01-02"

// LineDateLayout is the date printed at the start of every report line.
const LineDateLayout = "01/02/2006"

// ErrInvalidWindow is returned for windows that are empty or reversed.
var ErrInvalidWindow = errors.New("invalid date window")

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// ParseWindow parses YYYY-MM-DD bounds into a window.
func ParseWindow(start, end string) (Window, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Window{}, fmt.Errorf("%w: start %q: %v", ErrInvalidWindow, start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Window{}, fmt.Errorf("%w: end %q: %v", ErrInvalidWindow, end, err)
	}

	w := Window{Start: s, End: e}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// Validate checks that End is after Start.
func (w Window) Validate() error {
	if !w.End.After(w.Start) {
		return fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidWindow, w.End.Format(DateLayout), w.Start.Format(DateLayout))
	}
	return nil
}

// Contains reports whether Start <= t < End.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Line is one row of the report.
type Line struct {
	Activity time.Time
	Title    string
}

// String formats the line as "MM/DD/YYYY title".
func (l Line) String() string {
	return l.Activity.Format(LineDateLayout) + " " + l.Title
}

// ParseActivity parses a LeanKit last-activity timestamp.
func ParseActivity(s string) (time.Time, error) {
	t, err := time.Parse(leankit.ActivityLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last activity %q: %w", s, err)
	}
	return t, nil
}

// Build parses every card's last activity, keeps the cards inside window and
// sorts them by activity. Cards with equal activity keep their input order.
// A single unparseable timestamp fails the whole build.
func Build(cards []leankit.Card, window Window) ([]Line, error) {
	lines := make([]Line, 0, len(cards))
	for _, card := range cards {
		activity, err := ParseActivity(card.LastActivity)
		if err != nil {
			return nil, fmt.Errorf("card %d %q: %w", card.ID, card.Title, err)
		}
		if !window.Contains(activity) {
			continue
		}
		lines = append(lines, Line{Activity: activity, Title: card.Title})
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Activity.Before(lines[j].Activity)
	})

	return lines, nil
}

// Write prints one line per entry.
func Write(w io.Writer, lines []Line) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := fmt.Fprintln(bw, line.String()); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
