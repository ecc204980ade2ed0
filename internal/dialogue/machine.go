// Package dialogue runs the report-taking conversation: classify, ask where,
// ask the category's follow-up questions, then persist the report.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mr1hm/cuya-bot/internal/geofence"
	"github.com/mr1hm/cuya-bot/internal/intent"
	"github.com/mr1hm/cuya-bot/internal/models"
	"github.com/mr1hm/cuya-bot/internal/rules"
)

const (
	DefaultMapSearchURL = "https://www.google.com/maps/search/?q="

	unknownLocation      = "Unknown"
	defaultPersistFailed = "⚠️ The report could not be saved. Please send any message to try again."
)

// ErrReportNotSaved wraps sink failures returned from Step. The session is
// left in StageCompleted so the next message retries the write.
var ErrReportNotSaved = errors.New("report not saved")

// ReportSink receives one report per completed dialogue. Add must set r.ID.
type ReportSink interface {
	Add(ctx context.Context, r *models.Report) error
}

type Reply struct {
	Text   string
	Report *models.Report // set when this step persisted a report
}

type Machine struct {
	classifier *intent.Classifier
	geofence   *geofence.Matcher
	replies    rules.Replies
	sink       ReportSink
	mapURL     string
	now        func() time.Time
}

type Option func(*Machine)

func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithMapSearchURL sets the prefix the escaped location is appended to.
func WithMapSearchURL(prefix string) Option {
	return func(m *Machine) {
		if prefix != "" {
			m.mapURL = prefix
		}
	}
}

func NewMachine(r *rules.Rules, sink ReportSink, opts ...Option) *Machine {
	m := &Machine{
		classifier: intent.NewClassifier(r),
		geofence:   geofence.NewMatcher(r.Gazetteer),
		replies:    r.Replies,
		sink:       sink,
		mapURL:     DefaultMapSearchURL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.replies.PersistFailed == "" {
		m.replies.PersistFailed = defaultPersistFailed
	}
	return m
}

// Step consumes one user message and advances s. While a dialogue is in
// progress the message is taken as the expected answer and never
// reclassified.
func (m *Machine) Step(ctx context.Context, s *models.Session, message string) (Reply, error) {
	switch s.Stage {
	case models.StageAwaitingLocation:
		return m.acceptLocation(ctx, s, message)
	case models.StageAwaitingFollowUps:
		return m.acceptAnswer(ctx, s, message)
	case models.StageCompleted:
		return m.finalize(ctx, s)
	default:
		return m.idle(s, message), nil
	}
}

func (m *Machine) idle(s *models.Session, message string) Reply {
	in := m.classifier.Classify(message)

	switch in.Kind {
	case intent.KindSmalltalk:
		return Reply{Text: m.classifier.SmalltalkReply(in.Smalltalk)}
	case intent.KindEmergency:
		s.Reset()
		s.Category = in.Category
		s.Stage = models.StageAwaitingLocation
		slog.Debug("emergency detected", "session_id", s.ID, "category", in.Category.ID)
		return Reply{Text: strings.ReplaceAll(m.replies.LocationPrompt, "{label}", in.Category.Label)}
	default:
		return Reply{Text: m.replies.Fallback}
	}
}

func (m *Machine) acceptLocation(ctx context.Context, s *models.Session, message string) (Reply, error) {
	if s.Category == nil || !m.geofence.Contains(message) {
		slog.Debug("location rejected", "session_id", s.ID)
		s.Reset()
		return Reply{Text: m.replies.OutOfArea}, nil
	}

	s.SetAnswer(models.LocationKey, titleCase(message))
	s.Cursor = 0

	if len(s.Category.Questions) == 0 {
		return m.finalize(ctx, s)
	}

	s.Stage = models.StageAwaitingFollowUps
	return Reply{Text: s.Category.Questions[0]}, nil
}

func (m *Machine) acceptAnswer(ctx context.Context, s *models.Session, message string) (Reply, error) {
	questions := s.Category.Questions
	if s.Cursor < len(questions) {
		s.SetAnswer(questions[s.Cursor], message)
		s.Cursor++
	}

	if s.Cursor < len(questions) {
		return Reply{Text: questions[s.Cursor]}, nil
	}
	return m.finalize(ctx, s)
}

func (m *Machine) finalize(ctx context.Context, s *models.Session) (Reply, error) {
	s.Stage = models.StageCompleted

	report := m.buildReport(s)
	if err := m.sink.Add(ctx, report); err != nil {
		slog.Error("error saving report", "session_id", s.ID, "error", err)
		return Reply{Text: m.replies.PersistFailed}, fmt.Errorf("%w: %w", ErrReportNotSaved, err)
	}

	label := s.Category.Label
	slog.Info("report recorded", "session_id", s.ID, "report_id", report.ID, "category", s.Category.ID, "location", report.Location)
	s.Reset()

	text := strings.NewReplacer(
		"{location}", report.Location,
		"{map_url}", m.MapURL(report.Location),
		"{label}", label,
	).Replace(m.replies.Recorded)

	return Reply{Text: text, Report: report}, nil
}

func (m *Machine) buildReport(s *models.Session) *models.Report {
	location, ok := s.Answer(models.LocationKey)
	if !ok {
		location = unknownLocation
	}

	return &models.Report{
		Timestamp:     m.now().Format(models.TimestampLayout),
		EmergencyType: FormatEmergencyType(s.Category.Label, s.Answers),
		Location:      location,
	}
}

// MapURL returns the map search link for a location. The location is the
// value of a query parameter, so '&', '+' and '=' are escaped and spaces
// become %20.
func (m *Machine) MapURL(location string) string {
	return m.mapURL + strings.ReplaceAll(url.QueryEscape(location), "+", "%20")
}

// FormatEmergencyType flattens a category label and its follow-up answers as
// "label | question – answer; question – answer". The location answer is
// excluded.
func FormatEmergencyType(label string, answers []models.Answer) string {
	parts := make([]string, 0, len(answers))
	for _, a := range answers {
		if a.Key == models.LocationKey {
			continue
		}
		parts = append(parts, a.Key+" – "+a.Value)
	}
	return label + " | " + strings.Join(parts, "; ")
}

// titleCase upper-cases the first letter of every word and lower-cases the rest.
// A Caser is stateful, so one is built per call.
func titleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
