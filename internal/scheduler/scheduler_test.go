package scheduler

import (
	"context"
	"testing"

	"github.com/k2nservice/console/internal/config"
	"github.com/k2nservice/console/internal/domain/models"
	"github.com/k2nservice/console/internal/service/reporting"
	"github.com/k2nservice/console/internal/session"
)

type fakeReporter struct {
	archived   int
	archiveErr error
	digest     string
	alertText  string
	alertCount int
}

func (f *fakeReporter) ArchiveDailySnapshot(context.Context) (models.DailySnapshot, error) {
	f.archived++
	return models.DailySnapshot{}, f.archiveErr
}

func (f *fakeReporter) WeeklyDigest(context.Context) (string, error) {
	return f.digest, nil
}

func (f *fakeReporter) StockAlerts(context.Context) (string, int, error) {
	return f.alertText, f.alertCount, nil
}

type fakeNotifier struct {
	enabled bool
	sent    []string
}

func (f *fakeNotifier) Enabled() bool { return f.enabled }

func (f *fakeNotifier) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.sent = append(f.sent, req.Message)
	return nil
}

func (f *fakeNotifier) Broadcast(_ context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

type fixedSession struct{ state session.State }

func (f fixedSession) State() session.State { return f.state }

var signedIn = fixedSession{state: session.State{User: &models.User{ID: "1", Email: "admin@k2n.gn"}}}

func TestJobsSkipWithoutSession(t *testing.T) {
	reporter := &fakeReporter{digest: "bilan", alertText: "alerte", alertCount: 2}
	notifier := &fakeNotifier{enabled: true}
	s := NewScheduler(config.ReportingConfig{}, nil, reporter, notifier, fixedSession{}, nil)

	s.archiveSnapshot()
	s.sendWeeklyDigest()
	s.sendStockAlerts()

	if reporter.archived != 0 || len(notifier.sent) != 0 {
		t.Fatalf("jobs ran without a session: archived=%d sent=%v", reporter.archived, notifier.sent)
	}
}

func TestJobsRunWithSession(t *testing.T) {
	reporter := &fakeReporter{digest: "bilan", alertText: "alerte", alertCount: 2}
	notifier := &fakeNotifier{enabled: true}
	s := NewScheduler(config.ReportingConfig{}, nil, reporter, notifier, signedIn, nil)

	s.archiveSnapshot()
	s.sendWeeklyDigest()
	s.sendStockAlerts()

	if reporter.archived != 1 {
		t.Errorf("archived = %d", reporter.archived)
	}
	if len(notifier.sent) != 2 || notifier.sent[0] != "bilan" || notifier.sent[1] != "alerte" {
		t.Errorf("sent = %v", notifier.sent)
	}
}

func TestStockAlertsNotSentWhenNothingToRestock(t *testing.T) {
	notifier := &fakeNotifier{enabled: true}
	s := NewScheduler(config.ReportingConfig{}, nil, &fakeReporter{}, notifier, signedIn, nil)

	s.sendStockAlerts()

	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %v", notifier.sent)
	}
}

func TestDisabledNotifierSkipsDigest(t *testing.T) {
	notifier := &fakeNotifier{}
	s := NewScheduler(config.ReportingConfig{}, nil, &fakeReporter{digest: "bilan"}, notifier, signedIn, nil)

	s.sendWeeklyDigest()

	if len(notifier.sent) != 0 {
		t.Fatalf("sent = %v", notifier.sent)
	}
}

func TestArchiveWithoutMongoIsQuiet(t *testing.T) {
	reporter := &fakeReporter{archiveErr: reporting.ErrNoArchive}
	s := NewScheduler(config.ReportingConfig{}, nil, reporter, &fakeNotifier{}, signedIn, nil)
	s.archiveSnapshot()
	if reporter.archived != 1 {
		t.Fatalf("archived = %d", reporter.archived)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	s := NewScheduler(config.ReportingConfig{DigestSchedule: "every friday"}, nil, &fakeReporter{}, &fakeNotifier{}, signedIn, nil)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected schedule error")
	}

	s = NewScheduler(config.ReportingConfig{SnapshotSchedule: "0 20 * * *", DigestSchedule: "0 20 * * 5"}, nil, &fakeReporter{}, &fakeNotifier{}, signedIn, nil)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.Stop()
}
