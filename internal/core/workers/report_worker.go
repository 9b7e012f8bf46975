package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"habitflow/internal/core/domain"
)

// The five ways a queue message can be malformed. Each is a distinct
// sentinel so operators can triage poison messages by category.
var (
	ErrNoBody      = errors.New("queue message has no body")
	ErrNoReceipt   = errors.New("queue message has no receipt handle")
	ErrBodyNotJSON = errors.New("queue message body is not valid JSON")
	ErrNoUserID    = errors.New("user_id missing or not a non-empty string")
	ErrBadUserID   = errors.New("user_id is not a valid UUID")
)

// Message is a raw queue message: body plus the out-of-band acknowledgment
// handle. Deleting it from the queue is the pipeline's only commit signal.
type Message struct {
	ID      string
	Receipt string
	Body    string
}

type QueueClient interface {
	Receive(ctx context.Context, maxMessages int32, wait time.Duration) ([]Message, error)
	Delete(ctx context.Context, msg Message) error
}

type ObjectStore interface {
	Upload(ctx context.Context, container string, body io.ReadSeeker, key string) error
}

type ReportMailer interface {
	SendReport(ctx context.Context, recipient, subject string, attachment io.Reader) error
}

type PDFRenderer interface {
	CreateBuffer(html string) (*bytes.Reader, error)
}

type ReportBuilder interface {
	CalculateWeeklyStats(ctx context.Context, userID uuid.UUID) (*domain.WeeklyReport, error)
	RenderHTML(report *domain.WeeklyReport) (string, error)
}

type Config struct {
	Container   string
	MaxBatch    int32
	WaitTime    time.Duration
	PollBackoff time.Duration
}

// ReportWorker drains report-trigger messages from the queue and runs each
// through the full pipeline: parse, build stats, render, PDF, upload,
// email, ack. Everything before the final delete is redone on redelivery;
// uploads overwrite by key and duplicate emails are an accepted risk.
type ReportWorker struct {
	queue   QueueClient
	store   ObjectStore
	mailer  ReportMailer
	pdf     PDFRenderer
	reports ReportBuilder
	users   domain.UserRepository
	cfg     Config
	log     *logrus.Entry
}

func NewReportWorker(
	queue QueueClient,
	store ObjectStore,
	mailer ReportMailer,
	pdf PDFRenderer,
	reports ReportBuilder,
	users domain.UserRepository,
	cfg Config,
	log *logrus.Logger,
) *ReportWorker {
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = 10
	}
	if cfg.WaitTime <= 0 {
		cfg.WaitTime = 20 * time.Second
	}
	if cfg.PollBackoff <= 0 {
		cfg.PollBackoff = 5 * time.Second
	}
	return &ReportWorker{
		queue:   queue,
		store:   store,
		mailer:  mailer,
		pdf:     pdf,
		reports: reports,
		users:   users,
		cfg:     cfg,
		log:     log.WithField("component", "report_worker"),
	}
}

// ParseMessage validates a raw queue message and extracts the user id and
// receipt handle. Checks run in a fixed order and each failure wraps its
// own sentinel.
func ParseMessage(msg Message) (uuid.UUID, string, error) {
	if strings.TrimSpace(msg.Body) == "" {
		return uuid.Nil, "", ErrNoBody
	}
	if msg.Receipt == "" {
		return uuid.Nil, "", ErrNoReceipt
	}

	var body map[string]any
	if err := json.Unmarshal([]byte(msg.Body), &body); err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %v", ErrBodyNotJSON, err)
	}
	// An empty object decodes fine but carries nothing; treat it as no body.
	if len(body) == 0 {
		return uuid.Nil, "", ErrNoBody
	}

	raw, ok := body["user_id"]
	if !ok {
		return uuid.Nil, "", ErrNoUserID
	}
	str, ok := raw.(string)
	if !ok || str == "" {
		return uuid.Nil, "", ErrNoUserID
	}

	userID, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("%w: %q", ErrBadUserID, str)
	}

	return userID, msg.Receipt, nil
}

// ProcessMessage runs one message through the pipeline. Any error aborts
// the remaining stages and leaves the message in the queue for redelivery;
// only the final successful step deletes it.
func (w *ReportWorker) ProcessMessage(ctx context.Context, msg Message) error {
	log := w.log.WithField("message_id", msg.ID)
	log.Info("processing message")

	userID, _, err := ParseMessage(msg)
	if err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	report, err := w.reports.CalculateWeeklyStats(ctx, userID)
	if err != nil {
		return fmt.Errorf("calculate weekly stats for user %s: %w", userID, err)
	}
	if report == nil {
		log.Warnf("no report for user %s, skipping", userID)
		return nil
	}

	html, err := w.reports.RenderHTML(report)
	if err != nil {
		return fmt.Errorf("render report for user %s: %w", userID, err)
	}

	buffer, err := w.pdf.CreateBuffer(html)
	if err != nil {
		return fmt.Errorf("build pdf for user %s: %w", userID, err)
	}

	key := fmt.Sprintf("reports/%s/weekly_w%d.pdf", userID, report.WeekNumber)
	if _, err := buffer.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind pdf buffer: %w", err)
	}
	if err := w.store.Upload(ctx, w.cfg.Container, buffer, key); err != nil {
		return fmt.Errorf("upload report %s: %w", key, err)
	}

	user, err := w.users.GetByID(ctx, userID.String())
	if err != nil {
		return fmt.Errorf("look up user %s for report email: %w", userID, err)
	}

	if _, err := buffer.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind pdf buffer: %w", err)
	}
	subject := "Your Weekly Report - " + report.PeriodLabel()
	if err := w.mailer.SendReport(ctx, user.Email, subject, buffer); err != nil {
		return fmt.Errorf("email report to %s: %w", user.Email, err)
	}

	if err := w.queue.Delete(ctx, msg); err != nil {
		return fmt.Errorf("delete message %s: %w", msg.ID, err)
	}

	log.Infof("report for user %s processed", userID)
	return nil
}

// Run polls the queue until ctx is cancelled. Messages of a batch are
// processed concurrently with independent failure domains; a failure of the
// receive call itself backs off for a fixed interval before retrying.
func (w *ReportWorker) Run(ctx context.Context) {
	w.log.Info("report worker started")

	for {
		if ctx.Err() != nil {
			w.log.Info("report worker shutting down")
			return
		}

		batch, err := w.queue.Receive(ctx, w.cfg.MaxBatch, w.cfg.WaitTime)
		if err != nil {
			if ctx.Err() != nil {
				w.log.Info("report worker shutting down")
				return
			}
			w.log.WithError(err).Error("queue receive failed")
			w.sleep(ctx, w.cfg.PollBackoff)
			continue
		}
		if len(batch) == 0 {
			continue
		}

		var wg sync.WaitGroup
		for _, msg := range batch {
			wg.Add(1)
			go func(m Message) {
				defer wg.Done()
				if err := w.ProcessMessage(ctx, m); err != nil {
					w.log.WithFields(logrus.Fields{
						"message_id": m.ID,
						"body":       m.Body,
					}).WithError(err).Error("message processing failed, leaving it for redelivery")
				}
			}(msg)
		}
		wg.Wait()
	}
}

func (w *ReportWorker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
