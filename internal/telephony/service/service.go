// Package service implements click-to-dial: it resolves the clicked
// phone number, checks the user's extension and hands the call to the
// PBX gateway.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"switchboard/internal/directory/models"
	"switchboard/internal/telephony/metrics"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/platform/audit"
	"switchboard/pkg/platform/sentinel"
	"switchboard/pkg/requestcontext"
)

// Dial user messages are fixed copy shown verbatim in the UI.
const (
	MessageNoExtension   = "You can't dial because you do not have an extension set to your user account."
	MessageCallCompleted = "Your call is now being completed."
)

// Originator hands a call to the PBX: ring extension, then connect it
// to number. One attempt, no retries.
type Originator interface {
	Originate(ctx context.Context, extension, number string) error
}

// PhoneNumberFinder resolves a clicked phone number row.
type PhoneNumberFinder interface {
	FindPhoneNumber(ctx context.Context, phoneID id.PhoneNumberID) (*models.PhoneNumber, error)
}

// DialResult reports the outcome of a dial attempt that reached a
// business decision. OK is false when the user cannot dial; gateway
// failures are errors, not results.
type DialResult struct {
	OK      bool
	Message string
}

// Service coordinates dial attempts.
type Service struct {
	phones     PhoneNumberFinder
	originator Originator
	logger     *slog.Logger
	metrics    *metrics.Metrics
	auditor    audit.Publisher
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// New constructs a Service.
func New(phones PhoneNumberFinder, originator Originator, opts ...Option) *Service {
	s := &Service{
		phones:     phones,
		originator: originator,
		logger:     slog.Default(),
		tracer:     otel.Tracer("switchboard/internal/telephony"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dial originates a call from the current user's extension to the
// stored phone number. A user without an extension gets a refusal
// message, not an error; an unknown phone number id is CodeNotFound;
// a manager failure is CodeGateway after exactly one attempt.
func (s *Service) Dial(ctx context.Context, phoneID id.PhoneNumberID) (DialResult, error) {
	ctx, span := s.tracer.Start(ctx, "telephony.Dial")
	defer span.End()
	start := time.Now()

	phone, err := s.phones.FindPhoneNumber(ctx, phoneID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return DialResult{}, dErrors.New(dErrors.CodeNotFound, "phone number not found")
		}
		return DialResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load phone number")
	}

	user, _ := requestcontext.CurrentUser(ctx)
	if !user.HasExtension() {
		if s.metrics != nil {
			s.metrics.CallsRefused.Inc()
		}
		s.emitAudit(ctx, user, phone, audit.ActionCallRefused, "refused")
		return DialResult{OK: false, Message: MessageNoExtension}, nil
	}

	if err := s.originator.Originate(ctx, user.Extension, phone.RawNumber); err != nil {
		if s.metrics != nil {
			s.metrics.GatewayErrors.Inc()
			s.metrics.ObserveDial(start)
		}
		s.emitAudit(ctx, user, phone, audit.ActionCallRefused, "gateway_error")
		return DialResult{}, dErrors.Wrap(err, dErrors.CodeGateway, "failed to originate call")
	}

	if s.metrics != nil {
		s.metrics.CallsOriginated.Inc()
		s.metrics.ObserveDial(start)
	}
	s.emitAudit(ctx, user, phone, audit.ActionCallOriginated, "ok")
	s.logger.InfoContext(ctx, "call originated",
		"phone_number_id", phone.ID.String(),
		"extension", user.Extension,
		"browser", requestcontext.Browser(ctx),
	)
	return DialResult{OK: true, Message: MessageCallCompleted}, nil
}

func (s *Service) emitAudit(ctx context.Context, user requestcontext.User, phone *models.PhoneNumber, action audit.Action, outcome string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Action:    action,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   phone.ID.String(),
		Outcome:   outcome,
		RequestID: requestcontext.RequestID(ctx),
		Detail:    phone.RawNumber,
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(action), "error", err)
	}
}
