package services

import (
	"context"
	"fmt"

	"github.com/Cyvadra/tv-relay/internal/config"
	"github.com/Cyvadra/tv-relay/internal/models"
	log "github.com/sirupsen/logrus"
)

// SettingsSource provides the current relay settings
type SettingsSource interface {
	Load() (*config.Settings, error)
}

// RelayOptions controls the relay behaviour
type RelayOptions struct {
	// RawDebug forwards the raw body before the formatted signal
	RawDebug bool
	// RawPreviewLimit is the number of characters of the raw body that are forwarded
	RawPreviewLimit int
}

// RelayResult summarizes how a webhook alert was handled
type RelayResult struct {
	Skipped    bool
	Channels   int
	Structured bool
	Formatted  bool
	Deliveries []DeliveryResult
}

// Message returns the text reported back to the webhook caller
func (r *RelayResult) Message() string {
	if r.Skipped {
		return "Forwarding is disabled, alert skipped"
	}
	return fmt.Sprintf("Signal sent to %d channel(s)", r.Channels)
}

// RelayService turns webhook bodies into channel notifications
type RelayService struct {
	settings SettingsSource
	forward  *ForwardService
	recorder AlertRecorder
	opts     RelayOptions
}

// NewRelayService creates a new relay service
func NewRelayService(settings SettingsSource, forward *ForwardService, opts RelayOptions) *RelayService {
	if opts.RawPreviewLimit <= 0 {
		opts.RawPreviewLimit = 800
	}
	return &RelayService{
		settings: settings,
		forward:  forward,
		opts:     opts,
	}
}

// SetRecorder enables alert history
func (s *RelayService) SetRecorder(recorder AlertRecorder) {
	s.recorder = recorder
}

// Process relays one webhook body. Per-channel send failures are reported in the result, not as an error.
// On error a best-effort failure notice is sent to the channels loaded so far.
func (s *RelayService) Process(ctx context.Context, body []byte) (result *RelayResult, err error) {
	var channels []string
	entry := &models.Alert{
		RawPayload: string(body),
		Status:     models.AlertStatusReceived,
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while relaying alert: %v", r)
			result = nil
		}
		if err != nil {
			log.WithError(err).Error("failed to relay alert")
			entry.Status = models.AlertStatusFailed
			entry.Error = err.Error()
			notices := s.forward.Broadcast(ctx, PlainMessage(FormatFailure(err)), channels)
			entry.Deliveries = append(entry.Deliveries, deliveryRecords(models.DeliveryKindError, notices)...)
		}
		s.record(entry)
	}()

	settings, err := s.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if !settings.Enabled {
		log.Info("forwarding disabled, alert skipped")
		entry.Status = models.AlertStatusSkipped
		return &RelayResult{Skipped: true}, nil
	}

	channels = settings.Channels
	entry.Channels = len(channels)
	result = &RelayResult{Channels: len(channels)}

	if s.opts.RawDebug {
		raw := s.forward.Broadcast(ctx, HTMLMessage(FormatRaw(body, s.opts.RawPreviewLimit)), channels)
		result.Deliveries = append(result.Deliveries, raw...)
		entry.Deliveries = append(entry.Deliveries, deliveryRecords(models.DeliveryKindRaw, raw)...)
	}

	payload, perr := ParsePayload(body)
	if perr != nil {
		log.WithError(perr).Info("alert body is not structured, forwarded raw only")
	}

	if perr == nil && len(payload) > 0 {
		result.Structured = true
		entry.Structured = true

		signal := ResolveSignal(payload)
		entry.Ticker = signal.Ticker
		entry.Direction = signal.Direction
		entry.Strategy = signal.Strategy

		if payload.HasIdentity() {
			formatted := s.forward.Broadcast(ctx, HTMLMessage(signal.Format()), channels)
			result.Formatted = true
			result.Deliveries = append(result.Deliveries, formatted...)
			entry.Deliveries = append(entry.Deliveries, deliveryRecords(models.DeliveryKindSignal, formatted)...)
		}
	}

	entry.Status = models.AlertStatusForwarded
	log.WithFields(log.Fields{
		"channels":  len(channels),
		"formatted": result.Formatted,
		"failed":    CountFailed(result.Deliveries),
	}).Info("alert relayed")

	return result, nil
}

func (s *RelayService) record(entry *models.Alert) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.SaveAlert(entry); err != nil {
		log.WithError(err).Warn("failed to save alert history")
	}
}
