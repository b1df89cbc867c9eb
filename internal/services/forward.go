package services

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DeliveryResult is the outcome of one send
type DeliveryResult struct {
	ChannelID string
	Err       error
}

// OK reports whether the send succeeded
func (r DeliveryResult) OK() bool {
	return r.Err == nil
}

// CountFailed returns how many results carry an error
func CountFailed(results []DeliveryResult) int {
	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
	}
	return failed
}

// ForwardService fans messages out to channels
type ForwardService struct {
	sender Sender
}

// NewForwardService creates a new forward service
func NewForwardService(sender Sender) *ForwardService {
	return &ForwardService{sender: sender}
}

// Broadcast sends msg to every channel concurrently and waits for all sends to settle.
// A failing channel never stops the others. Results are returned in channel order.
// Cancelling ctx does not abort a broadcast that has already started.
func (s *ForwardService) Broadcast(ctx context.Context, msg Message, channels []string) []DeliveryResult {
	ctx = context.WithoutCancel(ctx)
	results := make([]DeliveryResult, len(channels))

	var g errgroup.Group
	for i, channelID := range channels {
		g.Go(func() error {
			results[i] = s.deliver(ctx, channelID, msg)
			return nil
		})
	}
	_ = g.Wait()

	if failed := CountFailed(results); failed > 0 {
		log.WithFields(log.Fields{"failed": failed, "total": len(results)}).Warn("broadcast finished with failures")
	}
	return results
}

func (s *ForwardService) deliver(ctx context.Context, channelID string, msg Message) (result DeliveryResult) {
	result.ChannelID = channelID
	defer func() {
		if r := recover(); r != nil {
			result.Err = &DeliveryError{ChannelID: channelID, Err: fmt.Errorf("sender panicked: %v", r)}
			log.WithField("channel", channelID).Errorf("sender panicked: %v", r)
		}
	}()

	if err := s.sender.Send(ctx, channelID, msg); err != nil {
		log.WithError(err).WithField("channel", channelID).Error("failed to deliver message")
		result.Err = &DeliveryError{ChannelID: channelID, Err: err}
	}
	return result
}
