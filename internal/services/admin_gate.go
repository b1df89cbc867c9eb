package services

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
)

const unauthorizedReply = "⛔ You are not authorized to use this bot."

// AdminGate authorizes command senders against a fixed allow-list
type AdminGate struct {
	admins map[string]struct{}
}

// NewAdminGate creates a gate for the given sender ids. An empty list authorizes nobody.
func NewAdminGate(ids []string) *AdminGate {
	admins := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			admins[id] = struct{}{}
		}
	}
	return &AdminGate{admins: admins}
}

// Authorize reports whether senderID is an admin
func (g *AdminGate) Authorize(senderID string) bool {
	_, ok := g.admins[strings.TrimSpace(senderID)]
	return ok
}

// Guard wraps next so that only admins reach it. Everyone else gets a rejection reply.
func (g *AdminGate) Guard(next CommandHandler) CommandHandler {
	return func(ctx context.Context, cmd Command) Message {
		if !g.Authorize(cmd.SenderID) {
			log.WithError(ErrUnauthorized).
				WithFields(log.Fields{"sender": cmd.SenderID, "command": cmd.Name}).
				Warn("rejected command from unauthorized sender")
			return PlainMessage(unauthorizedReply)
		}
		return next(ctx, cmd)
	}
}
