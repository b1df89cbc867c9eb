package services

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Cyvadra/tv-relay/internal/config"
	log "github.com/sirupsen/logrus"
)

// Command names
const (
	CommandOn            = "on"
	CommandOff           = "off"
	CommandAddChannel    = "addchannel"
	CommandRemoveChannel = "removechannel"
	CommandList          = "list"
	CommandHelp          = "help"
	CommandStart         = "start"
)

// Command is a parsed chat command
type Command struct {
	Name     string
	Args     []string
	SenderID string
}

// Arg returns the i-th argument or "" when it was not supplied
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// ParseCommand splits "/name@bot arg1 arg2" into a Command. Text without a leading slash yields an empty name.
func ParseCommand(text string) Command {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return Command{Args: fields}
	}

	name := strings.TrimPrefix(fields[0], "/")
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	return Command{
		Name: strings.ToLower(name),
		Args: fields[1:],
	}
}

// CommandHandler answers a command with a reply
type CommandHandler func(ctx context.Context, cmd Command) Message

// CommandInfo describes a command for menus and help output
type CommandInfo struct {
	Name        string
	Usage       string
	Description string
}

// SettingsRepository is the settings storage the command router reads and mutates
type SettingsRepository interface {
	Load() (*config.Settings, error)
	Update(fn func(*config.Settings) error) (*config.Settings, error)
}

// CommandRouter dispatches admin commands to settings changes
type CommandRouter struct {
	store    SettingsRepository
	handlers map[string]CommandHandler
}

// NewCommandRouter creates a router over store
func NewCommandRouter(store SettingsRepository) *CommandRouter {
	r := &CommandRouter{store: store}
	r.handlers = map[string]CommandHandler{
		CommandOn:            r.handleOn,
		CommandOff:           r.handleOff,
		CommandAddChannel:    r.handleAddChannel,
		CommandRemoveChannel: r.handleRemoveChannel,
		CommandList:          r.handleList,
		CommandHelp:          r.handleHelp,
		CommandStart:         r.handleHelp,
	}
	return r
}

// Commands lists the commands the router understands
func (r *CommandRouter) Commands() []CommandInfo {
	return []CommandInfo{
		{Name: CommandOn, Usage: "/on", Description: "Enable alert forwarding"},
		{Name: CommandOff, Usage: "/off", Description: "Disable alert forwarding"},
		{Name: CommandAddChannel, Usage: "/addchannel <channel_id>", Description: "Add a destination channel"},
		{Name: CommandRemoveChannel, Usage: "/removechannel <channel_id>", Description: "Remove a destination channel"},
		{Name: CommandList, Usage: "/list", Description: "Show status and channels"},
		{Name: CommandHelp, Usage: "/help", Description: "Show available commands"},
	}
}

// Dispatch runs cmd and returns the reply for the sender
func (r *CommandRouter) Dispatch(ctx context.Context, cmd Command) Message {
	handler, ok := r.handlers[cmd.Name]
	if !ok {
		return r.handleHelp(ctx, cmd)
	}
	return handler(ctx, cmd)
}

func (r *CommandRouter) handleOn(_ context.Context, cmd Command) Message {
	if err := r.setEnabled(true); err != nil {
		return r.failure(cmd, err)
	}
	log.WithField("sender", cmd.SenderID).Info("forwarding enabled")
	return PlainMessage("✅ Forwarding is now ON")
}

func (r *CommandRouter) handleOff(_ context.Context, cmd Command) Message {
	if err := r.setEnabled(false); err != nil {
		return r.failure(cmd, err)
	}
	log.WithField("sender", cmd.SenderID).Info("forwarding disabled")
	return PlainMessage("⏸ Forwarding is now OFF")
}

func (r *CommandRouter) setEnabled(enabled bool) error {
	_, err := r.store.Update(func(s *config.Settings) error {
		s.Enabled = enabled
		return nil
	})
	return err
}

func (r *CommandRouter) handleAddChannel(_ context.Context, cmd Command) Message {
	id := cmd.Arg(0)
	if id == "" {
		return r.usage(cmd)
	}

	added := false
	if _, err := r.store.Update(func(s *config.Settings) error {
		added = s.AddChannel(id)
		return nil
	}); err != nil {
		return r.failure(cmd, err)
	}

	if !added {
		return HTMLMessage(fmt.Sprintf("ℹ️ Channel <code>%s</code> is already in the list", html.EscapeString(id)))
	}
	log.WithFields(log.Fields{"sender": cmd.SenderID, "channel": id}).Info("channel added")
	return HTMLMessage(fmt.Sprintf("✅ Channel <code>%s</code> added", html.EscapeString(id)))
}

func (r *CommandRouter) handleRemoveChannel(_ context.Context, cmd Command) Message {
	id := cmd.Arg(0)
	if id == "" {
		return r.usage(cmd)
	}

	if _, err := r.store.Update(func(s *config.Settings) error {
		s.RemoveChannel(id)
		return nil
	}); err != nil {
		return r.failure(cmd, err)
	}

	log.WithFields(log.Fields{"sender": cmd.SenderID, "channel": id}).Info("channel removed")
	return HTMLMessage(fmt.Sprintf("🗑 Channel <code>%s</code> removed", html.EscapeString(id)))
}

func (r *CommandRouter) handleList(_ context.Context, cmd Command) Message {
	settings, err := r.store.Load()
	if err != nil {
		return r.failure(cmd, err)
	}
	return HTMLMessage(FormatSettings(settings))
}

func (r *CommandRouter) handleHelp(_ context.Context, _ Command) Message {
	var sb strings.Builder
	sb.WriteString("Available commands:")
	for _, info := range r.Commands() {
		fmt.Fprintf(&sb, "\n%s - %s", info.Usage, info.Description)
	}
	return PlainMessage(sb.String())
}

func (r *CommandRouter) usage(cmd Command) Message {
	log.WithError(ErrMissingArgument).WithField("command", cmd.Name).Debug("command without argument")
	return PlainMessage(fmt.Sprintf("Usage: /%s <channel_id>", cmd.Name))
}

func (r *CommandRouter) failure(cmd Command, err error) Message {
	log.WithError(err).WithField("command", cmd.Name).Error("command failed")
	return PlainMessage(fmt.Sprintf("❌ Command /%s failed: %v", cmd.Name, err))
}

// FormatSettings renders the forwarding status and the channel list
func FormatSettings(settings *config.Settings) string {
	var sb strings.Builder
	status := "🔴 OFF"
	if settings.Enabled {
		status = "🟢 ON"
	}
	fmt.Fprintf(&sb, "<b>Forwarding:</b> %s\n<b>Channels:</b>", status)

	if len(settings.Channels) == 0 {
		sb.WriteString(" None")
		return sb.String()
	}
	for _, id := range settings.Channels {
		fmt.Fprintf(&sb, "\n• <code>%s</code>", html.EscapeString(id))
	}
	return sb.String()
}
