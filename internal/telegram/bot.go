// Package telegram connects the relay to the Telegram Bot API
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Cyvadra/tv-relay/internal/config"
	"github.com/Cyvadra/tv-relay/internal/services"
	log "github.com/sirupsen/logrus"
	tb "gopkg.in/tucnak/telebot.v2"
)

// chatID addresses a chat, group or channel by its id or @username
type chatID string

// Recipient implements tb.Recipient
func (c chatID) Recipient() string {
	return string(c)
}

// Bot receives admin commands and delivers relay messages
type Bot struct {
	client   *tb.Bot
	handler  services.CommandHandler
	commands []services.CommandInfo
}

// NewBot creates the bot client and registers a handler for every command.
// handler receives commands from every sender; authorization is the handler's job.
func NewBot(cfg config.TelegramConfig, handler services.CommandHandler, commands []services.CommandInfo) (*Bot, error) {
	client, err := tb.NewBot(tb.Settings{
		Token:  cfg.Token,
		Poller: &tb.LongPoller{Timeout: cfg.PollTimeout},
		Client: &http.Client{Timeout: cfg.PollTimeout + cfg.SendTimeout},
		Reporter: func(err error) {
			log.WithError(err).Error("telegram bot error")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		client:   client,
		handler:  handler,
		commands: commands,
	}

	if err := bot.setupCommands(); err != nil {
		// The menu is cosmetic, commands still work without it.
		log.WithError(err).Warn("failed to set bot commands")
	}
	bot.registerHandlers()

	return bot, nil
}

// setupCommands publishes the command menu
func (b *Bot) setupCommands() error {
	menu := make([]tb.Command, 0, len(b.commands))
	for _, info := range b.commands {
		menu = append(menu, tb.Command{Text: info.Name, Description: info.Description})
	}
	return b.client.SetCommands(menu)
}

// registerHandlers routes every known command to the command handler
func (b *Bot) registerHandlers() {
	b.client.Handle("/start", b.handle)
	for _, info := range b.commands {
		b.client.Handle("/"+info.Name, b.handle)
	}
}

// Start polls for updates until Stop is called
func (b *Bot) Start() {
	log.WithField("bot", b.client.Me.Username).Info("telegram bot started")
	b.client.Start()
}

// Stop ends polling
func (b *Bot) Stop() {
	b.client.Stop()
}

// Send delivers msg to a chat or channel
func (b *Bot) Send(ctx context.Context, channelID string, msg services.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := b.client.Send(chatID(channelID), msg.Text, sendOptions(msg)); err != nil {
		return fmt.Errorf("telegram send failed: %w", err)
	}
	return nil
}

func (b *Bot) handle(m *tb.Message) {
	cmd := commandFromMessage(m)
	reply := b.handler(context.Background(), cmd)
	if reply.Text == "" {
		return
	}
	if _, err := b.client.Send(m.Chat, reply.Text, sendOptions(reply)); err != nil {
		log.WithError(err).WithFields(log.Fields{
			"sender":  cmd.SenderID,
			"command": cmd.Name,
		}).Error("failed to send command reply")
	}
}

// commandFromMessage converts an incoming message into a command with a string sender id
func commandFromMessage(m *tb.Message) services.Command {
	cmd := services.ParseCommand(m.Text)
	if m.Sender != nil {
		cmd.SenderID = strconv.FormatInt(int64(m.Sender.ID), 10)
	}
	return cmd
}

func sendOptions(msg services.Message) *tb.SendOptions {
	opts := &tb.SendOptions{DisableWebPagePreview: true}
	if msg.Format == services.FormatHTML {
		opts.ParseMode = tb.ModeHTML
	}
	return opts
}
