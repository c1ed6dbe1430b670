// Package bot is the Telegram surface. A chat must be linked to a
// registered account before links are accepted: unknown chats are asked
// for the phone number they registered with.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"linkvault/internal/pipeline"
	"linkvault/internal/storage"
)

// phonePattern accepts the formats people actually type: optional +,
// digits with spaces or dashes between groups.
var phonePattern = regexp.MustCompile(`^\+?[\d][\d\s-]{6,18}$`)

const welcomeMessage = "Welcome to LinkVault! Send me a link from Instagram, Twitter, YouTube or any article, and I'll file it into your collection.\n\nFirst, send the phone number you registered with on the web so I know who you are."

// Handler holds dependencies for the Telegram bot handlers.
type Handler struct {
	bot      *tgbot.Bot
	repo     storage.Repository
	pipeline *pipeline.Pipeline
	log      logrus.FieldLogger
}

// NewHandler creates a new bot handler instance.
func NewHandler(token string, repo storage.Repository, p *pipeline.Pipeline, logger logrus.FieldLogger) (*Handler, error) {
	log := logger.WithField("component", "bot_handler")

	b, err := tgbot.New(token)
	if err != nil {
		log.WithError(err).Error("Failed to create Telegram bot instance")
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	h := &Handler{
		bot:      b,
		repo:     repo,
		pipeline: p,
		log:      log,
	}

	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "/start", tgbot.MatchTypeExact, h.startHandler)
	h.bot.RegisterHandler(tgbot.HandlerTypeMessageText, "", tgbot.MatchTypeContains, h.defaultHandler)

	log.Info("Telegram bot handler initialized")
	return h, nil
}

// Start begins polling for updates from Telegram.
// This function blocks until the context is cancelled.
func (h *Handler) Start(ctx context.Context) {
	h.log.Info("Starting Telegram bot polling...")
	h.bot.Start(ctx)
	h.log.Info("Telegram bot polling stopped.")
}

// startHandler handles the /start command.
func (h *Handler) startHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	log := h.log.WithFields(logrus.Fields{
		"chat_id": update.Message.Chat.ID,
		"command": "/start",
	})
	log.Info("Received /start command")

	text := welcomeMessage
	if user, err := h.repo.GetUserByChatID(ctx, chatKey(update.Message.Chat.ID)); err == nil {
		text = fmt.Sprintf("Welcome back, %s! Send me a link and I'll file it for you.", user.Name)
	}
	h.reply(ctx, b, update.Message.Chat.ID, text)
}

func (h *Handler) defaultHandler(ctx context.Context, b *tgbot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	chatID := update.Message.Chat.ID
	log := h.log.WithField("chat_id", chatID)

	user, err := h.repo.GetUserByChatID(ctx, chatKey(chatID))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.handleUnlinkedChat(ctx, b, update, log)
			return
		}
		log.WithError(err).Error("Chat lookup failed")
		h.reply(ctx, b, chatID, "Something went wrong on our side. Please try again in a moment.")
		return
	}

	resp := h.pipeline.HandleMessage(ctx, user, chatKey(chatID), update.Message.Text)
	h.reply(ctx, b, chatID, resp.Text)
}

// handleUnlinkedChat treats the message as a phone number and tries to
// attach this chat to the matching account.
func (h *Handler) handleUnlinkedChat(ctx context.Context, b *tgbot.Bot, update *models.Update, log logrus.FieldLogger) {
	chatID := update.Message.Chat.ID
	text := update.Message.Text

	if !phonePattern.MatchString(text) {
		h.reply(ctx, b, chatID, "I don't know this chat yet. Send the phone number you registered with on the web to link your account.")
		return
	}

	user, err := h.repo.GetUserByPhone(ctx, normalizePhone(text))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			h.reply(ctx, b, chatID, "No account found for that number. Register on the web first, then send your number here again.")
			return
		}
		log.WithError(err).Error("Phone lookup failed")
		h.reply(ctx, b, chatID, "Something went wrong on our side. Please try again in a moment.")
		return
	}

	if err := h.repo.LinkChatID(ctx, user.ID, chatKey(chatID)); err != nil {
		log.WithError(err).Error("Failed to link chat to account")
		h.reply(ctx, b, chatID, "Something went wrong on our side. Please try again in a moment.")
		return
	}

	log.WithField("user_id", user.ID).Info("Chat linked to account")
	h.reply(ctx, b, chatID, fmt.Sprintf("Linked! Hi %s, send me a link and I'll file it for you.", user.Name))
}

func (h *Handler) reply(ctx context.Context, b *tgbot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		h.log.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func chatKey(chatID int64) string {
	return fmt.Sprintf("tg:%d", chatID)
}

func normalizePhone(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c == '+' {
			out = append(out, c)
		}
	}
	return string(out)
}
