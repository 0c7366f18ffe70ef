// Package telegram is the chat intake channel: citizens file complaints,
// follow them and check their points from a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"complaints/backend/internal/apperr"
	"complaints/backend/internal/complaint"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/localization"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/models"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// feedSize is how many complaints /feed lists.
const feedSize = 5

// Sender delivers replies. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Services are the domain services behind the bot.
type Services struct {
	Complaints    complaint.Service
	Gamification  gamification.Service
	Notifications notification.Service
}

// BotService turns chat commands into service calls.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Sender    Sender
	Services  Services
	Localizer *localization.Localizer
	log       *logrus.Entry
}

// NewBotService authorizes against the Bot API with token.
func NewBotService(token string, svcs Services, l *localization.Localizer, logger *logrus.Logger) (*BotService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false

	s := New(bot, svcs, l, logger)
	s.BotAPI = bot
	s.log.WithField("account", bot.Self.UserName).Info("Authorized on Telegram")
	return s, nil
}

// New builds a bot that replies through sender.
func New(sender Sender, svcs Services, l *localization.Localizer, logger *logrus.Logger) *BotService {
	return &BotService{
		Sender:    sender,
		Services:  svcs,
		Localizer: l,
		log:       logging.Component(logger, "telegram"),
	}
}

// Run polls the Bot API and handles updates until ctx ends.
func (s *BotService) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)
	defer s.BotAPI.StopReceivingUpdates()

	s.Serve(ctx, updates)
}

// Serve handles updates from the channel until it closes or ctx ends.
func (s *BotService) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			s.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate answers one update. Only commands are understood.
func (s *BotService) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	lang := msg.From.LanguageCode
	if !msg.IsCommand() {
		s.reply(msg.Chat.ID, s.Localizer.GetString(lang, "unknown_command"))
		return
	}

	user, err := s.Services.Gamification.RegisterUser(ctx, models.User{
		TelegramID: msg.From.ID,
		Name:       displayName(msg.From),
	})
	if err != nil {
		s.fail(msg.Chat.ID, lang, err)
		return
	}
	ctx = session.WithUserID(ctx, user.ID)

	var text string
	switch msg.Command() {
	case "start", "help":
		text = s.Localizer.Format(lang, "start", user.Name)
	case "new":
		text, err = s.handleNew(ctx, lang, msg.CommandArguments())
	case "status":
		text, err = s.handleStatus(ctx, lang, msg.CommandArguments())
	case "feed":
		text, err = s.handleFeed(ctx, lang)
	case "points":
		text, err = s.handlePoints(ctx, lang)
	case "inbox":
		text, err = s.handleInbox(ctx, lang)
	default:
		text = s.Localizer.GetString(lang, "unknown_command")
	}
	if err != nil {
		s.fail(msg.Chat.ID, lang, err)
		return
	}
	s.reply(msg.Chat.ID, text)
}

// handleNew files "Category | Location | text".
func (s *BotService) handleNew(ctx context.Context, lang, args string) (string, error) {
	parts := strings.SplitN(args, "|", 3)
	if len(parts) != 3 {
		return s.Localizer.GetString(lang, "new_usage"), nil
	}
	created, err := s.Services.Complaints.CreateComplaint(ctx, models.ComplaintFormData{
		Category: strings.TrimSpace(parts[0]),
		Location: strings.TrimSpace(parts[1]),
		Content:  strings.TrimSpace(parts[2]),
	})
	if err != nil {
		return "", err
	}
	return s.Localizer.Format(lang, "new_created", created.ID, created.Category, created.Location), nil
}

func (s *BotService) handleStatus(ctx context.Context, lang, args string) (string, error) {
	id := strings.TrimSpace(args)
	if id == "" {
		return s.Localizer.GetString(lang, "status_usage"), nil
	}
	c, err := s.Services.Complaints.GetComplaint(ctx, id)
	if err != nil {
		return "", err
	}
	return s.Localizer.Format(lang, "status_result", c.ID, c.Status, c.Likes, c.Comments), nil
}

func (s *BotService) handleFeed(ctx context.Context, lang string) (string, error) {
	list, err := s.Services.Complaints.GetComplaints(ctx, models.ComplaintFilters{Limit: feedSize})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return s.Localizer.GetString(lang, "feed_empty"), nil
	}
	var b strings.Builder
	b.WriteString(s.Localizer.GetString(lang, "feed_header"))
	for _, c := range list {
		fmt.Fprintf(&b, "\n• [%s] %s · %s: %s", c.ID, c.Category, c.Location, truncate(c.Content, 80))
	}
	return b.String(), nil
}

func (s *BotService) handlePoints(ctx context.Context, lang string) (string, error) {
	stats, err := s.Services.Gamification.GetUserStats(ctx)
	if err != nil {
		return "", err
	}
	return s.Localizer.Format(lang, "points_result", stats.TransparencyPoints, stats.Level, stats.Rank, stats.NextLevelPoints), nil
}

func (s *BotService) handleInbox(ctx context.Context, lang string) (string, error) {
	list, err := s.Services.Notifications.GetNotifications(ctx)
	if err != nil {
		return "", err
	}
	var unread []models.Notification
	for _, n := range list {
		if !n.Read {
			unread = append(unread, n)
		}
	}
	if len(unread) == 0 {
		return s.Localizer.GetString(lang, "inbox_empty"), nil
	}
	var b strings.Builder
	b.WriteString(s.Localizer.Format(lang, "inbox_header", len(unread)))
	for _, n := range unread {
		fmt.Fprintf(&b, "\n• %s: %s", n.Title, n.Message)
	}
	return b.String(), nil
}

func (s *BotService) fail(chatID int64, lang string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		s.reply(chatID, s.Localizer.GetString(lang, "not_found"))
	case errors.Is(err, apperr.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), apperr.ErrValidation.Error()+": ")
		s.reply(chatID, s.Localizer.Format(lang, "invalid", msg))
	default:
		s.log.WithError(err).WithField("chat_id", chatID).Error("Failed to handle command")
		s.reply(chatID, s.Localizer.GetString(lang, "error"))
	}
}

func (s *BotService) reply(chatID int64, text string) {
	if _, err := s.Sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		s.log.WithError(err).WithField("chat_id", chatID).Warn("Failed to send reply")
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = "Telegram " + strconv.FormatInt(u.ID, 10)
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
