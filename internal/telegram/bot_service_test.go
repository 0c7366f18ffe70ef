package telegram_test

import (
	"context"
	"strings"
	"testing"

	"complaints/backend/internal/complaint"
	"complaints/backend/internal/gamification"
	"complaints/backend/internal/localization"
	"complaints/backend/internal/logging"
	"complaints/backend/internal/notification"
	"complaints/backend/internal/storage/storagetest"
	"complaints/backend/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

// replies returns the text of every message sent so far.
func (m *MockSender) replies() []string {
	var out []string
	for _, call := range m.Calls {
		if msg, ok := call.Arguments.Get(0).(tgbotapi.MessageConfig); ok {
			out = append(out, msg.Text)
		}
	}
	return out
}

func newBot(t *testing.T) (*telegram.BotService, *MockSender) {
	t.Helper()
	store := storagetest.New(t)
	logger := logging.Discard()

	l, err := localization.NewDefault()
	require.NoError(t, err)

	sender := new(MockSender)
	sender.On("Send", mock.Anything).Return(nil)

	bot := telegram.New(sender, telegram.Services{
		Complaints:    complaint.NewLocal(store, nil, logger),
		Gamification:  gamification.NewLocal(store, nil, logger),
		Notifications: notification.NewLocal(store, nil, logger),
	}, l, logger)
	return bot, sender
}

func command(text string) tgbotapi.Update {
	cmd := strings.SplitN(text, " ", 2)[0]
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: len(cmd)},
			},
			From: &tgbotapi.User{ID: 12345, FirstName: "Lucía", LanguageCode: "es"},
			Chat: tgbotapi.Chat{ID: 12345},
		},
	}
}

func TestBot_Start(t *testing.T) {
	bot, sender := newBot(t)

	bot.HandleUpdate(context.Background(), command("/start"))

	replies := sender.replies()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "¡Hola, Lucía!")
}

func TestBot_NewComplaintAndStatus(t *testing.T) {
	bot, sender := newBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, command("/new Salud | Sur, Ciudad | La clínica del barrio cierra a las 14h"))
	replies := sender.replies()
	require.Len(t, replies, 1)
	assert.Contains(t, replies[0], "registrada en Salud (Sur, Ciudad)")

	bot.HandleUpdate(ctx, command("/points"))
	replies = sender.replies()
	require.Len(t, replies, 2)
	assert.Contains(t, replies[1], "Nivel 1")

	bot.HandleUpdate(ctx, command("/status 2"))
	replies = sender.replies()
	require.Len(t, replies, 3)
	assert.Equal(t, "Queja 2: in-progress (18 apoyos, 0 comentarios)", replies[2])
}

func TestBot_UsageAndErrors(t *testing.T) {
	bot, sender := newBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, command("/new solo texto"))
	bot.HandleUpdate(ctx, command("/status"))
	bot.HandleUpdate(ctx, command("/status 999"))
	bot.HandleUpdate(ctx, command("/new Inventada | Centro | algo"))
	bot.HandleUpdate(ctx, command("/bogus"))

	replies := sender.replies()
	require.Len(t, replies, 5)
	assert.Equal(t, "Formato: /new Categoría | Ubicación | texto", replies[0])
	assert.Equal(t, "Formato: /status <id>", replies[1])
	assert.Equal(t, "No encontré esa queja.", replies[2])
	assert.True(t, strings.HasPrefix(replies[3], "No se pudo procesar: "), replies[3])
	assert.Contains(t, replies[4], "/start")
}

func TestBot_FeedAndInbox(t *testing.T) {
	bot, sender := newBot(t)
	ctx := context.Background()

	bot.HandleUpdate(ctx, command("/feed"))
	bot.HandleUpdate(ctx, command("/inbox"))

	replies := sender.replies()
	require.Len(t, replies, 2)
	assert.True(t, strings.HasPrefix(replies[0], "Últimas quejas:"))
	assert.Contains(t, replies[0], "[1] Transporte")
	assert.True(t, strings.HasPrefix(replies[1], "Notificaciones sin leer (2):"))
}

func TestBot_EnglishReplies(t *testing.T) {
	bot, sender := newBot(t)

	update := command("/feed")
	update.Message.From.LanguageCode = "en"
	bot.HandleUpdate(context.Background(), update)

	replies := sender.replies()
	require.Len(t, replies, 1)
	assert.True(t, strings.HasPrefix(replies[0], "Latest complaints:"))
}

func TestBot_ServeStopsWhenChannelCloses(t *testing.T) {
	bot, sender := newBot(t)

	updates := make(chan tgbotapi.Update, 2)
	updates <- command("/start")
	updates <- tgbotapi.Update{}
	close(updates)

	bot.Serve(context.Background(), updates)
	assert.Len(t, sender.replies(), 1)
}
