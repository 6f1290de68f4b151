package telegram

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v3"
)

func TestTelegramUserOmitsEmptyFields(t *testing.T) {
	tg := telegramUser(&tele.User{ID: 5, FirstName: "Kim", Username: "kim"})
	assert.Equal(t, int64(5), tg.ID)
	assert.Nil(t, tg.LastName)
	assert.Nil(t, tg.LanguageCode)
	if assert.NotNil(t, tg.Username) {
		assert.Equal(t, "kim", *tg.Username)
	}
}

func TestStartText(t *testing.T) {
	inviter := uuid.New()
	user := &model.UserWithBalance{
		User:    model.User{FirstName: "<Kim>", Level: 1, ReferredBy: &inviter},
		Balance: &model.Balance{Points: 1500},
	}

	text := startText(user, true)
	assert.Contains(t, text, "&lt;Kim&gt;")
	assert.Contains(t, text, "A friend invited you")

	text = startText(user, false)
	assert.Contains(t, text, "Welcome back")
	assert.Contains(t, text, "Points: <b>1500</b>")
}

func TestNotificationText(t *testing.T) {
	n := model.Notification{Title: "Withdrawal approved", Message: "10 USDT & counting"}
	assert.Equal(t, "<b>Withdrawal approved</b>\n\n10 USDT &amp; counting", notificationText(n))
	assert.Equal(t, "plain", notificationText(model.Notification{Message: "plain"}))
}

func TestReferralTextFallsBackToCode(t *testing.T) {
	text := referralText(&service.ReferralInfo{Code: "abcd1234", Stats: model.ReferralStats{TotalReferrals: 2, PointsEarned: 2000}})
	assert.Contains(t, text, "<code>abcd1234</code>")
	assert.Contains(t, text, "Invited: 2")
}

func TestDeliverSkipsUnknownChat(t *testing.T) {
	b := &Bot{}
	assert.NoError(t, b.Deliver(context.Background(), model.Notification{Message: "hi"}))
}
