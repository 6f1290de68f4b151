package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/service"
	"github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"
)

type Services struct {
	Users     *service.UserService
	Daily     *service.DailyService
	Referrals *service.ReferralService
}

type Bot struct {
	bot       *tele.Bot
	webAppURL string
	svc       Services
	log       *logrus.Logger
}

func NewBot(token, webAppURL string, svc Services, log *logrus.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 60 * time.Second},
		OnError: func(err error, c tele.Context) {
			entry := log.WithError(err)
			if c != nil && c.Sender() != nil {
				entry = entry.WithField("telegram_id", c.Sender().ID)
			}
			entry.Error("bot handler failed")
		},
	}

	bot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:       bot,
		webAppURL: webAppURL,
		svc:       svc,
		log:       log,
	}

	b.registerHandlers()

	return b, nil
}

func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/balance", b.handleBalance)
	b.bot.Handle("/daily", b.handleDaily)
	b.bot.Handle("/referral", b.handleReferral)
	b.bot.Handle("/help", b.handleHelp)

	b.bot.Handle(tele.OnCallback, b.handleCallback)
}

// StartPolling blocks until ctx is cancelled.
func (b *Bot) StartPolling(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.bot.Stop()
	}()
	b.bot.Start()
}

func (b *Bot) GetBotUsername() string {
	return b.bot.Me.Username
}

func telegramUser(u *tele.User) service.TelegramUser {
	tg := service.TelegramUser{ID: u.ID, FirstName: u.FirstName}
	if u.LastName != "" {
		tg.LastName = &u.LastName
	}
	if u.Username != "" {
		tg.Username = &u.Username
	}
	if u.LanguageCode != "" {
		tg.LanguageCode = &u.LanguageCode
	}
	return tg
}

func (b *Bot) webAppKeyboard(label string) *tele.ReplyMarkup {
	keyboard := &tele.ReplyMarkup{}
	rows := []tele.Row{}
	if b.webAppURL != "" {
		rows = append(rows, keyboard.Row(keyboard.WebApp(label, &tele.WebApp{URL: b.webAppURL})))
	}
	rows = append(rows, keyboard.Row(
		keyboard.Data("💰 Balance", "balance"),
		keyboard.Data("📅 Daily reward", "daily"),
	))
	rows = append(rows, keyboard.Row(keyboard.Data("👥 Invite friends", "referral")))
	keyboard.Inline(rows...)
	return keyboard
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx := context.Background()
	user, created, err := b.svc.Users.InitUser(ctx, telegramUser(c.Sender()), c.Message().Payload)
	if err != nil {
		return err
	}

	return c.Send(startText(user, created), b.webAppKeyboard("🚀 Open app"), tele.ModeHTML)
}

// account resolves the sender to a user, creating the account when the first
// contact is a command other than /start.
func (b *Bot) account(c tele.Context) (*model.UserWithBalance, error) {
	user, _, err := b.svc.Users.InitUser(context.Background(), telegramUser(c.Sender()), "")
	return user, err
}

func (b *Bot) handleBalance(c tele.Context) error {
	user, err := b.account(c)
	if err != nil {
		return err
	}
	return c.Send(balanceText(user), b.webAppKeyboard("🚀 Open app"), tele.ModeHTML)
}

func (b *Bot) handleDaily(c tele.Context) error {
	user, err := b.account(c)
	if err != nil {
		return err
	}

	reward, err := b.svc.Daily.Claim(context.Background(), user.ID)
	if err != nil {
		var e *service.Error
		if errors.As(err, &e) {
			return c.Send("⏳ " + html.EscapeString(e.Message))
		}
		return err
	}

	return c.Send(dailyText(reward), tele.ModeHTML)
}

func (b *Bot) handleReferral(c tele.Context) error {
	user, err := b.account(c)
	if err != nil {
		return err
	}

	info, err := b.svc.Referrals.GetReferralInfo(context.Background(), user.ID)
	if err != nil {
		return err
	}

	return c.Send(referralText(info), tele.ModeHTML)
}

func (b *Bot) handleHelp(c tele.Context) error {
	text := `📖 <b>How it works</b>

Earn points by completing tasks, claiming the daily reward, spinning the wheel and watching ads.
Invite friends to earn more and convert your points to USDT, TON or Telegram Stars.

<b>Commands:</b>
/start — Main menu
/balance — Your balance
/daily — Claim the daily reward
/referral — Your invite link
/help — This message`

	return c.Send(text, b.webAppKeyboard("🚀 Open app"), tele.ModeHTML)
}

func (b *Bot) handleCallback(c tele.Context) error {
	data := c.Callback().Data
	defer c.Respond()

	// telebot prefixes callback data with \f
	switch strings.TrimPrefix(data, "\f") {
	case "balance":
		return b.handleBalance(c)
	case "daily":
		return b.handleDaily(c)
	case "referral":
		return b.handleReferral(c)
	default:
		b.log.WithField("data", data).Debug("unknown callback")
	}
	return nil
}

// Name and Deliver make the bot a notification sink.
func (b *Bot) Name() string { return "telegram" }

func (b *Bot) Deliver(_ context.Context, n model.Notification) error {
	if n.TelegramID == 0 {
		return nil
	}
	_, err := b.bot.Send(&tele.User{ID: n.TelegramID}, notificationText(n), tele.ModeHTML)
	return err
}

func startText(user *model.UserWithBalance, created bool) string {
	name := html.EscapeString(user.FirstName)
	if !created {
		return fmt.Sprintf("Welcome back, %s! 👋\n\n%s", name, balanceText(user))
	}

	text := fmt.Sprintf(`Hi, %s! 👋

⭐ <b>Star Rewards Hub</b>

Complete tasks, spin the wheel and claim daily rewards to earn points.
Your welcome bonus is already on your balance.`, name)
	if user.ReferredBy != nil {
		text += "\n\n🎁 A friend invited you, so you got an extra referral bonus!"
	}
	return text
}

func balanceText(user *model.UserWithBalance) string {
	var points, stars int64
	if user.Balance != nil {
		points = user.Balance.Points
		stars = user.Balance.StarsBalance
	}
	return fmt.Sprintf(`💰 <b>Balance</b>

Points: <b>%d</b>
Stars: <b>%d</b>
Level: %d`, points, stars, user.Level)
}

func dailyText(r *service.DailyReward) string {
	return fmt.Sprintf("📅 Daily reward claimed: <b>+%d</b> points\n🔥 Streak: %d day(s)", r.Points, r.Streak)
}

func referralText(info *service.ReferralInfo) string {
	link := info.Link
	if link == "" {
		link = info.Code
	}
	return fmt.Sprintf(`👥 <b>Invite friends</b>

Invited: %d
Points earned: %d

🔗 <b>Your link:</b>
<code>%s</code>`, info.Stats.TotalReferrals, info.Stats.PointsEarned, html.EscapeString(link))
}

func notificationText(n model.Notification) string {
	if n.Title == "" {
		return html.EscapeString(n.Message)
	}
	return "<b>" + html.EscapeString(n.Title) + "</b>\n\n" + html.EscapeString(n.Message)
}
