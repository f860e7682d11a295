package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-credential-broker/internal/application"
	"telegram-credential-broker/internal/config"
	"telegram-credential-broker/internal/domain"
	"telegram-credential-broker/internal/domain/model"
	"telegram-credential-broker/internal/domain/ports/repository"
	"telegram-credential-broker/internal/infra/redis"
)

// Bot is the Telegram transport. It polls updates with a small worker pool,
// rate-limits per user, and forwards everything to the core facade. The
// purchase flow is two steps (pick plan, then coupon or skip) with the
// intermediate state held in Redis.
type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.BotConfig
	core     *application.Core
	states   repository.StateRepository
	limiter  *redis.RateLimiter
	admins   map[int64]struct{}
	workers  int
	log      *zerolog.Logger
	cancelFn context.CancelFunc
}

func NewBot(cfg *config.BotConfig, core *application.Core, states repository.StateRepository, limiter *redis.RateLimiter, workers int, logger *zerolog.Logger) (*Bot, error) {
	if cfg == nil || core == nil {
		return nil, errors.New("bot config and core are required")
	}
	if workers <= 0 {
		workers = 5
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, err
	}
	admins := make(map[int64]struct{}, len(cfg.AdminIDs))
	for _, id := range cfg.AdminIDs {
		admins[id] = struct{}{}
	}
	l := logger.With().Str("component", "telegram").Logger()
	return &Bot{
		api:     api,
		cfg:     cfg,
		core:    core,
		states:  states,
		limiter: limiter,
		admins:  admins,
		workers: workers,
		log:     &l,
	}, nil
}

// StartPolling runs until ctx is cancelled.
func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	ctx, cancel := context.WithCancel(ctx)
	b.cancelFn = cancel

	var wg sync.WaitGroup
	queue := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case update, ok := <-queue:
					if !ok {
						return
					}
					if err := b.handleUpdate(ctx, update); err != nil {
						b.log.Error().Err(err).Msg("update failed")
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(queue)
		for {
			select {
			case update := <-updates:
				select {
				case queue <- update:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	<-ctx.Done()
	b.api.StopReceivingUpdates()
	wg.Wait()
	return ctx.Err()
}

func (b *Bot) StopPolling() {
	if b.cancelFn != nil {
		b.cancelFn()
	}
}

func (b *Bot) send(tgID int64, text string) {
	msg := tgbotapi.NewMessage(tgID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("tg_id", tgID).Msg("send failed")
	}
}

func (b *Bot) isAdmin(tgID int64) bool {
	_, ok := b.admins[tgID]
	return ok
}

func (b *Bot) allowed(ctx context.Context, tgID int64, command string) bool {
	if b.limiter == nil {
		return true
	}
	key := redis.UserCommandKey(tgID, command)
	ok, err := b.limiter.Allow(ctx, key, b.cfg.RateLimit, b.cfg.RateLimitWindow)
	if err != nil {
		// Redis being down should not lock users out.
		b.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	return ok
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.Message == nil || update.Message.From == nil {
		return nil
	}
	msg := update.Message
	tgID := msg.From.ID

	if !b.allowed(ctx, tgID, "any") {
		b.send(tgID, "Too many requests, slow down a little.")
		return nil
	}

	if msg.IsCommand() {
		return b.handleCommand(ctx, msg)
	}
	return b.handleText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		return b.cmdStart(ctx, msg, args)
	case "plans":
		return b.cmdPlans(ctx, tgID)
	case "buy":
		return b.cmdBuy(ctx, msg, args)
	case "status":
		return b.cmdStatus(ctx, msg)
	case "cancel":
		return b.cmdCancel(ctx, msg, args)
	case "referral":
		return b.cmdReferral(ctx, msg)
	case "help":
		b.send(tgID, helpText(b.isAdmin(tgID)))
		return nil

	case "pending":
		return b.adminOnly(tgID, func() error { return b.cmdPending(ctx, tgID) })
	case "approve":
		return b.adminOnly(tgID, func() error { return b.cmdApprove(ctx, tgID, args) })
	case "reject":
		return b.adminOnly(tgID, func() error { return b.cmdReject(ctx, tgID, args) })
	case "pool":
		return b.adminOnly(tgID, func() error { return b.cmdPool(ctx, tgID) })
	case "stats":
		return b.adminOnly(tgID, func() error { return b.cmdStats(ctx, tgID) })

	default:
		b.send(tgID, "Unknown command. Send /help for the list of commands.")
		return nil
	}
}

func (b *Bot) adminOnly(tgID int64, fn func() error) error {
	if !b.isAdmin(tgID) {
		b.send(tgID, "You are not authorized to use this command.")
		return nil
	}
	return fn()
}

// ---- user commands ----

func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	tgID := msg.From.ID

	// /start ref_<tg_id> comes from a referral deep link.
	var referrerTgID int64
	if len(args) > 0 && strings.HasPrefix(args[0], "ref_") {
		if id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "ref_"), 10, 64); err == nil {
			referrerTgID = id
		}
	}

	user, err := b.core.RegisterOrFetch(ctx, tgID, msg.From.UserName, msg.From.FirstName, referrerTgID)
	if err != nil {
		b.send(tgID, "Registration failed, please try again later.")
		return err
	}

	greeting := fmt.Sprintf("Hello %s!\nUse /plans to see what's available and /buy <plan> to purchase.", msg.From.FirstName)
	if user.ReferredBy != "" && !user.FirstBuyDone {
		greeting += "\nYou joined via a referral link; a discount applies to your purchases after the first one."
	}
	b.send(tgID, greeting)
	return nil
}

func (b *Bot) cmdPlans(ctx context.Context, tgID int64) error {
	if len(b.core.Catalog) == 0 {
		b.send(tgID, "No plans available right now.")
		return nil
	}
	var sb strings.Builder
	sb.WriteString("Available plans:\n")
	for _, p := range b.core.Catalog {
		sb.WriteString(fmt.Sprintf("- %s (id: %s): %d days, %s", p.Name, p.ID, p.DurationDays, formatMoney(p.RegularPrice)))
		if p.FirstBuyPrice > 0 {
			sb.WriteString(fmt.Sprintf(" (%s for your first purchase)", formatMoney(p.FirstBuyPrice)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nBuy with: /buy <plan_id>")
	b.send(tgID, sb.String())
	return nil
}

func (b *Bot) cmdBuy(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	tgID := msg.From.ID
	if len(args) != 1 {
		b.send(tgID, "Usage: /buy <plan_id>")
		return nil
	}
	planID := args[0]
	if _, ok := b.core.Catalog.Get(planID); !ok {
		b.send(tgID, "Unknown plan. Send /plans to see the list.")
		return nil
	}

	user, err := b.core.UserByTelegramID(ctx, tgID)
	if err != nil {
		b.send(tgID, "Please /start first.")
		return nil
	}

	quote, err := b.core.QuotePurchase(ctx, user, planID, "")
	if err != nil {
		b.send(tgID, userFacing(err))
		return nil
	}

	if b.states != nil {
		state := &repository.ConversationState{Step: repository.StepAwaitingCoupon, PlanID: planID}
		if err := b.states.SetState(ctx, tgID, state); err != nil {
			b.log.Error().Err(err).Msg("set state failed")
		} else {
			b.send(tgID, fmt.Sprintf("Price: %s.\nSend a coupon code now, or reply \"skip\" to continue without one.", formatMoney(quote.Amount)))
			return nil
		}
	}

	// No state storage available; buy without a coupon.
	return b.createPayment(ctx, tgID, user.ID, planID, "")
}

// handleText continues the purchase flow when the user owes us a coupon code.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	if b.states == nil {
		b.send(tgID, "Send /help for the list of commands.")
		return nil
	}
	state, err := b.states.GetState(ctx, tgID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			b.send(tgID, "Send /help for the list of commands.")
			return nil
		}
		return err
	}
	if state.Step != repository.StepAwaitingCoupon {
		b.send(tgID, "Send /help for the list of commands.")
		return nil
	}

	user, err := b.core.UserByTelegramID(ctx, tgID)
	if err != nil {
		return err
	}

	code := strings.TrimSpace(msg.Text)
	if strings.EqualFold(code, "skip") {
		code = ""
	}
	if err := b.states.ClearState(ctx, tgID); err != nil {
		b.log.Error().Err(err).Msg("clear state failed")
	}
	return b.createPayment(ctx, tgID, user.ID, state.PlanID, code)
}

func (b *Bot) createPayment(ctx context.Context, tgID int64, userID, planID, couponCode string) error {
	payment, err := b.core.CreatePayment(ctx, userID, planID, couponCode)
	if err != nil {
		b.send(tgID, userFacing(err))
		return nil
	}
	b.send(tgID, fmt.Sprintf(
		"Payment %s created: %s for plan %s.\nTransfer the amount and an admin will confirm it. Unconfirmed payments expire automatically.",
		payment.ID, formatMoney(payment.Amount), planID))
	b.notifyAdmins(fmt.Sprintf("New pending payment %s: plan %s, %s. /approve %s or /reject %s <reason>",
		payment.ID, planID, formatMoney(payment.Amount), payment.ID, payment.ID))
	return nil
}

func (b *Bot) cmdStatus(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	user, err := b.core.UserByTelegramID(ctx, tgID)
	if err != nil {
		b.send(tgID, "Please /start first.")
		return nil
	}
	views, err := b.core.SubscriptionStatus(ctx, user.ID)
	if err != nil {
		b.send(tgID, "Could not load your subscriptions, try again later.")
		return err
	}
	if len(views) == 0 {
		b.send(tgID, "You have no subscriptions yet. Send /plans to get started.")
		return nil
	}
	var sb strings.Builder
	for _, v := range views {
		s := v.Subscription
		sb.WriteString(fmt.Sprintf("Plan %s: %s", s.PlanID, s.Status))
		if s.IsActive() && s.ExpiresAt != nil {
			sb.WriteString(fmt.Sprintf(", expires %s", s.ExpiresAt.Format("2006-01-02")))
		}
		sb.WriteString("\n")
		if v.Credential != nil {
			sb.WriteString(fmt.Sprintf("  login: %s\n  password: %s\n", v.Credential.Username, v.Credential.Password))
		}
	}
	b.send(tgID, sb.String())
	return nil
}

func (b *Bot) cmdCancel(ctx context.Context, msg *tgbotapi.Message, args []string) error {
	tgID := msg.From.ID
	if len(args) != 1 {
		b.send(tgID, "Usage: /cancel <plan_id>")
		return nil
	}
	user, err := b.core.UserByTelegramID(ctx, tgID)
	if err != nil {
		b.send(tgID, "Please /start first.")
		return nil
	}
	if _, err := b.core.CancelSubscription(ctx, user.ID, args[0]); err != nil {
		b.send(tgID, userFacing(err))
		return nil
	}
	b.send(tgID, "Subscription cancelled.")
	return nil
}

func (b *Bot) cmdReferral(ctx context.Context, msg *tgbotapi.Message) error {
	tgID := msg.From.ID
	user, err := b.core.UserByTelegramID(ctx, tgID)
	if err != nil {
		b.send(tgID, "Please /start first.")
		return nil
	}
	balance, err := b.core.ReferralBalance(ctx, user.ID)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("https://t.me/%s?start=ref_%d", b.cfg.Username, tgID)
	b.send(tgID, fmt.Sprintf(
		"Your referral link:\n%s\n\nSuccessful referrals: %d\nCredit earned: %s",
		link, user.SuccessfulReferrals, formatMoney(balance)))
	return nil
}

// ---- admin commands ----

func (b *Bot) cmdPending(ctx context.Context, tgID int64) error {
	pending, err := b.core.PendingPayments(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		b.send(tgID, "No pending payments.")
		return nil
	}
	var sb strings.Builder
	sb.WriteString("Pending payments:\n")
	for _, p := range pending {
		sb.WriteString(fmt.Sprintf("- %s: plan %s, %s, created %s\n",
			p.ID, p.PlanID, formatMoney(p.Amount), p.CreatedAt.Format("15:04:05")))
	}
	b.send(tgID, sb.String())
	return nil
}

func (b *Bot) cmdApprove(ctx context.Context, tgID int64, args []string) error {
	if len(args) != 1 {
		b.send(tgID, "Usage: /approve <payment_id>")
		return nil
	}
	res, err := b.core.ApprovePayment(ctx, args[0])
	if err != nil {
		b.send(tgID, userFacing(err))
		return nil
	}
	b.send(tgID, fmt.Sprintf("Approved. Credential %s assigned.", res.Credential.ID))

	b.notifyUser(ctx, res.Payment.UserID, fmt.Sprintf(
		"Payment confirmed! Your %s login:\n%s\n%s\nValid until %s.",
		res.Subscription.PlanID, res.Credential.Username, res.Credential.Password,
		res.Subscription.ExpiresAt.Format("2006-01-02")))
	if res.FreeMonthReferrer != nil {
		b.send(res.FreeMonthReferrer.TelegramID,
			"Thanks for spreading the word! Your referrals earned you a free month on your active subscriptions.")
	}
	return nil
}

func (b *Bot) cmdReject(ctx context.Context, tgID int64, args []string) error {
	if len(args) < 1 {
		b.send(tgID, "Usage: /reject <payment_id> [reason]")
		return nil
	}
	reason := "rejected by admin"
	if len(args) > 1 {
		reason = strings.Join(args[1:], " ")
	}
	payment, err := b.core.RejectPayment(ctx, args[0], reason)
	if err != nil {
		b.send(tgID, userFacing(err))
		return nil
	}
	b.send(tgID, "Rejected.")
	b.notifyUser(ctx, payment.UserID, fmt.Sprintf("Your payment %s was rejected: %s", payment.ID, reason))
	return nil
}

func (b *Bot) cmdPool(ctx context.Context, tgID int64) error {
	counts, err := b.core.PoolCounts(ctx)
	if err != nil {
		return err
	}
	var sb strings.Builder
	sb.WriteString("Available credentials:\n")
	for plan, n := range counts {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", plan, n))
	}
	b.send(tgID, sb.String())
	return nil
}

func (b *Bot) cmdStats(ctx context.Context, tgID int64) error {
	stats, err := b.core.Stats(ctx)
	if err != nil {
		return err
	}
	b.send(tgID, fmt.Sprintf(
		"Users: %d (%d banned)\nActive subscriptions: %d\nPending payments: %d",
		stats.Users, stats.BannedUsers, stats.ActiveSubscriptions, stats.PendingPayments))
	return nil
}

// ---- notifications ----

func (b *Bot) notifyAdmins(text string) {
	for id := range b.admins {
		b.send(id, text)
	}
}

func (b *Bot) notifyUser(ctx context.Context, userID, text string) {
	user, err := b.core.UserUC.Find(ctx, userID)
	if err != nil {
		b.log.Error().Err(err).Str("user_id", userID).Msg("notify lookup failed")
		return
	}
	b.send(user.TelegramID, text)
}

// NotifySubscriptionExpired implements sched.Notifier.
func (b *Bot) NotifySubscriptionExpired(ctx context.Context, sub *model.Subscription) {
	b.notifyUser(ctx, sub.UserID, fmt.Sprintf(
		"Your %s subscription has expired and the login was revoked. Send /plans to renew.", sub.PlanID))
}

func (b *Bot) NotifySubscriptionExpiring(ctx context.Context, sub *model.Subscription) {
	if sub.ExpiresAt == nil {
		return
	}
	b.notifyUser(ctx, sub.UserID, fmt.Sprintf(
		"Your %s subscription expires on %s. Renew with /buy %s to keep access.",
		sub.PlanID, sub.ExpiresAt.Format("2006-01-02"), sub.PlanID))
}

func (b *Bot) NotifyPaymentReaped(ctx context.Context, p *model.Payment) {
	b.notifyUser(ctx, p.UserID, fmt.Sprintf(
		"Your payment %s expired without confirmation. Start over with /buy %s if you still want the plan.",
		p.ID, p.PlanID))
}

func (b *Bot) NotifyAdminsLowAvailability(ctx context.Context, counts map[string]int) {
	var sb strings.Builder
	sb.WriteString("Credential pool running low:\n")
	for plan, n := range counts {
		sb.WriteString(fmt.Sprintf("- %s: %d\n", plan, n))
	}
	b.notifyAdmins(sb.String())
}

// ---- helpers ----

func helpText(admin bool) string {
	var sb strings.Builder
	sb.WriteString("Commands:\n/plans\n/buy <plan_id>\n/status\n/cancel <plan_id>\n/referral\n")
	if admin {
		sb.WriteString("\nAdmin:\n/pending\n/approve <payment_id>\n/reject <payment_id> [reason]\n/pool\n/stats\n")
	}
	return sb.String()
}

func formatMoney(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

// userFacing turns domain sentinels into messages fit for the chat.
func userFacing(err error) string {
	switch {
	case errors.Is(err, domain.ErrPoolExhausted):
		return "No logins are available for this plan right now. Try again later."
	case errors.Is(err, domain.ErrPendingPayment):
		return "You already have a payment awaiting confirmation."
	case errors.Is(err, domain.ErrSalesSuspended):
		return "Sales are temporarily suspended. Check back soon."
	case errors.Is(err, domain.ErrUserBanned):
		return "Your account is blocked. Contact support."
	case errors.Is(err, domain.ErrInvalidCoupon):
		return "That coupon code is not valid for this purchase."
	case errors.Is(err, domain.ErrCouponExpired):
		return "That coupon has expired."
	case errors.Is(err, domain.ErrCouponLimitReached):
		return "That coupon has reached its usage limit."
	case errors.Is(err, domain.ErrBelowMinPurchase):
		return "The purchase amount is below the coupon's minimum."
	case errors.Is(err, domain.ErrNotFound):
		return "Not found."
	case errors.Is(err, domain.ErrInvalidTransition):
		return "That payment was already settled."
	case errors.Is(err, domain.ErrBusy):
		return "The system is busy, try again in a moment."
	default:
		return "Something went wrong, try again later."
	}
}
