package services

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"sync"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/PrayerWall/models"
	"github.com/PrayerWall/store"
)

// Prayed-for counts that earn the requester an email.
var prayedForMilestones = map[int]bool{1: true, 10: true, 25: true, 50: true, 100: true}

const (
	// One push per prayer per pushInterval; bursts of prayers fold into it.
	pushInterval = time.Minute
	sendTimeout  = 30 * time.Second
)

// PushSender is satisfied by *messaging.Client.
type PushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// EmailSender is satisfied by resend's EmailsSvc.
type EmailSender interface {
	Send(params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type NotificationPayload struct {
	Title string
	Body  string
	Data  map[string]string
}

// NotificationService tells requesters that someone prayed for them, by push
// and, at milestones, by email. Delivery is best effort: failures are logged.
type NotificationService struct {
	store     store.DocumentStore
	push      PushSender
	email     EmailSender
	emailFrom string
	log       *zap.Logger

	now func() time.Time

	mu        sync.Mutex
	limiters  map[string]*pushLimiter
	lastSweep time.Time
	closed    bool
	wg        sync.WaitGroup
}

type pushLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewNotificationService accepts nil senders; the matching channel is then
// skipped.
func NewNotificationService(s store.DocumentStore, push PushSender, email EmailSender, emailFrom string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:     s,
		push:      push,
		email:     email,
		emailFrom: emailFrom,
		log:       logger.Named("notifications"),
		now:       time.Now,
		limiters:  make(map[string]*pushLimiter),
	}
}

// PrayedFor implements PrayedForNotifier. It returns immediately.
func (n *NotificationService) PrayedFor(prayer models.Prayer, actor models.Session, count int) {
	if prayer.Requester_ID == actor.UserID() {
		return
	}

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.log.Warn("notification dropped during shutdown", zap.String("prayer_id", prayer.Prayer_ID))
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		if n.allowPush(prayer.Prayer_ID) {
			n.sendPrayedForPush(ctx, prayer, actor, count)
		}
		if prayedForMilestones[count] {
			n.sendMilestoneEmail(ctx, prayer, count)
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (n *NotificationService) Wait() {
	n.wg.Wait()
}

// Shutdown stops accepting new deliveries and waits for in-flight ones.
func (n *NotificationService) Shutdown() {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()
	n.wg.Wait()
}

// allowPush throttles per prayer. A limiter idle for a full pushInterval has
// refilled, so dropping it changes nothing and keeps the map bounded by the
// prayers active in the last interval.
func (n *NotificationService) allowPush(prayerID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if now.Sub(n.lastSweep) >= pushInterval {
		for id, entry := range n.limiters {
			if now.Sub(entry.lastSeen) >= pushInterval {
				delete(n.limiters, id)
			}
		}
		n.lastSweep = now
	}

	entry, exists := n.limiters[prayerID]
	if !exists {
		entry = &pushLimiter{limiter: rate.NewLimiter(rate.Every(pushInterval), 1)}
		n.limiters[prayerID] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

func (n *NotificationService) sendPrayedForPush(ctx context.Context, prayer models.Prayer, actor models.Session, count int) {
	if n.push == nil {
		return
	}

	tokens, err := n.store.ListPushTokens(ctx, prayer.Requester_ID)
	if err != nil {
		n.log.Error("list push tokens", zap.String("user_id", prayer.Requester_ID), zap.Error(err))
		return
	}
	if len(tokens) == 0 {
		return
	}

	who := actor.Identity.DisplayName
	if who == "" {
		who = "Someone"
	}
	payload := NotificationPayload{
		Title: "Someone is praying for you",
		Body:  fmt.Sprintf("%s prayed for your request. %s so far.", who, prayedForTimes(count)),
		Data: map[string]string{
			"type":           "PRAYED_FOR",
			"prayerId":       prayer.Prayer_ID,
			"prayedForCount": strconv.Itoa(count),
		},
	}

	for _, token := range tokens {
		id, err := n.push.Send(ctx, buildPushMessage(token, payload))
		if err != nil {
			n.log.Warn("push send failed", zap.String("user_id", prayer.Requester_ID), zap.String("platform", token.Platform), zap.Error(err))
			continue
		}
		n.log.Debug("push sent", zap.String("message_id", id))
	}
}

func prayedForTimes(count int) string {
	if count == 1 {
		return "1 prayer"
	}
	return fmt.Sprintf("%d prayers", count)
}

func buildPushMessage(token models.PushToken, payload NotificationPayload) *messaging.Message {
	message := &messaging.Message{
		Token: token.PushToken,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	switch token.Platform {
	case "ios":
		message.APNS = &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: payload.Title, Body: payload.Body},
					Sound: "default",
				},
			},
		}
	case "android":
		message.Android = &messaging.AndroidConfig{
			Priority: "normal",
			Notification: &messaging.AndroidNotification{
				Title: payload.Title,
				Body:  payload.Body,
				Sound: "default",
			},
		}
	}
	return message
}

func (n *NotificationService) sendMilestoneEmail(ctx context.Context, prayer models.Prayer, count int) {
	if n.email == nil {
		return
	}

	profile, found, err := n.store.GetUser(ctx, prayer.Requester_ID)
	if err != nil {
		n.log.Error("load requester for email", zap.String("user_id", prayer.Requester_ID), zap.Error(err))
		return
	}
	if !found || profile.Email == "" {
		return
	}

	name := profile.Display_Name
	if name == "" {
		name = "friend"
	}

	params := &resend.SendEmailRequest{
		From:    n.emailFrom,
		To:      []string{profile.Email},
		Subject: fmt.Sprintf("Your prayer request has been prayed for %s", prayedForTimes(count)),
		Html:    milestoneEmailHTML(name, prayer.Request_Text, count),
	}

	sent, err := n.email.Send(params)
	if err != nil {
		n.log.Warn("milestone email failed", zap.String("user_id", prayer.Requester_ID), zap.Error(err))
		return
	}
	n.log.Info("milestone email sent", zap.String("user_id", prayer.Requester_ID), zap.Int("count", count), zap.String("email_id", sent.Id))
}

func milestoneEmailHTML(name, request string, count int) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1 style="color: #90c590; text-align: center;">Prayer Wall</h1>
    <p>Hi %s,</p>
    <p>Your request has now been prayed for <strong>%s</strong>:</p>
    <blockquote style="border-left: 3px solid #90c590; padding-left: 12px; color: #555;">%s</blockquote>
    <p>You are not alone.</p>
</body>
</html>`, html.EscapeString(name), prayedForTimes(count), html.EscapeString(request))
}
