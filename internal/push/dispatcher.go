package push

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/multierr"

	"avenue/internal/logger"
	"avenue/internal/metrics"
	"avenue/internal/models"
)

// Payload is the JSON body the service worker reads on a push event.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

type VAPID struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
}

type sendFunc func(ctx context.Context, message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error)

type Dispatcher struct {
	store   Store
	vapid   VAPID
	logg    *logger.Logger
	metrics *metrics.PushMetrics
	send    sendFunc
}

func NewDispatcher(store Store, vapid VAPID, logg *logger.Logger, m *metrics.PushMetrics) *Dispatcher {
	if logg == nil {
		logg = logger.Nop()
	}
	return &Dispatcher{
		store:   store,
		vapid:   vapid,
		logg:    logg,
		metrics: m,
		send:    webpush.SendNotificationWithContext,
	}
}

func (d *Dispatcher) Enabled() bool {
	return d != nil && d.vapid.PublicKey != "" && d.vapid.PrivateKey != ""
}

// Notify sends payload to every subscription of user. Gone endpoints are
// pruned; other failures are collected and returned together.
func (d *Dispatcher) Notify(ctx context.Context, user primitive.ObjectID, payload Payload) error {
	if !d.Enabled() {
		d.metrics.Inc("disabled")
		return nil
	}
	subs, err := d.store.ListByUser(ctx, user)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil
	}

	message, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode push payload: %w", err)
	}

	var errs error
	for _, sub := range subs {
		errs = multierr.Append(errs, d.deliver(ctx, sub, message))
	}
	return errs
}

func (d *Dispatcher) deliver(ctx context.Context, sub models.PushSubscription, message []byte) error {
	resp, err := d.send(ctx, message, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys:     webpush.Keys{Auth: sub.Keys.Auth, P256dh: sub.Keys.P256dh},
	}, &webpush.Options{
		Subscriber:      d.vapid.Subscriber,
		VAPIDPublicKey:  d.vapid.PublicKey,
		VAPIDPrivateKey: d.vapid.PrivateKey,
		TTL:             d.vapid.TTL,
	})
	if err != nil {
		d.metrics.Inc("error")
		return fmt.Errorf("send to %s: %w", sub.Endpoint, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		d.metrics.Inc("pruned")
		if err := d.store.DeleteEndpoint(ctx, sub.Endpoint); err != nil {
			return fmt.Errorf("prune %s: %w", sub.Endpoint, err)
		}
		d.logg.Info(d.logg.WithField(ctx, "endpoint", sub.Endpoint), "push.subscription.pruned")
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		d.metrics.Inc("sent")
		return nil
	default:
		d.metrics.Inc("rejected")
		return fmt.Errorf("push service answered %d for %s", resp.StatusCode, sub.Endpoint)
	}
}
