// Package events publishes invoice lifecycle events to NATS JetStream.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"gst-billing-service/internal/models"
)

const (
	StreamName = "INVOICE_EVENTS"

	InvoiceCreated   = "invoice.created"
	InvoicePaid      = "invoice.paid"
	InvoiceCancelled = "invoice.cancelled"
)

// InvoiceEvent is the payload of every invoice.* subject
type InvoiceEvent struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	ShopID     string          `json:"shopId"`
	InvoiceID  string          `json:"invoiceId"`
	InvoiceNo  string          `json:"invoiceNo"`
	CustomerID string          `json:"customerId"`
	Status     string          `json:"status"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
	CGSTAmount decimal.Decimal `json:"cgstAmount"`
	SGSTAmount decimal.Decimal `json:"sgstAmount"`
	IGSTAmount decimal.Decimal `json:"igstAmount"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NewInvoiceEvent builds the event for an invoice in its current state
func NewInvoiceEvent(eventType string, inv *models.Invoice) InvoiceEvent {
	return InvoiceEvent{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		ShopID:     inv.ShopID.String(),
		InvoiceID:  inv.ID.String(),
		InvoiceNo:  inv.InvoiceNo,
		CustomerID: inv.CustomerID.String(),
		Status:     string(inv.Status),
		GrandTotal: inv.GrandTotal,
		CGSTAmount: inv.CGSTAmount,
		SGSTAmount: inv.SGSTAmount,
		IGSTAmount: inv.IGSTAmount,
		Timestamp:  time.Now().UTC(),
	}
}

// Publisher emits invoice events. Implementations never fail the caller.
type Publisher interface {
	PublishInvoiceEvent(ctx context.Context, event InvoiceEvent)
	Close()
}

// NoopPublisher is used when NATS is not configured
type NoopPublisher struct{}

func (NoopPublisher) PublishInvoiceEvent(context.Context, InvoiceEvent) {}
func (NoopPublisher) Close()                                            {}

// NATSPublisher publishes to JetStream
type NATSPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger *logrus.Entry
}

// NewPublisher connects to NATS when url is set and returns a NoopPublisher
// otherwise or when the connection cannot be set up.
func NewPublisher(ctx context.Context, url string, logger *logrus.Logger) Publisher {
	log := logger.WithField("component", "events")
	if url == "" {
		log.Info("NATS_URL not configured, invoice events disabled")
		return NoopPublisher{}
	}

	p, err := NewNATSPublisher(ctx, url, logger)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize NATS publisher, invoice events disabled")
		return NoopPublisher{}
	}
	return p
}

func NewNATSPublisher(ctx context.Context, url string, logger *logrus.Logger) (*NATSPublisher, error) {
	log := logger.WithField("component", "events")

	nc, err := nats.Connect(url,
		nats.Name("gst-billing-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.WithError(err).Warn("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"invoice.>"},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		log.WithError(err).Warn("Could not create INVOICE_EVENTS stream")
	}

	return &NATSPublisher{nc: nc, js: js, logger: log}, nil
}

func (p *NATSPublisher) PublishInvoiceEvent(ctx context.Context, event InvoiceEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("Failed to marshal invoice event")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, event.EventType, data, jetstream.WithMsgID(event.EventID)); err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"eventType": event.EventType,
			"invoiceId": event.InvoiceID,
		}).Warn("Failed to publish invoice event")
		return
	}

	p.logger.WithFields(logrus.Fields{
		"eventType": event.EventType,
		"invoiceNo": event.InvoiceNo,
	}).Debug("Published invoice event")
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
