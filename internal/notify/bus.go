package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/Kyz7/formbuilder/internal/mail"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Bus publishes notifications to a topic; a Dispatcher on the other side
// turns them into email.
type Bus struct {
	publisher message.Publisher
	topic     string
}

func NewBus(publisher message.Publisher, topic string) *Bus {
	return &Bus{publisher: publisher, topic: topic}
}

// Queues is true: mail is sent by the Dispatcher after Notify returns.
func (b *Bus) Queues() bool { return true }

func (b *Bus) Notify(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("kind", string(n.Kind))
	msg.SetContext(ctx)

	if err := b.publisher.Publish(b.topic, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Dispatcher consumes notifications and mails them. Delivery failures are
// logged and acked; there is no retry.
type Dispatcher struct {
	subscriber message.Subscriber
	topic      string
	mailer     mail.Mailer
	from       string
}

func NewDispatcher(subscriber message.Subscriber, topic string, mailer mail.Mailer, from string) *Dispatcher {
	return &Dispatcher{subscriber: subscriber, topic: topic, mailer: mailer, from: from}
}

// Start subscribes before returning so nothing published afterwards is missed.
func (d *Dispatcher) Start(ctx context.Context) error {
	messages, err := d.subscriber.Subscribe(ctx, d.topic)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", d.topic, err)
	}

	go func() {
		for msg := range messages {
			d.handle(msg)
			msg.Ack()
		}
	}()
	return nil
}

func (d *Dispatcher) handle(msg *message.Message) {
	var n Notification
	if err := json.Unmarshal(msg.Payload, &n); err != nil {
		log.Printf("⚠️  dropping malformed notification %s: %v", msg.UUID, err)
		return
	}
	if err := d.mailer.Send(msg.Context(), n.message(d.from)); err != nil {
		log.Printf("⚠️  %s mail to %s failed: %v", n.Kind, n.To, err)
		return
	}
	log.Printf("📧 %s mail sent to %s", n.Kind, n.To)
}

type PubSub struct {
	Publisher  message.Publisher
	Subscriber message.Subscriber
}

func (p *PubSub) Close() {
	if err := p.Publisher.Close(); err != nil {
		log.Printf("⚠️  closing publisher: %v", err)
	}
	if p.Subscriber != nil {
		if err := p.Subscriber.Close(); err != nil {
			log.Printf("⚠️  closing subscriber: %v", err)
		}
	}
}

// NewGoChannel returns an in-process pub/sub. With blocking set, Publish waits
// until the dispatcher has handled the message.
func NewGoChannel(blocking bool) *PubSub {
	ch := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: blocking,
	}, watermill.NewStdLogger(false, false))
	return &PubSub{Publisher: ch, Subscriber: ch}
}

func NewKafka(brokers []string, consumerGroup string) (*PubSub, error) {
	logger := watermill.NewStdLogger(false, false)

	publisher, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}

	subscriber, err := kafka.NewSubscriber(kafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           kafka.DefaultMarshaler{},
		OverwriteSaramaConfig: kafka.DefaultSaramaSubscriberConfig(),
		ConsumerGroup:         consumerGroup,
	}, logger)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("kafka subscriber: %w", err)
	}

	return &PubSub{Publisher: publisher, Subscriber: subscriber}, nil
}
