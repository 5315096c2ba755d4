package rabbitmq

import (
	"github.com/streadway/amqp"

	publish "github.com/magabrotheeeer/credit-risk-engine/internal/lib/rabbitmq"
)

// ChannelPublisher публикует события вовлечённости через открытый канал
// брокера.
type ChannelPublisher struct {
	ch *amqp.Channel
}

// NewChannelPublisher создает новый экземпляр ChannelPublisher.
func NewChannelPublisher(ch *amqp.Channel) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

// Publish сериализует сообщение и отправляет его в обменник.
func (p *ChannelPublisher) Publish(exchange, routingKey string, message any) error {
	return publish.PublishMessage(p.ch, exchange, routingKey, message)
}
