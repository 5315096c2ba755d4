package rabbitmq

// EngagementExchange — обменник событий вовлечённости.
const EngagementExchange = "engagement"

// Routing keys обменника событий.
const (
	// RoutingKeyTip — выдача случайного совета пользователю.
	RoutingKeyTip = "tip"
	// RoutingKeyPunishment — уведомление о наказании (каждый третий совет).
	RoutingKeyPunishment = "punishment"
)

// QueueConfig описывает очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetEngagementQueues возвращает очереди обменника событий вовлечённости.
func GetEngagementQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "engagement.tips", RoutingKey: RoutingKeyTip},
		{QueueName: "engagement.punishments", RoutingKey: RoutingKeyPunishment},
	}
}
