package rabbitmq

// QueueConfig описывает очередь и ключ, с которым она привязана к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetUserEventQueues возвращает очереди для событий о пользователях.
func GetUserEventQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "users.events", RoutingKey: "user.*"},
	}
}
