package rabbitmq

// NotificationsExchange direct-обменник для писем пользователям.
const NotificationsExchange = "notifications"

// Ключи маршрутизации.
const (
	RoutingWelcome = "welcome"
)

const prefetch = 10

// QueueConfig очередь и её ключ привязки к обменнику.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// WelcomeQueue очередь приветственных писем.
var WelcomeQueue = QueueConfig{QueueName: "notifications.welcome", RoutingKey: RoutingWelcome}

// NotificationQueues все очереди, которые объявляет сервис рассылки.
func NotificationQueues() []QueueConfig {
	return []QueueConfig{WelcomeQueue}
}
