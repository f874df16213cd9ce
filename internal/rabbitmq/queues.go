package rabbitmq

// Exchange обменник уведомлений.
const Exchange = "notifications"

// Ключи маршрутизации событий.
const (
	RoutingPlanChanged  = "plan.changed"
	RoutingPlanExpiring = "plan.expiring"
)

const prefetchCount = 10

// QueueConfig очередь и её ключ маршрутизации.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// Очереди отправителя писем.
const (
	QueuePlanChanged  = "notifications.plan_changed"
	QueuePlanExpiring = "notifications.plan_expiring"
)

// GetNotificationQueues возвращает очереди, которые читает отправитель писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueuePlanChanged, RoutingKey: RoutingPlanChanged},
		{QueueName: QueuePlanExpiring, RoutingKey: RoutingPlanExpiring},
	}
}
