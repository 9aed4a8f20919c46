package config

var defaults = map[string]interface{}{
	"server.port": "8080",

	"store.backend":     "sqlite",
	"store.sqlite.path": "medremind.db",
	"store.redis.addr":  "",
	"store.redis.db":    0,

	"notify.channel":                 "line",
	"notify.webhook.timeout_seconds": 5,
	"notify.webhook.retry_count":     2,
	"notify.mqtt.client_id":          "medremind-api",
	"notify.mqtt.topic":              "medremind/notifications",
	"notify.mqtt.qos":                1,

	"log.level":  "info",
	"log.format": "json",
}
