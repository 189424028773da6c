package domain

// WebhookEvent is a verified webhook delivery from Shopify
type WebhookEvent struct {
	Topic   string
	Shop    string
	Payload []byte
}

// TopicAppUninstalled is delivered when a merchant removes the app
const TopicAppUninstalled = "app/uninstalled"
