package redis

import "strings"

// Every key the services write lives under the "wp" namespace so a shared
// Redis can be inspected with SCAN wp:*.
const keyNamespace = "wp"

// IdempotencyKey scopes a client or event supplied key, for example
// wp:idempotency:stripe_webhook:evt_1.
func (c *Client) IdempotencyKey(scope, id string) string {
	return joinKey("idempotency", scope, id)
}

// FinalizationKey is the in-flight guard for one gateway payment reference.
func (c *Client) FinalizationKey(paymentRef string) string {
	return joinKey("finalization", paymentRef)
}

// LockKey names a distributed lock.
func (c *Client) LockKey(name string) string {
	return joinKey("lock", name)
}

func joinKey(parts ...string) string {
	var b strings.Builder
	b.WriteString(keyNamespace)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}
