package line

import (
	"strings"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"
)

const SignatureHeader = "x-line-signature"

// Authenticate checks the base64 HMAC-SHA256 signature of the raw request body.
func Authenticate(body []byte, signature, channelSecret string) bool {
	if signature == "" {
		return false
	}
	return webhook.ValidateSignature(channelSecret, signature, body)
}

// GetHeader looks up a header without regard to case, API Gateway REST
// integrations pass header names through as sent.
func GetHeader(headers map[string]string, name string) string {
	if val, ok := headers[name]; ok {
		return val
	}
	for key, val := range headers {
		if strings.EqualFold(key, name) {
			return val
		}
	}
	return ""
}
