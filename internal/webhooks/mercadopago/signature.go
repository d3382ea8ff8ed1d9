package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// VerifySignature checks the x-signature header Mercado Pago sends with each
// notification. The header carries "ts=<unix>,v1=<hex hmac>" and the HMAC is
// computed over the manifest "id:<data id>;request-id:<x-request-id>;ts:<ts>;"
// with the account's webhook secret.
func VerifySignature(secret, signatureHeader, requestID, dataID string) error {
	if secret == "" {
		return fmt.Errorf("webhook secret not configured")
	}
	if signatureHeader == "" {
		return fmt.Errorf("signature header missing")
	}

	var ts, v1 string
	for _, part := range strings.Split(signatureHeader, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("signature header malformed")
	}

	manifest := fmt.Sprintf("id:%s;request-id:%s;ts:%s;", strings.ToLower(dataID), requestID, ts)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(v1)) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}
