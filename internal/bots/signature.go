package bots

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Signature headers on webhook calls and pushes.
const (
	HeaderTimestamp = "X-Webchat-Request-Timestamp"
	HeaderSignature = "X-Webchat-Signature"
)

// maxSkew is how far a signed request's timestamp may drift from now.
const maxSkew = 5 * time.Minute

// Sign returns the v0 signature of body at timestamp ts.
func Sign(secret string, ts int64, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%d:", ts)
	mac.Write(body)
	return "v0=" + hex.EncodeToString(mac.Sum(nil))
}

// setSignature adds the timestamp and signature headers to req.
func setSignature(req *http.Request, secret string, body []byte, now time.Time) {
	ts := now.Unix()
	req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
	req.Header.Set(HeaderSignature, Sign(secret, ts, body))
}

// verifySignature checks the HMAC-SHA256 signature of an incoming request.
func verifySignature(r *http.Request, secret string, body []byte, now time.Time) bool {
	timestamp := r.Header.Get(HeaderTimestamp)
	signature := r.Header.Get(HeaderSignature)
	if timestamp == "" || signature == "" {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < -maxSkew || skew > maxSkew {
		return false
	}

	return hmac.Equal([]byte(Sign(secret, ts, body)), []byte(signature))
}
