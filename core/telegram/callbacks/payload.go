// Package callbacks decodes inline button data produced by telebot.
package callbacks

import (
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Separator joins the unique key and the payload inside callback data.
const Separator = "|"

// Split decodes telebot's "\f<unique>|<payload>" encoding.
// Callbacks already resolved by telebot carry Unique and a bare payload in Data.
func Split(cb *tele.Callback) (key, payload string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	key, payload, _ = strings.Cut(raw, Separator)
	return strings.TrimSpace(key), payload
}

// Key returns the unique key of the pressed button.
func Key(c tele.Context) string {
	key, _ := Split(c.Callback())
	return key
}

// Payload returns the data attached to the pressed button.
func Payload(c tele.Context) string {
	_, payload := Split(c.Callback())
	return payload
}

// PayloadInt64 parses the payload as a base-10 integer.
func PayloadInt64(c tele.Context) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(Payload(c)), 10, 64)
}

// Data encodes key and payload the way telebot expects for inline buttons.
func Data(key, payload string) string {
	if payload == "" {
		return "\f" + key
	}
	return "\f" + key + Separator + payload
}
