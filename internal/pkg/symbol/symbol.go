// Package symbol normalizes trading pair spellings across inputs.
package symbol

import "strings"

// ToBinance uppercases a raw pair and strips the separator, turning
// forms like "btc/usdt" into "BTCUSDT". Unknown formats pass through
// unchanged so the exchange decides whether they exist.
func ToBinance(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.ReplaceAll(s, "/", "")
}
