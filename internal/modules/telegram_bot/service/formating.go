package service

import (
	"fmt"
	"strings"
)

// Lines joins non-empty lines into one message.
func Lines(lines ...string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func f2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// Pct renders a fraction as a percentage, 0.0001 -> "0.01%".
func Pct(v float64) string {
	return f2(v*100) + "%"
}
