package helper

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// HumanVolume renders 200000000 as "200 M".
func HumanVolume(v float64) string {
	return strings.TrimSpace(humanize.SIWithDigits(v, 2, ""))
}
