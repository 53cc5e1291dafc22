package endpoint

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var hslPattern = regexp.MustCompile(`hsl\((\d+),\s*(\d+)%,\s*(\d+)%\)`)

// Gradient turns a single theme color into a 135 degree gradient running
// from a lighter shade to the color itself. Values that are already
// gradients are returned unchanged and an empty color yields "".
func Gradient(color string) string {
	if color == "" {
		return ""
	}
	if strings.Contains(color, "gradient") {
		return color
	}

	if strings.Contains(color, "hsl") {
		if m := hslPattern.FindStringSubmatch(color); m != nil {
			h, _ := strconv.Atoi(m[1])
			s, _ := strconv.Atoi(m[2])
			l, _ := strconv.Atoi(m[3])
			lighter := math.Min(100, float64(l)*1.4)
			return fmt.Sprintf("linear-gradient(135deg, hsl(%d, %d%%, %s%%) 0%%, %s 100%%)",
				h, s, strconv.FormatFloat(lighter, 'f', -1, 64), color)
		}
	}

	return fmt.Sprintf("linear-gradient(135deg, #%s 0%%, %s 100%%)", lighterHex(color), color)
}

// lighterHex raises each two-digit channel of a hex color by 20%, capped at
// ff. Pairs that are not hex pass through unchanged; a trailing odd digit
// is dropped.
func lighterHex(color string) string {
	digits := strings.TrimPrefix(color, "#")
	if len(digits) < 2 {
		return color
	}

	var b strings.Builder
	for i := 0; i+1 < len(digits); i += 2 {
		pair := digits[i : i+2]
		n, err := strconv.ParseUint(pair, 16, 8)
		if err != nil {
			b.WriteString(pair)
			continue
		}
		c := float64(n)
		lighter := math.Min(255, c+math.Round(c*0.2))
		fmt.Fprintf(&b, "%02x", int(lighter))
	}
	return b.String()
}

// Theme holds the gradients the widget paints with.
type Theme struct {
	Header     string `json:"header"`
	User       string `json:"user"`
	Bot        string `json:"bot"`
	ChatBubble string `json:"chat_bubble"`
}

// Theme derives the widget gradients from the settings colors. The chat
// bubble falls back to the header color.
func (s Settings) Theme() Theme {
	bubble := s.Colors.ChatBubble
	if bubble == "" {
		bubble = s.Colors.Header
	}
	return Theme{
		Header:     Gradient(s.Colors.Header),
		User:       Gradient(s.Colors.User),
		Bot:        Gradient(s.Colors.Bot),
		ChatBubble: Gradient(bubble),
	}
}
