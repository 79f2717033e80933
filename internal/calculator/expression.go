package calculator

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// leadingNumber matches the longest decimal literal at the start of a token,
// the same prefix a browser's parseFloat would accept.
var leadingNumber = regexp.MustCompile(`^-?(?:\d+\.?\d*|\.\d+)(?:[eE][-]?\d+)?`)

// ParseAdditionExpression sums a free-text expression such as "5000+7000".
//
// The input is split on '+', each token is trimmed and parsed as a float.
// Tokens that do not start with a number count as zero, so the function
// never fails: "" is 0, "5000+abc" is 5000.
func ParseAdditionExpression(input string) float64 {
	if strings.TrimSpace(input) == "" {
		return 0
	}

	var sum float64
	for _, token := range strings.Split(input, "+") {
		sum += parseToken(strings.TrimSpace(token))
	}
	return sum
}

func parseToken(token string) float64 {
	switch {
	case strings.HasPrefix(token, "Infinity"):
		return math.Inf(1)
	case strings.HasPrefix(token, "-Infinity"):
		return math.Inf(-1)
	}

	literal := leadingNumber.FindString(token)
	if literal == "" {
		return 0
	}
	v, err := strconv.ParseFloat(literal, 64)
	if err != nil {
		// Out-of-range literals still parse to ±Inf with ErrRange.
		if errors.Is(err, strconv.ErrRange) {
			return v
		}
		return 0
	}
	return v
}
