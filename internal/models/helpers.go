package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

func GenerateTicketID() string {
	return fmt.Sprintf("bet_%s_%s",
		time.Now().Format("20060102"),
		uuid.NewString())
}

// ParseWinAmount keeps only the digits of a free-text win field.
// "150 units" gives 150; a field without digits reports false.
func ParseWinAmount(win string) (int64, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, win)

	if digits == "" {
		return 0, false
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FlexString accepts a JSON string, number or null. Upstream feeds are not
// consistent about quoting ids and prices.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*f = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(strings.TrimSpace(s))
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		*f = FlexString(data)
	default:
		return fmt.Errorf("cannot decode %s as string or number", data)
	}
	return nil
}

func (f FlexString) String() string {
	return string(f)
}
