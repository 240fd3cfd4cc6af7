package source

import (
	"fmt"
	"strings"
	"time"
)

// NaiveTime is a timestamp the source system emits without a UTC offset.
// The printed hour IS the clinic-local hour: parsing preserves the wall-clock
// fields as written and performs no timezone conversion. Downstream
// business-hour filtering depends on this contract; do not replace it with
// offset-aware parsing unless the upstream format changes.
type NaiveTime struct {
	time.Time
}

const naiveLayout = "2006-01-02T15:04:05"

var naiveLayouts = []string{
	naiveLayout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON parses an offsetless timestamp string. Null and empty values
// leave the zero time.
func (n *NaiveTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		n.Time = time.Time{}
		return nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			n.Time = t
			return nil
		}
	}
	return fmt.Errorf("source: cannot parse naive timestamp %q", s)
}

// MarshalJSON renders the wall-clock value without an offset.
func (n NaiveTime) MarshalJSON() ([]byte, error) {
	if n.Time.IsZero() {
		return []byte(`null`), nil
	}
	return []byte(`"` + n.Time.Format(naiveLayout) + `"`), nil
}
