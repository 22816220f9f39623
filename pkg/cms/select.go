package cms

import (
	"bytes"
	"encoding/json"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Select is a select-dropdown metafield. Reads return {key, value}; writes
// send the key alone, so both shapes are accepted when decoding.
type Select struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

var titleCaser = cases.Title(language.English)

// NewSelect builds a Select for key. The label comes from labels, or from
// the key in title case when labels has no entry.
func NewSelect(key string, labels map[string]string) Select {
	if label, ok := labels[key]; ok {
		return Select{Key: key, Value: label}
	}
	return Select{Key: key, Value: Label(key)}
}

// Label turns a key such as "welcome_series" into "Welcome Series".
func Label(key string) string {
	return titleCaser.String(strings.NewReplacer("_", " ", "-", " ").Replace(key))
}

func (s *Select) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = Select{}
		return nil
	}
	if b[0] == '"' {
		var key string
		if err := json.Unmarshal(b, &key); err != nil {
			return err
		}
		*s = Select{Key: key}
		return nil
	}
	type plain Select
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Select(p)
	return nil
}

// IsZero reports whether no option is selected.
func (s Select) IsZero() bool { return s.Key == "" }
