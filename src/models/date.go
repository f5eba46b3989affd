// src/models/date.go
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	DisplayDateLayout = "02/01/2006"
	ISODateLayout     = "2006-01-02"
)

// DisplayDate is a calendar date rendered as DD/MM/YYYY on the wire.
// Comparisons always use the underlying time value.
type DisplayDate struct {
	time.Time
}

// NewDisplayDate truncates t to its calendar date in UTC.
func NewDisplayDate(t time.Time) DisplayDate {
	return DisplayDate{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDisplayDate accepts DD/MM/YYYY or ISO YYYY-MM-DD.
func ParseDisplayDate(s string) (DisplayDate, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DisplayDateLayout, ISODateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return DisplayDate{t}, nil
		}
	}
	return DisplayDate{}, fmt.Errorf("unrecognised date %q", s)
}

func (d DisplayDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayDateLayout)
}

func (d DisplayDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DisplayDate) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = DisplayDate{}
		return nil
	}
	parsed, err := ParseDisplayDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ msgpack.CustomEncoder = DisplayDate{}
	_ msgpack.CustomDecoder = (*DisplayDate)(nil)
)

func (d DisplayDate) EncodeMsgpack(enc *msgpack.Encoder) error {
	return enc.EncodeTime(d.Time)
}

func (d *DisplayDate) DecodeMsgpack(dec *msgpack.Decoder) error {
	t, err := dec.DecodeTime()
	if err != nil {
		return err
	}
	d.Time = t.UTC()
	return nil
}
