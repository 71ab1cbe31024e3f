package activity

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Record lifecycle states

type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// YesNo is a boolean that serializes to the "yes"/"no" convention used by the
// JSON store and the spreadsheet mirror. Legacy data also carries localized
// variants, which are accepted on input.
type YesNo bool

func (y YesNo) MarshalJSON() ([]byte, error) {
	if y {
		return json.Marshal("yes")
	}
	return json.Marshal("no")
}

func (y *YesNo) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*y = YesNo(v)
		return nil
	case string:
		*y = ParseYesNo(v)
		return nil
	case nil:
		*y = false
		return nil
	default:
		return fmt.Errorf("unsupported flexibleTime value: %v", raw)
	}
}

// ParseYesNo maps the stringly-typed boolean conventions seen in the source
// data onto a real boolean. Unknown values default to false.
func ParseYesNo(s string) YesNo {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "yes", "y", "true", "1", "是", "有":
		return true
	default:
		return false
	}
}

func (y YesNo) String() string {
	if y {
		return "yes"
	}
	return "no"
}

// Source records where an activity entry came from. Informational only.
type Source struct {
	Name        string `json:"name,omitempty"`
	Type        string `json:"type,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Record is an activity entry as stored in the canonical JSON document.
// ActivityNumber is the primary key: a zero-padded sequential string, unique
// across the record set.
type Record struct {
	ActivityNumber string   `json:"activityNumber"`
	Title          string   `json:"title"`
	Category       string   `json:"category"`
	Location       string   `json:"location,omitempty"`
	Price          string   `json:"price,omitempty"`
	Time           string   `json:"time,omitempty"`
	Weekdays       []string `json:"weekdays,omitempty"`
	FlexibleTime   YesNo    `json:"flexibleTime"`
	Description    string   `json:"description,omitempty"`
	Status         Status   `json:"status"`
	Source         *Source  `json:"source,omitempty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Weekdays != nil {
		out.Weekdays = append([]string(nil), r.Weekdays...)
	}
	if r.Source != nil {
		src := *r.Source
		out.Source = &src
	}
	return out
}

// Eliminated describes a record removed during duplicate resolution. The
// record itself is preserved here so the decision is auditable, never silent.
type Eliminated struct {
	Record     Record `json:"record"`
	SurvivorID string `json:"survivorId"`
	Reason     string `json:"reason"`
}

// IDRepair describes an identifier assigned during a pass.
type IDRepair struct {
	Title      string `json:"title"`
	AssignedID string `json:"assignedId"`
}

// Report summarizes a reconciliation pass for the caller to render.
type Report struct {
	DuplicatesRemoved   int      `json:"duplicatesRemoved"`
	IdsRepaired         int      `json:"idsRepaired"`
	DescriptionsChanged int      `json:"descriptionsChanged"`
	Warnings            []string `json:"warnings"`
}

// Outcome is the full result of a reconciliation pass over a record snapshot.
type Outcome struct {
	Records    []Record
	Eliminated []Eliminated
	IDRepairs  []IDRepair
	Report     Report
	Duration   time.Duration
}
