package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aegisgw/smsgateway/message"
)

// rawRecord is the wire shape of one element returned by `retrieve` (§3).
type rawRecord struct {
	Location      int    `json:"location"`
	From          string `json:"from"`
	Content       string `json:"content"`
	UDH           int    `json:"udh"`
	Segment       int    `json:"segment"`
	TotalSegments int    `json:"total_segments"`
	Timestamp     string `json:"timestamp"`
	SMSCTimestamp string `json:"smsc_timestamp"`
}

// timeLayouts covers the timestamp shapes gammu-json is documented to emit.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

func parseTimestamp(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}

// transform converts one raw retrieve record into a Segment, deriving id
// for multipart records and parsing both timestamp fields (§4.3 step 1).
func transform(r rawRecord) (message.Segment, error) {
	seg := message.Segment{
		Location:      r.Location,
		From:          r.From,
		Content:       r.Content,
		UDH:           r.UDH,
		SegmentNum:    r.Segment,
		TotalSegments: r.TotalSegments,
	}
	if seg.TotalSegments <= 0 {
		seg.TotalSegments = 1
	}

	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return message.Segment{}, fmt.Errorf("invalid timestamp %q: %w", r.Timestamp, err)
	}
	seg.Timestamp = ts

	if r.SMSCTimestamp != "" {
		smsc, err := parseTimestamp(r.SMSCTimestamp)
		if err != nil {
			return message.Segment{}, fmt.Errorf("invalid smsc_timestamp %q: %w", r.SMSCTimestamp, err)
		}
		seg.SMSCTimestamp = smsc
		seg.HasSMSC = true
	}

	if seg.IsMultipart() {
		seg.ID = fmt.Sprintf("%s-%d-%d", seg.From, seg.UDH, seg.TotalSegments)
	}

	return seg, nil
}

func unmarshalRecords(raw json.RawMessage) ([]rawRecord, error) {
	var records []rawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// sendResult is one element of the `send` response (§4.4/§6).
type sendResult struct {
	Index  int    `json:"index"`
	Result string `json:"result"`
}

// deleteResponse is the `delete` response shape (§4.5/§6).
type deleteResponse struct {
	Detail map[string]string `json:"detail"`
}
