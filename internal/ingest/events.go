// Package ingest turns storage notifications into classified document records.
package ingest

import (
	"encoding/json"
	"fmt"
)

// Record identifies one uploaded object to ingest. Key is URL-encoded as in S3 notifications.
type Record struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	EventTime string `json:"eventTime,omitempty"`
}

type s3Location struct {
	Bucket *struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object *struct {
		Key string `json:"key"`
	} `json:"object"`
}

func (l *s3Location) record(eventTime string) (Record, bool) {
	if l == nil || l.Bucket == nil || l.Object == nil || l.Bucket.Name == "" || l.Object.Key == "" {
		return Record{}, false
	}
	return Record{Bucket: l.Bucket.Name, Key: l.Object.Key, EventTime: eventTime}, true
}

// event fields stay raw so that a field of an unexpected type is ignored
// instead of failing the whole event.
type event struct {
	Source  json.RawMessage `json:"source"`
	Time    json.RawMessage `json:"time"`
	Detail  json.RawMessage `json:"detail"`
	Records json.RawMessage `json:"Records"`
}

type notification struct {
	EventTime string      `json:"eventTime"`
	S3        *s3Location `json:"s3"`
}

// RecordsFromEvent extracts records from an EventBridge "aws.s3" event and from S3
// notification "Records". Entries missing a bucket name or key are skipped, and a
// "Records" value that is not an array yields no records.
func RecordsFromEvent(raw []byte) ([]Record, error) {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	var recs []Record
	if rawString(ev.Source) == "aws.s3" && len(ev.Detail) > 0 {
		var loc s3Location
		if err := json.Unmarshal(ev.Detail, &loc); err == nil {
			if r, ok := loc.record(rawString(ev.Time)); ok {
				recs = append(recs, r)
			}
		}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(ev.Records, &items); err != nil {
		items = nil
	}
	for _, item := range items {
		var n notification
		if err := json.Unmarshal(item, &n); err != nil {
			continue
		}
		if r, ok := n.S3.record(n.EventTime); ok {
			recs = append(recs, r)
		}
	}
	return recs, nil
}

// rawString returns the JSON string in raw, or "" for any other value.
func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
