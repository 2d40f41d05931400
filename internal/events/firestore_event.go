package events

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"metachat/notification-service/internal/trigger"
)

// FirestoreEvent is the JSON body Firestore document triggers deliver.
type FirestoreEvent struct {
	OldValue   FirestoreValue `json:"oldValue"`
	Value      FirestoreValue `json:"value"`
	UpdateMask UpdateMask     `json:"updateMask"`
}

type UpdateMask struct {
	FieldPaths []string `json:"fieldPaths"`
}

type FirestoreValue struct {
	CreateTime time.Time             `json:"createTime"`
	Fields     map[string]FieldValue `json:"fields"`
	Name       string                `json:"name"`
	UpdateTime time.Time             `json:"updateTime"`
}

// FieldValue is a typed Firestore value; exactly one member is set. A value
// with no member set is a null.
type FieldValue struct {
	BooleanValue   *bool       `json:"booleanValue,omitempty"`
	IntegerValue   *string     `json:"integerValue,omitempty"`
	DoubleValue    *float64    `json:"doubleValue,omitempty"`
	TimestampValue *time.Time  `json:"timestampValue,omitempty"`
	StringValue    *string     `json:"stringValue,omitempty"`
	ReferenceValue *string     `json:"referenceValue,omitempty"`
	ArrayValue     *ArrayValue `json:"arrayValue,omitempty"`
	MapValue       *MapValue   `json:"mapValue,omitempty"`
}

type ArrayValue struct {
	Values []FieldValue `json:"values"`
}

type MapValue struct {
	Fields map[string]FieldValue `json:"fields"`
}

// Interface converts the typed value into plain Go values.
func (v FieldValue) Interface() (interface{}, error) {
	switch {
	case v.BooleanValue != nil:
		return *v.BooleanValue, nil
	case v.IntegerValue != nil:
		n, err := strconv.ParseInt(*v.IntegerValue, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integerValue %q: %w", *v.IntegerValue, err)
		}
		return n, nil
	case v.DoubleValue != nil:
		return *v.DoubleValue, nil
	case v.TimestampValue != nil:
		return *v.TimestampValue, nil
	case v.StringValue != nil:
		return *v.StringValue, nil
	case v.ReferenceValue != nil:
		return *v.ReferenceValue, nil
	case v.ArrayValue != nil:
		out := make([]interface{}, 0, len(v.ArrayValue.Values))
		for _, item := range v.ArrayValue.Values {
			x, err := item.Interface()
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case v.MapValue != nil:
		return fieldsToMap(v.MapValue.Fields)
	default:
		return nil, nil
	}
}

func fieldsToMap(fields map[string]FieldValue) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))
	for k, f := range fields {
		x, err := f.Interface()
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = x
	}
	return out, nil
}

// DocumentPath strips the "projects/.../documents/" prefix of a resource name.
func DocumentPath(name string) string {
	const marker = "/documents/"
	if i := strings.Index(name, marker); i >= 0 {
		return name[i+len(marker):]
	}
	return strings.Trim(name, "/")
}

// IsCreate reports whether the event describes a newly created document.
func (e *FirestoreEvent) IsCreate() bool {
	return e.OldValue.Name == "" && len(e.OldValue.Fields) == 0
}

// ToTrigger converts the event for the router. fallbackDocument is used when
// the event carries no snapshot and therefore no resource name.
func (e *FirestoreEvent) ToTrigger(eventID, fallbackDocument string) (trigger.Event, error) {
	if eventID == "" {
		eventID = uuid.NewString()
	}

	ev := trigger.Event{
		ID:       eventID,
		Document: DocumentPath(fallbackDocument),
		Time:     time.Now(),
	}

	if e.Value.Name == "" {
		if ev.Document == "" {
			return trigger.Event{}, fmt.Errorf("event has neither a snapshot nor a document path")
		}
		return ev, nil
	}

	data, err := fieldsToMap(e.Value.Fields)
	if err != nil {
		return trigger.Event{}, err
	}
	ev.Document = DocumentPath(e.Value.Name)
	ev.Data = data
	if !e.Value.CreateTime.IsZero() {
		ev.Time = e.Value.CreateTime
	}

	return ev, nil
}
