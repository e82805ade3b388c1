package monitor

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	structpb "github.com/golang/protobuf/ptypes/struct"
)

// Field names of an encoded Event.
const (
	FieldStream = "stream"
	FieldMarker = "marker"
	FieldOffset = "offset"
	FieldTime   = "time"
)

// EventStruct converts Event into protobuf Struct.
func EventStruct(ev *Event) *structpb.Struct {
	return &structpb.Struct{
		Fields: map[string]*structpb.Value{
			FieldStream: stringValue(ev.Stream),
			FieldMarker: stringValue(ev.Marker),
			FieldOffset: {Kind: &structpb.Value_NumberValue{NumberValue: float64(ev.Offset)}},
			FieldTime:   stringValue(ev.Time.UTC().Format(time.RFC3339Nano)),
		},
	}
}

// EncodeEvent encodes Event in protobuf wire format.
func EncodeEvent(ev *Event) ([]byte, error) {
	return proto.Marshal(EventStruct(ev))
}

// DecodeEvent decodes an Event encoded by EncodeEvent.
func DecodeEvent(payload []byte) (*Event, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(payload, &st); err != nil {
		return nil, err
	}
	fields := st.GetFields()
	ev := &Event{
		Stream: fields[FieldStream].GetStringValue(),
		Marker: fields[FieldMarker].GetStringValue(),
		Offset: int64(fields[FieldOffset].GetNumberValue()),
	}
	if ev.Marker == "" {
		return nil, fmt.Errorf("missing %s", FieldMarker)
	}
	if val := fields[FieldTime].GetStringValue(); val != "" {
		t, err := time.Parse(time.RFC3339Nano, val)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %v", FieldTime, err)
		}
		ev.Time = t
	}
	return ev, nil
}

// EventJSON renders Event as JSON.
func EventJSON(ev *Event) (string, error) {
	return (&jsonpb.Marshaler{}).MarshalToString(EventStruct(ev))
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}
