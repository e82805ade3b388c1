package sh

import (
	"encoding/json"
	"testing"

	"github.com/golang/protobuf/jsonpb"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/stretchr/testify/require"
)

func TestParseText(t *testing.T) {
	testCases := []struct {
		args []string
		text string
	}{
		{[]string{"Call", "Ready"}, "Call Ready"},
		{[]string{`OK\r\n`}, "OK\r\n"},
		{[]string{`say`, `"hi"`}, `say "hi"`},
		{nil, ""},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.text, ParseText(tc.args))
	}
}

func TestParseAddr(t *testing.T) {
	host, port, err := ParseAddr([]string{"116.228.221.51", "8500", "data"})
	require.NoError(t, err)
	require.Equal(t, "116.228.221.51", host)
	require.Equal(t, 8500, port)

	for _, args := range [][]string{nil, {"host"}, {"host", "http"}, {"host", "0"}, {"host", "65536"}} {
		_, _, err := ParseAddr(args)
		require.Error(t, err, "args %v", args)
	}
}

func TestJSONValue(t *testing.T) {
	st := &structpb.Struct{Fields: map[string]*structpb.Value{
		"ok":    jsonValue(false),
		"error": jsonValue(nil),
		"lines": jsonValue([]string{"+CSQ: 17,0", "OK"}),
		"count": jsonValue(2),
		"final": jsonValue("OK"),
	}}
	out, err := (&jsonpb.Marshaler{}).MarshalToString(st)
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	require.Equal(t, map[string]interface{}{
		"ok":    false,
		"error": nil,
		"lines": []interface{}{"+CSQ: 17,0", "OK"},
		"count": float64(2),
		"final": "OK",
	}, m)
}
