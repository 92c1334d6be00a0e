package chat

import "testing"

func TestParseControlVariants(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want Control
	}{
		{"join", `{"type":"join_group","group_id":42}`, JoinGroup{GroupID: 42}},
		{"leave", `{"type":"leave_group","group_id":42}`, LeaveGroup{GroupID: 42}},
		{"typing", `{"type":"typing","group_id":7}`, Typing{GroupID: 7}},
		{"stop_typing", `{"type":"stop_typing","group_id":7}`, StopTyping{GroupID: 7}},
		{"string group id", `{"type":"join_group","group_id":"42"}`, JoinGroup{GroupID: 42}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseControl([]byte(tc.raw))
			if err != nil {
				t.Fatalf("ParseControl: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ParseControl = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestParseControlUnknownType(t *testing.T) {
	got, err := ParseControl([]byte(`{"type":"dance","group_id":1}`))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}
	u, ok := got.(Unknown)
	if !ok || u.Type != "dance" {
		t.Fatalf("ParseControl = %#v, want Unknown{dance}", got)
	}
}

func TestParseControlMissingType(t *testing.T) {
	got, err := ParseControl([]byte(`{"group_id":1}`))
	if err != nil {
		t.Fatalf("ParseControl: %v", err)
	}
	if _, ok := got.(Unknown); !ok {
		t.Fatalf("ParseControl = %#v, want Unknown", got)
	}
}

func TestParseControlMalformed(t *testing.T) {
	if _, err := ParseControl([]byte(`{not json`)); err == nil {
		t.Fatal("ParseControl accepted malformed input")
	}
	if _, err := ParseControl([]byte(`{"type":"join_group","group_id":1.5}`)); err == nil {
		t.Fatal("ParseControl accepted fractional group_id")
	}
}
