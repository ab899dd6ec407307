package events

import (
	"encoding/json"
	"testing"
)

func TestFromNotificationOutput(t *testing.T) {
	params := json.RawMessage(`{"session_id":"s1","data":"hello\u001b[0m"}`)

	ev, err := FromNotification(MethodOutput, params)
	if err != nil {
		t.Fatalf("FromNotification: %v", err)
	}
	if ev.Type() != EventTypeTerminalOutput {
		t.Errorf("type = %s", ev.Type())
	}
	if ev.GetSessionID() != "s1" {
		t.Errorf("session = %q", ev.GetSessionID())
	}

	p, ok := ev.(*BaseEvent).Payload.(OutputPayload)
	if !ok {
		t.Fatalf("payload type %T", ev.(*BaseEvent).Payload)
	}
	if p.Data != "hello\x1b[0m" {
		t.Errorf("data = %q", p.Data)
	}
}

func TestFromNotificationStatus(t *testing.T) {
	params := json.RawMessage(`{"session_id":"s1","project_id":"p1","status":"stopped"}`)

	ev, err := FromNotification(MethodStatus, params)
	if err != nil {
		t.Fatalf("FromNotification: %v", err)
	}
	p, ok := ev.(*BaseEvent).Payload.(StatusPayload)
	if !ok {
		t.Fatalf("payload type %T", ev.(*BaseEvent).Payload)
	}
	if p.ProjectID != "p1" || p.Status != "stopped" {
		t.Errorf("payload = %+v", p)
	}
}

func TestFromNotificationClosed(t *testing.T) {
	ev, err := FromNotification(MethodClosed, json.RawMessage(`{"session_id":"s9"}`))
	if err != nil {
		t.Fatalf("FromNotification: %v", err)
	}
	if ev.Type() != EventTypeTerminalClosed {
		t.Errorf("type = %s", ev.Type())
	}
	if ev.GetSessionID() != "s9" {
		t.Errorf("session = %q", ev.GetSessionID())
	}
}

func TestFromNotificationRejectsUnknownMethod(t *testing.T) {
	if _, err := FromNotification("event/telemetry", json.RawMessage(`{}`)); err == nil {
		t.Error("unknown method accepted")
	}
}

func TestFromNotificationRejectsMalformedParams(t *testing.T) {
	for _, method := range []string{MethodOutput, MethodStatus, MethodClosed} {
		if _, err := FromNotification(method, json.RawMessage(`[1,2,3]`)); err == nil {
			t.Errorf("%s accepted malformed params", method)
		}
	}
}

func TestEventToJSON(t *testing.T) {
	ev := NewOutputEvent("s1", "chunk")
	data, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if string(decoded["event"]) != `"terminal_output"` {
		t.Errorf("event = %s", decoded["event"])
	}
}
