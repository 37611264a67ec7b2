package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"testing"
)

func TestIncrementActionReturnsSnapshot(t *testing.T) {
	env := newTestEnv(t)

	var last int64
	for i := 0; i < 3; i++ {
		snapshot, status := env.postAction(t, map[string]any{"action": "increment"})
		if status != http.StatusOK {
			t.Fatalf("status %d", status)
		}
		last = snapshot.Counter.Count
	}
	if last != 3 {
		t.Fatalf("expected counter 3 after three increments, got %d", last)
	}
}

func TestVoteAction(t *testing.T) {
	env := newTestEnv(t)
	snapshot, status := env.postAction(t, map[string]any{"action": "vote", "optionId": "2"})
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if snapshot.Votes[1].Votes != 1 {
		t.Fatalf("expected option 2 at 1 vote, got %+v", snapshot.Votes)
	}
	if snapshot.Votes[0].Votes != 0 || snapshot.Votes[2].Votes != 0 {
		t.Fatalf("other options changed: %+v", snapshot.Votes)
	}
}

func TestChatAction(t *testing.T) {
	env := newTestEnv(t)
	snapshot, status := env.postAction(t, map[string]any{"action": "chat", "username": "Alice", "message": "hi"})
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if len(snapshot.ChatMessages) != 1 {
		t.Fatalf("expected one message, got %d", len(snapshot.ChatMessages))
	}
	msg := snapshot.ChatMessages[0]
	if msg.Username != "Alice" || msg.Message != "hi" {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.ID == "" || msg.Timestamp == 0 {
		t.Fatalf("message missing id or timestamp: %+v", msg)
	}
}

func TestVoteWithoutOptionIDIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	before, _ := env.postAction(t, map[string]any{"action": "none"})

	snapshot, status := env.postAction(t, map[string]any{"action": "vote"})
	if status != http.StatusOK {
		t.Fatalf("no-op vote must succeed, got %d", status)
	}
	if !reflect.DeepEqual(snapshot.Votes, before.Votes) {
		t.Fatalf("votes changed: %+v != %+v", snapshot.Votes, before.Votes)
	}
}

func TestChatWithMissingFieldsIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	snapshot, status := env.postAction(t, map[string]any{"action": "chat", "username": "Alice"})
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if len(snapshot.ChatMessages) != 0 {
		t.Fatalf("incomplete chat action must not append: %+v", snapshot.ChatMessages)
	}
}

func TestUnknownActionIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	snapshot, status := env.postAction(t, map[string]any{"action": "explode"})
	if status != http.StatusOK {
		t.Fatalf("status %d", status)
	}
	if snapshot.Counter.Count != 0 || len(snapshot.ChatMessages) != 0 {
		t.Fatalf("unknown action mutated state: %+v", snapshot)
	}
}

func TestMalformedBodyReturnsError(t *testing.T) {
	env := newTestEnv(t)
	resp := env.postRaw(t, "{not json")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	var errResp map[string]string
	if err := json.Unmarshal(body, &errResp); err != nil {
		t.Fatalf("error body not json: %s", body)
	}
	if errResp["error"] != "Invalid request" {
		t.Fatalf("unexpected error body %s", body)
	}

	// State is untouched.
	snapshot, _ := env.postAction(t, map[string]any{"action": "none"})
	if snapshot.Counter.Count != 0 {
		t.Fatalf("malformed request mutated state: %+v", snapshot)
	}
}

func TestStateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.postAction(t, map[string]any{"action": "increment"})

	resp, err := http.Get(env.srv.URL + "/api/state")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}
	var snapshot struct {
		Counter struct {
			Count int64 `json:"count"`
		} `json:"counter"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snapshot.Counter.Count != 1 {
		t.Fatalf("expected count 1, got %d", snapshot.Counter.Count)
	}
}

func TestRealtimeRejectsOtherMethods(t *testing.T) {
	env := newTestEnv(t)
	req, _ := http.NewRequest(http.MethodDelete, env.srv.URL+"/api/realtime", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
