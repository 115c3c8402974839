package nakama

import (
	"context"
	"fmt"

	"github.com/heroiclabs/nakama-common/api"
	"github.com/heroiclabs/nakama-common/runtime"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

type sentMessage struct {
	opCode     int64
	data       []byte
	recipients []string // nil for broadcast
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	sent       []sentMessage
	lastLabel  string
	labelCount int
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	msg := sentMessage{opCode: opCode, data: append([]byte(nil), data...)}
	for _, p := range presences {
		msg.recipients = append(msg.recipients, p.GetUserId())
	}
	md.sent = append(md.sent, msg)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelCount++
	md.lastLabel = label
	return nil
}

func (md *mockDispatcher) opCodes() []int64 {
	out := make([]int64, len(md.sent))
	for i, m := range md.sent {
		out[i] = m.opCode
	}
	return out
}

func (md *mockDispatcher) reset() { md.sent = nil }

// testPresence overrides the identity getters; other methods are unused.
type testPresence struct {
	runtime.Presence
	userID   string
	username string
}

func (p testPresence) GetUserId() string    { return p.userID }
func (p testPresence) GetUsername() string  { return p.username }
func (p testPresence) GetSessionId() string { return "session-" + p.userID }

type testData struct {
	testPresence
	opCode int64
	data   []byte
}

func (d testData) GetOpCode() int64      { return d.opCode }
func (d testData) GetData() []byte       { return d.data }
func (d testData) GetReliable() bool     { return true }
func (d testData) GetReceiveTime() int64 { return 0 }

// fakeNakama implements the few NakamaModule calls the RPCs use.
type fakeNakama struct {
	runtime.NakamaModule
	created  []map[string]interface{}
	listed   []*api.Match
	signals  map[string]string
	matchSeq int
}

func (f *fakeNakama) MatchCreate(ctx context.Context, module string, params map[string]interface{}) (string, error) {
	f.matchSeq++
	f.created = append(f.created, params)
	return fmt.Sprintf("match-%d", f.matchSeq), nil
}

func (f *fakeNakama) MatchList(ctx context.Context, limit int, authoritative bool, label string, minSize, maxSize *int, query string) ([]*api.Match, error) {
	return f.listed, nil
}

func (f *fakeNakama) MatchSignal(ctx context.Context, id string, data string) (string, error) {
	return f.signals[id+"/"+data], nil
}
