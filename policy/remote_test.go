package policy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/penguin/agent"
	"github.com/pthm-cable/penguin/params"
)

// fakeTrainer answers every OBS with the configured reply.
type fakeTrainer struct {
	welcome map[string]float64
	reply   func(obs ObsMsg) any
	ended   chan EpisodeEndMsg
	hello   chan HelloMsg
}

func (f *fakeTrainer) handler(t *testing.T) http.HandlerFunc {
	upgrader := websocket.Upgrader{}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		var hello HelloMsg
		if err := conn.ReadJSON(&hello); err != nil {
			return
		}
		f.hello <- hello
		_ = conn.WriteJSON(WelcomeMsg{Type: TypeWelcome, ProtocolVersion: "1.0", Parameters: f.welcome})

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			base, _ := DecodeBase(msg)
			switch base.Type {
			case TypeObs:
				var obs ObsMsg
				_ = json.Unmarshal(msg, &obs)
				_ = conn.WriteJSON(f.reply(obs))
			case TypeEpisodeEnd:
				var end EpisodeEndMsg
				_ = json.Unmarshal(msg, &end)
				f.ended <- end
			}
		}
	}
}

func dialFake(t *testing.T, f *fakeTrainer, store *params.Store) *Remote {
	t.Helper()
	f.ended = make(chan EpisodeEndMsg, 4)
	f.hello = make(chan HelloMsg, 1)
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	var sink ParameterSink
	if store != nil {
		sink = store
	}

	r, err := DialRemote(context.Background(), RemoteOptions{
		URL:             "ws" + strings.TrimPrefix(srv.URL, "http"),
		ProtocolVersion: "1.0",
		RunID:           "run-1",
		Arena:           2,
		DecisionPeriod:  5,
		MaxSteps:        5000,
		DialTimeout:     time.Second,
		ReadTimeout:     2 * time.Second,
		Parameters:      sink,
	})
	if err != nil {
		t.Fatalf("DialRemote: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func actFor(obs ObsMsg, action []float64) ActMsg {
	return ActMsg{Type: TypeAct, ProtocolVersion: "1.0", Episode: obs.Episode, Step: obs.Step, Action: action}
}

func TestRemoteDecide(t *testing.T) {
	store := params.NewStore(nil)
	f := &fakeTrainer{
		welcome: map[string]float64{params.FeedRadius: 1.25},
		reply: func(obs ObsMsg) any {
			msg := actFor(obs, []float64{0.5, 2})
			msg.Parameters = map[string]float64{params.FishSpeed: 0}
			return msg
		},
	}
	r := dialFake(t, f, store)

	hello := <-f.hello
	if hello.ObservationSize != agent.ObservationSize || hello.ActionSize != agent.ActionSize || hello.Arena != 2 {
		t.Errorf("hello = %+v", hello)
	}
	if got := store.Get(params.FeedRadius, 0); got != 1.25 {
		t.Errorf("feed_radius after welcome = %v, want 1.25", got)
	}

	act, err := r.Decide(context.Background(), agent.Request{Episode: 1, Step: 5})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	want := agent.Action{Forward: 0.5, Turn: agent.TurnRight}
	if act != want {
		t.Errorf("got %+v, want %+v", act, want)
	}
	if got := store.Get(params.FishSpeed, 0.5); got != 0 {
		t.Errorf("fish_speed after act = %v, want 0", got)
	}

	r.EpisodeEnded(agent.Summary{Episode: 1, Steps: 40, Reward: 7.9, Reason: agent.EndCompleted})
	select {
	case end := <-f.ended:
		if end.Episode != 1 || end.Reason != "completed" {
			t.Errorf("episode end = %+v", end)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("trainer did not receive EPISODE_END")
	}
}

func TestRemoteSkipsStaleActs(t *testing.T) {
	f := &fakeTrainer{}
	first := true
	f.reply = func(obs ObsMsg) any {
		if first {
			first = false
			stale := actFor(obs, []float64{1, 1})
			stale.Step = obs.Step - 5
			return stale
		}
		return actFor(obs, []float64{0, 0})
	}
	r := dialFake(t, f, nil)
	<-f.hello

	// The stale answer is skipped; the read then blocks until the second OBS is answered.
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err := r.Decide(ctx, agent.Request{Episode: 1, Step: 10})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want DeadlineExceeded", err)
	}
}

func TestRemoteRejectsInvalidAct(t *testing.T) {
	f := &fakeTrainer{reply: func(obs ObsMsg) any {
		return actFor(obs, []float64{0.5, 3})
	}}
	r := dialFake(t, f, nil)
	<-f.hello

	_, err := r.Decide(context.Background(), agent.Request{Episode: 1, Step: 0})
	if !errors.Is(err, ErrProtocol) {
		t.Errorf("got %v, want ErrProtocol", err)
	}
}

func TestDecodeAct(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    agent.Action
		wantErr bool
	}{
		{
			name: "valid",
			msg:  `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1,1]}`,
			want: agent.Action{Forward: 1, Turn: agent.TurnLeft},
		},
		{
			name: "with parameters",
			msg:  `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[0,0],"parameters":{"feed_radius":2}}`,
			want: agent.Action{},
		},
		{
			name:    "forward out of range",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1.5,0]}`,
			wantErr: true,
		},
		{
			name:    "fractional selector",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1,0.5]}`,
			wantErr: true,
		},
		{
			name:    "short action",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1]}`,
			wantErr: true,
		},
		{
			name:    "missing step",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"action":[1,0]}`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1,0],"extra":true}`,
			wantErr: true,
		},
		{
			name:    "non-numeric parameter",
			msg:     `{"type":"ACT","protocol_version":"1.0","episode":1,"step":5,"action":[1,0],"parameters":{"feed_radius":"big"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got, err := DecodeAct([]byte(tt.msg))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}
