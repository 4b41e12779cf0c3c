package policy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/penguin/agent"
)

// ErrProtocol is returned when the trainer breaks the message protocol.
var ErrProtocol = errors.New("remote: protocol violation")

// ParameterSink receives environment parameter updates from the trainer.
type ParameterSink interface {
	Update(values map[string]float64)
}

// RemoteOptions configures a trainer connection.
type RemoteOptions struct {
	URL             string
	ProtocolVersion string
	RunID           string
	Arena           int
	DecisionPeriod  int
	MaxSteps        int
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	Parameters      ParameterSink // optional
}

// Remote delegates decisions to an external trainer over a websocket.
// Each OBS is answered by exactly one ACT for the same episode and step.
type Remote struct {
	conn *websocket.Conn
	opts RemoteOptions

	writeMu sync.Mutex
}

// DialRemote connects to a trainer and performs the HELLO/WELCOME handshake.
func DialRemote(ctx context.Context, opts RemoteOptions) (*Remote, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	conn, _, err := dialer.DialContext(ctx, opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("dial trainer %s: %w", opts.URL, err)
	}

	r := &Remote{conn: conn, opts: opts}
	if err := r.handshake(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *Remote) handshake(ctx context.Context) error {
	hello := HelloMsg{
		Type:            TypeHello,
		ProtocolVersion: r.opts.ProtocolVersion,
		RunID:           r.opts.RunID,
		Arena:           r.opts.Arena,
		ObservationSize: agent.ObservationSize,
		ActionSize:      agent.ActionSize,
		DecisionPeriod:  r.opts.DecisionPeriod,
		MaxSteps:        r.opts.MaxSteps,
	}
	if err := r.write(hello); err != nil {
		return fmt.Errorf("send HELLO: %w", err)
	}

	msg, err := r.read(ctx)
	if err != nil {
		return fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := DecodeBase(msg)
	if err != nil || base.Type != TypeWelcome {
		return fmt.Errorf("%w: expected WELCOME", ErrProtocol)
	}
	if base.ProtocolVersion != r.opts.ProtocolVersion {
		return fmt.Errorf("%w: protocol_version %q, want %q", ErrProtocol, base.ProtocolVersion, r.opts.ProtocolVersion)
	}
	var welcome WelcomeMsg
	if err := json.Unmarshal(msg, &welcome); err != nil {
		return fmt.Errorf("decode WELCOME: %w", err)
	}
	r.applyParameters(welcome.Parameters)
	return nil
}

// Decide implements agent.Decider.
func (r *Remote) Decide(ctx context.Context, req agent.Request) (agent.Action, error) {
	obs := ObsMsg{
		Type:            TypeObs,
		ProtocolVersion: r.opts.ProtocolVersion,
		Episode:         req.Episode,
		Step:            req.Step,
		Observation:     req.Observation.Slice(),
		Reward:          req.Reward,
	}
	if err := r.write(obs); err != nil {
		return agent.Action{}, fmt.Errorf("send OBS: %w", err)
	}

	for {
		msg, err := r.read(ctx)
		if err != nil {
			return agent.Action{}, fmt.Errorf("read ACT: %w", err)
		}
		base, err := DecodeBase(msg)
		if err != nil || base.Type != TypeAct {
			continue
		}
		act, action, err := DecodeAct(msg)
		if err != nil {
			return agent.Action{}, fmt.Errorf("%w: %w", ErrProtocol, err)
		}
		if act.Episode != req.Episode || act.Step != req.Step {
			slog.Debug("stale_act", "episode", act.Episode, "step", act.Step, "want_step", req.Step)
			continue
		}
		r.applyParameters(act.Parameters)
		return action, nil
	}
}

// EpisodeEnded implements agent.Listener.
func (r *Remote) EpisodeEnded(s agent.Summary) {
	msg := EpisodeEndMsg{
		Type:            TypeEpisodeEnd,
		ProtocolVersion: r.opts.ProtocolVersion,
		Episode:         s.Episode,
		Steps:           s.Steps,
		Reward:          s.Reward,
		Reason:          string(s.Reason),
		FishEaten:       s.FishEaten,
		FishRemaining:   s.FishRemaining,
	}
	if err := r.write(msg); err != nil {
		slog.Warn("episode_end_send_failed", "arena", r.opts.Arena, "error", err)
	}
}

// Close ends the session.
func (r *Remote) Close() error {
	r.writeMu.Lock()
	_ = r.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
		time.Now().Add(time.Second))
	r.writeMu.Unlock()
	return r.conn.Close()
}

func (r *Remote) write(v any) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	_ = r.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return r.conn.WriteJSON(v)
}

// read returns the next message, honoring ctx cancellation and the read timeout.
func (r *Remote) read(ctx context.Context) ([]byte, error) {
	if r.opts.ReadTimeout > 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(r.opts.ReadTimeout))
	} else {
		_ = r.conn.SetReadDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		_ = r.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	_, msg, err := r.conn.ReadMessage()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	return msg, nil
}

func (r *Remote) applyParameters(values map[string]float64) {
	if len(values) == 0 || r.opts.Parameters == nil {
		return
	}
	r.opts.Parameters.Update(values)
	slog.Info("parameters_updated", "arena", r.opts.Arena, "values", values)
}
