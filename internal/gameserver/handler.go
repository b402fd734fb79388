package gameserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/cory-johannsen/rolling/internal/game/attack"
	"github.com/cory-johannsen/rolling/internal/game/description"
	"github.com/cory-johannsen/rolling/internal/game/event"
	"github.com/cory-johannsen/rolling/internal/observability"
	"github.com/cory-johannsen/rolling/internal/storage"
)

const healthTimeout = 2 * time.Second

// KindImpossibleAction tags rejections meant to be shown to the player.
const KindImpossibleAction = "impossible_action"

// HealthChecker reports whether a backing service is reachable.
type HealthChecker interface {
	Health(ctx context.Context, timeout time.Duration) error
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
	// Kind is KindImpossibleAction when the game rules refused the action.
	Kind string `json:"kind,omitempty"`
}

// Server serves the attack action and the event stream.
type Server struct {
	tx     Transactor
	fights *Fights
	hub    *Hub
	health HealthChecker
	logger *zap.Logger
}

// NewServer creates a Server.
//
// Precondition: every argument must be non-nil.
func NewServer(tx Transactor, fights *Fights, hub *Hub, health HealthChecker, logger *zap.Logger) *Server {
	return &Server{tx: tx, fights: fights, hub: hub, health: health, logger: logger}
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.HandleFunc(
		"/character/{id}/with-character-action/"+attack.ActionType+"/{target_id}/{description_id}",
		s.handleAttack,
	).Methods(http.MethodPost)
	r.HandleFunc("/character/{id}/events/ws", s.hub.ServeWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return r
}

type loggerKey struct{}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger, id := observability.RequestLogger(s.logger)
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), loggerKey{}, logger)))
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) requestLogger(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return s.logger
}

func (s *Server) handleAttack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	attackerID, targetID := vars["id"], vars["target_id"]
	logger := observability.CharacterLogger(s.requestLogger(ctx), attackerID)

	in, err := attack.ParseQuery(r.URL.Query())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	in.DescriptionID = vars["description_id"]
	if attackerID == targetID {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "a character cannot attack itself"})
		return
	}

	var (
		desc      *description.Description
		published []event.Event
	)
	err = s.tx.InTx(ctx, func(st Stores) error {
		attacker, err := st.Characters.Get(ctx, attackerID)
		if err != nil {
			return err
		}
		target, err := st.Characters.Get(ctx, targetID)
		if err != nil {
			return err
		}
		if err := reachable(attacker.Alive, target.Alive, attacker.World == target.World, target.Name); err != nil {
			return err
		}

		recorder := &recordingEvents{Events: st.Events}
		st.Events = recorder
		desc, err = s.fights.Action(st, logger).Perform(ctx, attacker, target, in)
		if err != nil {
			return err
		}
		published = recorder.added
		return nil
	})

	switch {
	case err == nil:
		s.hub.Publish(published...)
		logger.Info("attack handled",
			zap.String("target", targetID),
			zap.Stringer("state", attack.StateOf(in)),
			zap.Int("events", len(published)),
		)
		writeJSON(w, http.StatusOK, desc)
	case attack.IsImpossible(err):
		logger.Info("attack refused", zap.String("target", targetID), zap.String("reason", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Kind: KindImpossibleAction})
	case errors.Is(err, storage.ErrCharacterNotFound), errors.Is(err, storage.ErrAffinityNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		logger.Error("attack failed", zap.String("target", targetID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// reachable checks that both characters are alive and on the same world tile.
func reachable(attackerAlive, targetAlive, sameTile bool, targetName string) error {
	switch {
	case !attackerAlive:
		return &attack.ImpossibleActionError{Message: "Vous êtes mort"}
	case !targetAlive:
		return &attack.ImpossibleActionError{Message: fmt.Sprintf("%s est déjà mort", targetName)}
	case !sameTile:
		return &attack.ImpossibleActionError{Message: fmt.Sprintf("%s n'est pas à portée", targetName)}
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health.Health(r.Context(), healthTimeout); err != nil {
		s.requestLogger(r.Context()).Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack lets the event stream upgrade a logged request.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
