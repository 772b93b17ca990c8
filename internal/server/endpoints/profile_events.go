package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/account"
	"github.com/promptweaver/weaver/internal/svcctx"
)

// ProfileEventsEndpoint handles GET /api/profile/events. It streams the
// caller's plan, status and balance changes as server-sent events until the
// client disconnects.
type ProfileEventsEndpoint struct{}

func (e *ProfileEventsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/profile/events", e.handler
}

func (e *ProfileEventsEndpoint) RequiresInit() bool { return true }

func (e *ProfileEventsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	verifier := svcctx.VerifierFrom(r.Context())
	feed := svcctx.ProfileFeedFrom(r.Context())
	if verifier == nil || feed == nil {
		writeError(w, http.StatusServiceUnavailable, "profile feed not initialized")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	user, err := verifier.Verify(r.Context(), bearerToken(r))
	if err != nil {
		if errors.Is(err, account.ErrUnauthorized) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	sub, err := feed.Subscribe(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open profile feed")
		return
	}
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-sub.Updates():
			if !ok {
				return
			}
			payload, err := json.Marshal(u)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: profile\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

func (e *ProfileEventsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile-events",
		Short: "Stream profile updates for the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("profile events are a streaming endpoint; connect with curl -N %s/api/profile/events", getServerURL())
		},
	}
}
