package endpoints

import (
	"errors"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/account"
	"github.com/promptweaver/weaver/internal/api"
	"github.com/promptweaver/weaver/internal/svcctx"
)

// ProvisionEndpoint handles POST /api/account/provision. It resolves the
// caller's session token to a user, idempotently creates the user's backing
// rows, and returns the resolved plan, status and balance.
type ProvisionEndpoint struct{}

func (e *ProvisionEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/account/provision", e.handler
}

func (e *ProvisionEndpoint) RequiresInit() bool { return true }

func (e *ProvisionEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	verifier := svcctx.VerifierFrom(r.Context())
	store := svcctx.AccountsFrom(r.Context())
	if verifier == nil || store == nil {
		writeError(w, http.StatusServiceUnavailable, "account services not initialized")
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

	prof, err := store.EnsureUser(r.Context(), user.ID, user.Email)
	if err != nil {
		if logger := svcctx.LoggerFrom(r.Context()); logger != nil {
			logger.Error("account provisioning failed", "user_id", user.ID, "error", err)
		}
		writeError(w, http.StatusInternalServerError, "failed to provision account")
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func (e *ProvisionEndpoint) Command(getServerURL func() string) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the signed-in user's account rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL()).WithToken(token)
			var resp account.Profile
			if err := client.Post(cmd.Context(), "/api/account/provision", nil, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Session bearer token (required)")
	return cmd
}
