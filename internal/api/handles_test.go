package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestHandlesLifecycle(t *testing.T) {
	env := setupTest(t)
	_, playerToken := seedPlayer(t, env, 0)

	resp := env.do(t, http.MethodPost, "/handles", playerToken, `{"handle":"ace-main"}`)
	wantStatus(t, resp, http.StatusCreated)
	var created struct {
		ID     uuid.UUID `json:"id"`
		Handle string    `json:"handle"`
	}
	decodeBody(t, resp, &created)
	if created.Handle != "ace-main" {
		t.Fatalf("expected handle ace-main, got %q", created.Handle)
	}

	resp = env.do(t, http.MethodPost, "/handles", playerToken, `{"handle":""}`)
	wantStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/handles", playerToken, "")
	wantStatus(t, resp, http.StatusOK)
	var listing struct {
		Handles []struct {
			ID uuid.UUID `json:"id"`
		} `json:"handles"`
	}
	decodeBody(t, resp, &listing)
	if len(listing.Handles) != 1 {
		t.Fatalf("expected 1 handle, got %d", len(listing.Handles))
	}

	// Another account cannot delete it.
	_, otherToken := seedPlayer(t, env, 0)
	resp = env.do(t, http.MethodDelete, "/handles/"+created.ID.String(), otherToken, "")
	wantStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/handles/"+created.ID.String(), playerToken, "")
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}
