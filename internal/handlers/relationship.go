package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
	"github.com/apollorio/rede/internal/services"
)

type RelationshipHandler struct {
	relationships services.RelationshipEngine
}

func NewRelationshipHandler(relationships services.RelationshipEngine) *RelationshipHandler {
	return &RelationshipHandler{relationships: relationships}
}

type RelationshipStateResponse struct {
	State models.RelationshipState `json:"state"`
}

type FriendListResponse struct {
	Friends []models.FriendWithAccount `json:"friends"`
}

type RequestListResponse struct {
	Requests []models.RelationshipRequest `json:"requests"`
}

type SentListResponse struct {
	Sent []models.FriendWithAccount `json:"sent"`
}

// otherAccountID pulls the {id} path value, the account on the far side of
// the relationship.
func otherAccountID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func (h *RelationshipHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	other, ok := otherAccountID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	state, err := h.relationships.Status(r.Context(), actor.ID, other)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RelationshipStateResponse{State: state})
}

// Request answers 201 only when a fresh pending edge was written; idempotent
// repeats and symmetric merges report the settled state with 200.
func (h *RelationshipHandler) Request(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	other, ok := otherAccountID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	state, created, err := h.relationships.Request(r.Context(), *actor, other)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, RelationshipStateResponse{State: state})
}

func (h *RelationshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.relationships.Accept)
}

func (h *RelationshipHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.relationships.Reject)
}

func (h *RelationshipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.relationships.Cancel)
}

func (h *RelationshipHandler) Remove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.relationships.Remove)
}

// mutate is the shared shape of the settle endpoints: resolve the actor and
// the other account, run the transition, report the resulting state.
func (h *RelationshipHandler) mutate(w http.ResponseWriter, r *http.Request,
	op func(ctx context.Context, actor models.Actor, other uuid.UUID) (models.RelationshipState, error)) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	other, ok := otherAccountID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	state, err := op(r.Context(), *actor, other)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RelationshipStateResponse{State: state})
}

func (h *RelationshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	friends, err := h.relationships.ListFriends(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, FriendListResponse{Friends: friends})
}

func (h *RelationshipHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	requests, err := h.relationships.ListPendingRequests(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RequestListResponse{Requests: requests})
}

func (h *RelationshipHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	sent, err := h.relationships.ListSentRequests(r.Context(), actor.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SentListResponse{Sent: sent})
}
