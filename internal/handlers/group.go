package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/apollorio/rede/internal/models"
	"github.com/apollorio/rede/internal/services"
)

type GroupHandler struct {
	groups      services.GroupCatalog
	memberships services.MembershipEngine
	invites     services.InviteTokens
}

func NewGroupHandler(groups services.GroupCatalog, memberships services.MembershipEngine, invites services.InviteTokens) *GroupHandler {
	return &GroupHandler{
		groups:      groups,
		memberships: memberships,
		invites:     invites,
	}
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type JoinGroupResponse struct {
	Membership    *models.Membership `json:"membership,omitempty"`
	AlreadyMember bool               `json:"already_member"`
}

type InviteRequest struct {
	InviteeID    *string `json:"invitee_id,omitempty"`
	InviteeEmail *string `json:"invitee_email,omitempty"`
}

type InviteResponse struct {
	Invite *models.InviteToken `json:"invite"`
	// Token is only returned at issue time; thereafter only the hash exists.
	Token string `json:"token"`
}

type MemberListResponse struct {
	Members []models.MemberWithAccount `json:"members"`
}

type InviteListResponse struct {
	Invites []models.InviteToken `json:"invites"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func groupIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	group, err := h.groups.Create(r.Context(), *actor, models.CreateGroupParams{
		Name:        req.Name,
		Description: req.Description,
		Kind:        models.GroupKind(req.Kind),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	group, err := h.groups.GetByID(r.Context(), groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	result, err := h.memberships.Join(r.Context(), *actor, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if result.AlreadyMember {
		status = http.StatusOK
	}
	writeJSON(w, status, JoinGroupResponse{
		Membership:    result.Membership,
		AlreadyMember: result.AlreadyMember,
	})
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	if err := h.memberships.Leave(r.Context(), *actor, groupID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Left group"})
}

func (h *GroupHandler) Approve(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	targetID, err := uuid.Parse(r.PathValue("accountID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid account ID")
		return
	}

	if err := h.memberships.Approve(r.Context(), *actor, groupID, targetID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Membership approved"})
}

func (h *GroupHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	members, err := h.memberships.ListMembers(r.Context(), *actor, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MemberListResponse{Members: members})
}

func (h *GroupHandler) Invite(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var inviteeID *uuid.UUID
	if req.InviteeID != nil {
		id, err := uuid.Parse(*req.InviteeID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid invitee ID")
			return
		}
		inviteeID = &id
	}

	invite, token, err := h.memberships.Invite(r.Context(), *actor, groupID, inviteeID, req.InviteeEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, InviteResponse{Invite: invite, Token: token})
}

func (h *GroupHandler) ListInvites(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	groupID, ok := groupIDFromPath(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}

	invites, err := h.memberships.ListInvites(r.Context(), *actor, groupID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, InviteListResponse{Invites: invites})
}

func (h *GroupHandler) RevokeInvite(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	if actor == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	inviteID, err := uuid.Parse(r.PathValue("inviteID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid invite ID")
		return
	}

	if err := h.invites.Revoke(r.Context(), actor.ID, inviteID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Invite revoked"})
}
