package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/apollorio/rede/internal/models"
)

func edgeRowValues(id, initiatorID, targetID uuid.UUID, status models.EdgeStatus) []any {
	return []any{id, initiatorID, targetID, status, time.Now(), nil}
}

func acceptedEdgeRowValues(id, initiatorID, targetID uuid.UUID) []any {
	return []any{id, initiatorID, targetID, models.EdgeStatusAccepted, time.Now(), time.Now()}
}

func TestRelationshipService_Status_NoEdge(t *testing.T) {
	svc := NewRelationshipService(&fakeDB{}, &fakeNotifier{})
	state, err := svc.Status(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestRelationshipService_Status_Directional(t *testing.T) {
	viewer := uuid.New()
	other := uuid.New()
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(edgeRowValues(uuid.New(), viewer, other, models.EdgeStatusPending)...)
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Status(context.Background(), viewer, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipPendingSent {
		t.Fatalf("expected pending_sent for initiator, got %s", state)
	}

	state, err = svc.Status(context.Background(), other, viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipPendingReceived {
		t.Fatalf("expected pending_received for target, got %s", state)
	}
}

func TestRelationshipService_Request_Self(t *testing.T) {
	svc := NewRelationshipService(&fakeDB{}, &fakeNotifier{})
	actor := models.Actor{ID: uuid.New()}
	_, _, err := svc.Request(context.Background(), actor, actor.ID)
	if !errors.Is(err, ErrSelfRelationship) {
		t.Fatalf("expected ErrSelfRelationship, got %v", err)
	}
}

func TestRelationshipService_Request_UnknownAccount(t *testing.T) {
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(false)
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})
	_, _, err := svc.Request(context.Background(), models.Actor{ID: uuid.New()}, uuid.New())
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestRelationshipService_Request_Fresh(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	other := uuid.New()
	notifier := &fakeNotifier{}
	var inserted bool
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT EXISTS") {
				return rowFromValues(true)
			}
			return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "INSERT INTO relationship_edges") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			inserted = true
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, created, err := svc.Request(context.Background(), actor, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipPendingSent {
		t.Fatalf("expected pending_sent, got %s", state)
	}
	if !created {
		t.Fatal("fresh request must report created")
	}
	if !inserted {
		t.Fatal("expected edge insert")
	}
	if notifier.requestReceived != 1 {
		t.Fatalf("expected 1 request notification, got %d", notifier.requestReceived)
	}
}

func TestRelationshipService_Request_RepeatIsNoOp(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	other := uuid.New()
	notifier := &fakeNotifier{}
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT EXISTS") {
				return rowFromValues(true)
			}
			return rowFromValues(edgeRowValues(uuid.New(), actor.ID, other, models.EdgeStatusPending)...)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			t.Fatalf("unexpected write: %q", sql)
			return fakeCommandTag{}, nil
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, created, err := svc.Request(context.Background(), actor, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipPendingSent {
		t.Fatalf("expected pending_sent, got %s", state)
	}
	if created {
		t.Fatal("repeat request must not report created")
	}
	if notifier.requestReceived != 0 {
		t.Fatal("repeat request must not re-notify")
	}
}

func TestRelationshipService_Request_MergesIncomingRequest(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	other := uuid.New()
	notifier := &fakeNotifier{}
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT EXISTS") {
				return rowFromValues(true)
			}
			// The other side already asked.
			return rowFromValues(edgeRowValues(uuid.New(), other, actor.ID, models.EdgeStatusPending)...)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "UPDATE relationship_edges") {
				t.Fatalf("expected merge update, got %q", sql)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, created, err := svc.Request(context.Background(), actor, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipFriends {
		t.Fatalf("expected friends after merge, got %s", state)
	}
	if created {
		t.Fatal("merge must not report a fresh request")
	}
	if notifier.requestAccepted != 1 {
		t.Fatalf("expected 1 accepted notification, got %d", notifier.requestAccepted)
	}
	if notifier.requestReceived != 0 {
		t.Fatal("merge must not fire a request notification")
	}
}

func TestRelationshipService_Request_LostInsertRaceMerges(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	other := uuid.New()
	notifier := &fakeNotifier{}
	edgeReads := 0
	db := &fakeDB{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			if strings.Contains(sql, "SELECT EXISTS") {
				return rowFromValues(true)
			}
			edgeReads++
			if edgeReads == 1 {
				// Nothing there when we first looked.
				return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
			}
			// The concurrent request landed in between.
			return rowFromValues(edgeRowValues(uuid.New(), other, actor.ID, models.EdgeStatusPending)...)
		},
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if strings.Contains(sql, "INSERT INTO relationship_edges") {
				return nil, &pgconn.PgError{Code: "23505"}
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, created, err := svc.Request(context.Background(), actor, other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipFriends {
		t.Fatalf("expected friends after lost race, got %s", state)
	}
	if created {
		t.Fatal("lost insert race must not report a fresh request")
	}
	if notifier.requestAccepted != 1 {
		t.Fatalf("expected 1 accepted notification, got %d", notifier.requestAccepted)
	}
}

func TestRelationshipService_Accept_Success(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	requester := uuid.New()
	notifier := &fakeNotifier{}
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "UPDATE relationship_edges") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, err := svc.Accept(context.Background(), actor, requester)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipFriends {
		t.Fatalf("expected friends, got %s", state)
	}
	if notifier.requestAccepted != 1 {
		t.Fatalf("expected 1 accepted notification, got %d", notifier.requestAccepted)
	}
}

func TestRelationshipService_Accept_AlreadyResolved(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	requester := uuid.New()
	notifier := &fakeNotifier{}
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			return rowFromValues(acceptedEdgeRowValues(uuid.New(), requester, actor.ID)...)
		},
	}
	svc := NewRelationshipService(db, notifier)

	state, err := svc.Accept(context.Background(), actor, requester)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipFriends {
		t.Fatalf("expected friends, got %s", state)
	}
	if notifier.requestAccepted != 0 {
		t.Fatal("double accept must not re-notify")
	}
}

func TestRelationshipService_Reject_Success(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "DELETE FROM relationship_edges") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Reject(context.Background(), models.Actor{ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestRelationshipService_Reject_AlreadyGone(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Reject(context.Background(), models.Actor{ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestRelationshipService_Cancel_SettledConcurrently(t *testing.T) {
	actor := models.Actor{ID: uuid.New()}
	target := uuid.New()
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) Row {
			// The other side accepted before we cancelled.
			return rowFromValues(acceptedEdgeRowValues(uuid.New(), actor.ID, target)...)
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Cancel(context.Background(), actor, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipFriends {
		t.Fatalf("expected friends after lost cancel race, got %s", state)
	}
}

func TestRelationshipService_Remove_Success(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			if !strings.Contains(sql, "DELETE FROM relationship_edges") {
				t.Fatalf("unexpected sql: %q", sql)
			}
			return fakeCommandTag{rowsAffected: 1}, nil
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Remove(context.Background(), models.Actor{ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestRelationshipService_Remove_MissingIsNoOp(t *testing.T) {
	db := &fakeDB{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (CommandTag, error) {
			return fakeCommandTag{rowsAffected: 0}, nil
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	state, err := svc.Remove(context.Background(), models.Actor{ID: uuid.New()}, uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != models.RelationshipNone {
		t.Fatalf("expected none, got %s", state)
	}
}

func TestRelationshipService_ListFriends(t *testing.T) {
	viewer := uuid.New()
	friendID := uuid.New()
	db := &fakeDB{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (Rows, error) {
			return &fakeRows{rows: [][]any{
				{uuid.New(), viewer, friendID, models.EdgeStatusAccepted, time.Now(), time.Now(), "blas"},
			}}, nil
		},
	}
	svc := NewRelationshipService(db, &fakeNotifier{})

	friends, err := svc.ListFriends(context.Background(), viewer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(friends) != 1 {
		t.Fatalf("expected 1 friend, got %d", len(friends))
	}
	if friends[0].FriendUsername != "blas" {
		t.Fatalf("unexpected friend: %+v", friends[0])
	}
}

func TestRelationshipService_ListPendingRequests_Empty(t *testing.T) {
	svc := NewRelationshipService(&fakeDB{}, &fakeNotifier{})
	requests, err := svc.ListPendingRequests(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if requests == nil || len(requests) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", requests)
	}
}
