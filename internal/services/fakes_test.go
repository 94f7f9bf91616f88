package services

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/apollorio/rede/internal/models"
)

// fakeDB implements DB with per-call overrides. Unset funcs behave like an
// empty database.
type fakeDB struct {
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	BeginFunc    func(ctx context.Context) (Tx, error)
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if f.QueryRowFunc != nil {
		return f.QueryRowFunc(ctx, sql, args...)
	}
	return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return fakeCommandTag{}, nil
}

func (f *fakeDB) Begin(ctx context.Context) (Tx, error) {
	if f.BeginFunc != nil {
		return f.BeginFunc(ctx)
	}
	return &fakeTx{}, nil
}

type fakeTx struct {
	QueryRowFunc func(ctx context.Context, sql string, args ...any) Row
	QueryFunc    func(ctx context.Context, sql string, args ...any) (Rows, error)
	ExecFunc     func(ctx context.Context, sql string, args ...any) (CommandTag, error)
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) Row {
	if f.QueryRowFunc != nil {
		return f.QueryRowFunc(ctx, sql, args...)
	}
	return fakeRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	if f.QueryFunc != nil {
		return f.QueryFunc(ctx, sql, args...)
	}
	return &fakeRows{}, nil
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, sql, args...)
	}
	return fakeCommandTag{}, nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.CommitFunc != nil {
		return f.CommitFunc(ctx)
	}
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if f.RollbackFunc != nil {
		return f.RollbackFunc(ctx)
	}
	return nil
}

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (f fakeRow) Scan(dest ...any) error {
	return f.scanFunc(dest...)
}

// rowFromValues builds a Row whose Scan assigns values positionally.
func rowFromValues(values ...any) Row {
	return fakeRow{scanFunc: func(dest ...any) error {
		return assignValues(dest, values)
	}}
}

type fakeRows struct {
	rows [][]any
	idx  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.idx >= len(f.rows) {
		return false
	}
	f.idx++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	return assignValues(dest, f.rows[f.idx-1])
}

func (f *fakeRows) Close() {}

func (f *fakeRows) Err() error { return f.err }

type fakeCommandTag struct {
	rowsAffected int64
}

func (f fakeCommandTag) RowsAffected() int64 { return f.rowsAffected }

// fakeNotifier records dispatch calls so tests can assert on notification
// counts without a database.
type fakeNotifier struct {
	requestReceived    int
	requestAccepted    int
	membershipApproved int
	groupInvites       int
}

func (f *fakeNotifier) RequestReceived(ctx context.Context, recipientID, actorID uuid.UUID) {
	f.requestReceived++
}

func (f *fakeNotifier) RequestAccepted(ctx context.Context, recipientID, actorID uuid.UUID) {
	f.requestAccepted++
}

func (f *fakeNotifier) MembershipApproved(ctx context.Context, recipientID, actorID, groupID uuid.UUID) {
	f.membershipApproved++
}

func (f *fakeNotifier) GroupInvite(ctx context.Context, invite *models.InviteToken, token string) {
	f.groupInvites++
}

func assignValues(dest []any, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan mismatch: %d dest, %d values", len(dest), len(values))
	}
	for i, v := range values {
		dv := reflect.ValueOf(dest[i])
		if dv.Kind() != reflect.Pointer {
			return fmt.Errorf("dest %d is not a pointer", i)
		}
		elem := dv.Elem()
		if v == nil {
			elem.Set(reflect.Zero(elem.Type()))
			continue
		}
		sv := reflect.ValueOf(v)
		if sv.Type().AssignableTo(elem.Type()) {
			elem.Set(sv)
			continue
		}
		// Allow assigning a concrete value into a pointer dest, e.g. a
		// time.Time into a *time.Time column.
		if elem.Kind() == reflect.Pointer && sv.Type().AssignableTo(elem.Type().Elem()) {
			p := reflect.New(elem.Type().Elem())
			p.Elem().Set(sv)
			elem.Set(p)
			continue
		}
		if sv.Type().ConvertibleTo(elem.Type()) {
			elem.Set(sv.Convert(elem.Type()))
			continue
		}
		return fmt.Errorf("cannot assign %T to %s at index %d", v, elem.Type(), i)
	}
	return nil
}
