package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/wedding-seating/internal/model"
)

var guestCols = []string{"id", "name", "guest_count", "number_confirmations", "table_number", "did_confirm", "invite_token", "email", "phone_number"}

func newMock(t *testing.T, dialect string) (*GuestRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewGuestRepo(db, dialect), mock
}

func TestGuestRepo_ListGuests(t *testing.T) {
	repo, mock := newMock(t, DialectMySQL)
	mock.ExpectQuery("SELECT " + guestColumns + " FROM guests ORDER BY name").
		WillReturnRows(sqlmock.NewRows(guestCols).
			AddRow("g1", "Ana", 3, 2, 5, true, "tok1", "ana@example.com", nil).
			AddRow("g2", nil, nil, nil, nil, nil, nil, nil, nil))

	guests, err := repo.ListGuests(context.Background())
	require.NoError(t, err)
	require.Len(t, guests, 2)

	ana := guests[0]
	assert.Equal(t, "Ana", *ana.Name)
	assert.Equal(t, 3, ana.PartySize)
	assert.Equal(t, 2, ana.SeatsNeeded())
	n, seated := ana.AssignedTable()
	assert.True(t, seated)
	assert.Equal(t, 5, n)
	assert.Equal(t, "tok1", ana.InviteToken)
	assert.Nil(t, ana.Phone)

	blank := guests[1]
	assert.Nil(t, blank.Name)
	assert.Nil(t, blank.TableNumber)
	assert.Nil(t, blank.Confirmed)
	assert.Equal(t, 1, blank.SeatsNeeded())
}

func TestGuestRepo_SetTableNumber(t *testing.T) {
	tests := []struct {
		name    string
		dialect string
		query   string
		table   *int
		result  int64
		wantErr error
	}{
		{name: "mysql assign", dialect: DialectMySQL, query: "UPDATE guests SET table_number=? WHERE id=?", table: intPtr(5), result: 1},
		{name: "postgres clear", dialect: DialectPostgres, query: "UPDATE guests SET table_number=$1 WHERE id=$2", result: 1},
		{name: "unknown guest", dialect: DialectMySQL, query: "UPDATE guests SET table_number=? WHERE id=?", table: intPtr(1), result: 0, wantErr: ErrGuestNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t, tt.dialect)
			var arg any
			if tt.table != nil {
				arg = *tt.table
			}
			mock.ExpectExec(tt.query).WithArgs(arg, "g1").WillReturnResult(sqlmock.NewResult(0, tt.result))

			err := repo.SetTableNumber(context.Background(), "g1", tt.table)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGuestRepo_SetTableNumber_DriverError(t *testing.T) {
	repo, mock := newMock(t, DialectMySQL)
	mock.ExpectExec("UPDATE guests SET table_number=? WHERE id=?").WillReturnError(errors.New("conn reset"))

	err := repo.SetTableNumber(context.Background(), "g1", intPtr(2))
	assert.ErrorContains(t, err, "conn reset")
}

func TestGuestRepo_GetByInviteToken(t *testing.T) {
	repo, mock := newMock(t, DialectPostgres)
	mock.ExpectQuery("SELECT " + guestColumns + " FROM guests WHERE invite_token=$1 LIMIT 1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByInviteToken(context.Background(), " missing ")
	assert.ErrorIs(t, err, ErrGuestNotFound)

	_, err = repo.GetByInviteToken(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrGuestNotFound)
}

func TestGuestRepo_RespondRSVP(t *testing.T) {
	const selectByToken = "SELECT " + guestColumns + " FROM guests WHERE invite_token=? LIMIT 1"
	const update = "UPDATE guests SET did_confirm=?, number_confirmations=? WHERE id=? AND did_confirm IS NULL"
	pending := func() *sqlmock.Rows {
		return sqlmock.NewRows(guestCols).AddRow("g1", "Ana", 3, 0, nil, nil, "tok", nil, nil)
	}

	t.Run("confirm", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectQuery(selectByToken).WithArgs("tok").WillReturnRows(pending())
		mock.ExpectExec(update).WithArgs(true, 2, "g1").WillReturnResult(sqlmock.NewResult(0, 1))

		g, err := repo.RespondRSVP(context.Background(), "tok", true, 2)
		require.NoError(t, err)
		assert.Equal(t, "confirmed", string(g.Status()))
		assert.Equal(t, 2, g.ConfirmedCount)
	})

	t.Run("decline", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectQuery(selectByToken).WithArgs("tok").WillReturnRows(pending())
		mock.ExpectExec(update).WithArgs(false, 0, "g1").WillReturnResult(sqlmock.NewResult(0, 1))

		g, err := repo.RespondRSVP(context.Background(), "tok", false, 0)
		require.NoError(t, err)
		assert.Equal(t, "declined", string(g.Status()))
	})

	t.Run("count above party size", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectQuery(selectByToken).WithArgs("tok").WillReturnRows(pending())

		_, err := repo.RespondRSVP(context.Background(), "tok", true, 4)
		assert.ErrorIs(t, err, ErrInvalidRSVP)
	})

	t.Run("already answered", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectQuery(selectByToken).WithArgs("tok").
			WillReturnRows(sqlmock.NewRows(guestCols).AddRow("g1", "Ana", 3, 3, nil, true, "tok", nil, nil))

		_, err := repo.RespondRSVP(context.Background(), "tok", true, 1)
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	})

	t.Run("lost race", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectQuery(selectByToken).WithArgs("tok").WillReturnRows(pending())
		mock.ExpectExec(update).WithArgs(true, 1, "g1").WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.RespondRSVP(context.Background(), "tok", true, 1)
		assert.ErrorIs(t, err, ErrAlreadyResponded)
	})
}

func sequence(ids ...string) func() string {
	i := 0
	return func() string {
		id := ids[i]
		i++
		return id
	}
}

func TestGuestRepo_CreateGuest(t *testing.T) {
	repo, mock := newMock(t, DialectPostgres)
	repo.newID = sequence("g1", "tok1")
	mock.ExpectExec("INSERT INTO guests (id,name,guest_count,number_confirmations,table_number,did_confirm,invite_token,email,phone_number) VALUES ($1,$2,$3,0,NULL,NULL,$4,$5,$6)").
		WithArgs("g1", "Ana", 3, "tok1", nil, "+34 600 111 222").
		WillReturnResult(sqlmock.NewResult(0, 1))

	g, err := repo.CreateGuest(context.Background(), model.GuestDraft{Name: " Ana ", PartySize: 3, Phone: "+34 600 111 222", Email: " "})
	require.NoError(t, err)
	assert.Equal(t, "g1", g.ID)
	assert.Equal(t, "tok1", g.InviteToken)
	assert.Equal(t, "Ana", *g.Name)
	assert.Nil(t, g.Email)
	assert.Equal(t, model.StatusPending, g.Status())
	_, seated := g.AssignedTable()
	assert.False(t, seated)

	_, err = repo.CreateGuest(context.Background(), model.GuestDraft{Name: "Neg", PartySize: -1})
	assert.ErrorIs(t, err, ErrInvalidGuest)
}

func TestGuestRepo_UpdateGuest(t *testing.T) {
	const selectByID = "SELECT " + guestColumns + " FROM guests WHERE id=? LIMIT 1"
	name, count := "Ana María", 2
	pending := model.StatusPending

	t.Run("partial", func(t *testing.T) {
		repo, mock := newMock(t, DialectMySQL)
		mock.ExpectExec("UPDATE guests SET name=?,number_confirmations=?,did_confirm=? WHERE id=?").
			WithArgs("Ana María", 2, nil, "g1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(selectByID).WithArgs("g1").
			WillReturnRows(sqlmock.NewRows(guestCols).AddRow("g1", "Ana María", 3, 2, 4, nil, "tok", nil, nil))

		g, err := repo.UpdateGuest(context.Background(), "g1", model.GuestUpdate{Name: &name, ConfirmedCount: &count, Status: &pending})
		require.NoError(t, err)
		assert.Equal(t, "Ana María", *g.Name)
		assert.Equal(t, intPtr(4), g.TableNumber)
	})

	t.Run("unknown guest", func(t *testing.T) {
		repo, mock := newMock(t, DialectPostgres)
		mock.ExpectExec("UPDATE guests SET name=$1 WHERE id=$2").WithArgs("Ana María", "nope").
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := repo.UpdateGuest(context.Background(), "nope", model.GuestUpdate{Name: &name})
		assert.ErrorIs(t, err, ErrGuestNotFound)
	})

	t.Run("invalid", func(t *testing.T) {
		repo, _ := newMock(t, DialectMySQL)
		neg := -1
		_, err := repo.UpdateGuest(context.Background(), "g1", model.GuestUpdate{PartySize: &neg})
		assert.ErrorIs(t, err, ErrInvalidGuest)
		maybe := model.ConfirmationStatus("maybe")
		_, err = repo.UpdateGuest(context.Background(), "g1", model.GuestUpdate{Status: &maybe})
		assert.ErrorIs(t, err, ErrInvalidGuest)
	})
}

func TestGuestRepo_DeleteGuest(t *testing.T) {
	repo, mock := newMock(t, DialectMySQL)
	mock.ExpectExec("DELETE FROM guests WHERE id=?").WithArgs("g1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM guests WHERE id=?").WithArgs("g1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteGuest(context.Background(), "g1"))
	assert.ErrorIs(t, repo.DeleteGuest(context.Background(), "g1"), ErrGuestNotFound)
}

func intPtr(n int) *int { return &n }
