package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// Placeholder styles of the supported guest databases.
const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// GuestRepo reads and writes the shared `guests` table.
type GuestRepo struct {
	DB      *sql.DB
	dialect string
	newID   func() string
}

func NewGuestRepo(db *sql.DB, dialect string) *GuestRepo {
	return &GuestRepo{DB: db, dialect: dialect, newID: uuid.NewString}
}

const guestColumns = "id,name,guest_count,number_confirmations,table_number,did_confirm,invite_token,email,phone_number"

// rebind rewrites ? placeholders as $1..$n for Postgres.
func (r *GuestRepo) rebind(q string) string {
	if r.dialect != DialectPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, ch := range q {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuest(s rowScanner) (model.Guest, error) {
	var (
		g         model.Guest
		name      sql.NullString
		party     sql.NullInt64
		confirmed sql.NullInt64
		table     sql.NullInt64
		did       sql.NullBool
		token     sql.NullString
		email     sql.NullString
		phone     sql.NullString
	)
	if err := s.Scan(&g.ID, &name, &party, &confirmed, &table, &did, &token, &email, &phone); err != nil {
		return model.Guest{}, err
	}
	if name.Valid {
		g.Name = &name.String
	}
	g.PartySize = int(party.Int64)
	g.ConfirmedCount = int(confirmed.Int64)
	if table.Valid {
		n := int(table.Int64)
		g.TableNumber = &n
	}
	if did.Valid {
		g.Confirmed = &did.Bool
	}
	g.InviteToken = token.String
	if email.Valid {
		g.Email = &email.String
	}
	if phone.Valid {
		g.Phone = &phone.String
	}
	return g, nil
}

// ListGuests returns every guest ordered by name.
func (r *GuestRepo) ListGuests(ctx context.Context) ([]model.Guest, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+guestColumns+" FROM guests ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Guest{}
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// GetByID fetches one guest.
func (r *GuestRepo) GetByID(ctx context.Context, id string) (model.Guest, error) {
	row := r.DB.QueryRowContext(ctx, r.rebind("SELECT "+guestColumns+" FROM guests WHERE id=? LIMIT 1"), id)
	g, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// GetByInviteToken resolves the token of an RSVP link.
func (r *GuestRepo) GetByInviteToken(ctx context.Context, token string) (model.Guest, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return model.Guest{}, ErrGuestNotFound
	}
	row := r.DB.QueryRowContext(ctx, r.rebind("SELECT "+guestColumns+" FROM guests WHERE invite_token=? LIMIT 1"), token)
	g, err := scanGuest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Guest{}, ErrGuestNotFound
	}
	return g, err
}

// SetTableNumber writes the guest's table assignment; nil clears it.
func (r *GuestRepo) SetTableNumber(ctx context.Context, id string, tableNumber *int) error {
	var v any
	if tableNumber != nil {
		v = *tableNumber
	}
	res, err := r.DB.ExecContext(ctx, r.rebind("UPDATE guests SET table_number=? WHERE id=?"), v, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGuestNotFound
	}
	return nil
}

// RespondRSVP records the answer of the guest holding token.  Attending
// guests confirm between 1 and their party size; a decline must carry a
// count of 0.  A guest can answer only once.
func (r *GuestRepo) RespondRSVP(ctx context.Context, token string, attending bool, count int) (model.Guest, error) {
	g, err := r.GetByInviteToken(ctx, token)
	if err != nil {
		return model.Guest{}, err
	}
	if g.Confirmed != nil {
		return model.Guest{}, ErrAlreadyResponded
	}
	maxCount := g.PartySize
	if maxCount < 1 {
		maxCount = 1
	}
	switch {
	case attending && (count < 1 || count > maxCount):
		return model.Guest{}, fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRSVP, maxCount)
	case !attending && count != 0:
		return model.Guest{}, fmt.Errorf("%w: a decline has no attendees", ErrInvalidRSVP)
	}

	res, err := r.DB.ExecContext(ctx,
		r.rebind("UPDATE guests SET did_confirm=?, number_confirmations=? WHERE id=? AND did_confirm IS NULL"),
		attending, count, g.ID)
	if err != nil {
		return model.Guest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Guest{}, err
	}
	if n == 0 {
		return model.Guest{}, ErrAlreadyResponded
	}
	g.Confirmed = &attending
	g.ConfirmedCount = count
	return g, nil
}

func nullable(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

const qInsertGuest = "INSERT INTO guests (id,name,guest_count,number_confirmations,table_number,did_confirm,invite_token,email,phone_number) VALUES (?,?,?,0,NULL,NULL,?,?,?)"

// draftRow builds the stored guest and the insert arguments for d.  The id
// and the invite token are fresh uuids.
func (r *GuestRepo) draftRow(d model.GuestDraft) (model.Guest, []any) {
	g := model.Guest{ID: r.newID(), PartySize: d.PartySize, InviteToken: r.newID()}
	name := strings.TrimSpace(d.Name)
	g.Name = &name
	email, phone := nullable(d.Email), nullable(d.Phone)
	if email != nil {
		v := email.(string)
		g.Email = &v
	}
	if phone != nil {
		v := phone.(string)
		g.Phone = &v
	}
	return g, []any{g.ID, name, g.PartySize, g.InviteToken, email, phone}
}

// CreateGuest inserts a pending, unseated guest with a new invite token.
func (r *GuestRepo) CreateGuest(ctx context.Context, d model.GuestDraft) (model.Guest, error) {
	if d.PartySize < 0 {
		return model.Guest{}, fmt.Errorf("%w: guest_count must not be negative", ErrInvalidGuest)
	}
	g, args := r.draftRow(d)
	if _, err := r.DB.ExecContext(ctx, r.rebind(qInsertGuest), args...); err != nil {
		return model.Guest{}, err
	}
	return g, nil
}

// UpdateGuest writes the non-nil fields of u and returns the stored row.
// Setting the status to pending clears did_confirm.
func (r *GuestRepo) UpdateGuest(ctx context.Context, id string, u model.GuestUpdate) (model.Guest, error) {
	var (
		sets []string
		args []any
	)
	if u.Name != nil {
		sets, args = append(sets, "name=?"), append(args, strings.TrimSpace(*u.Name))
	}
	if u.PartySize != nil {
		if *u.PartySize < 0 {
			return model.Guest{}, fmt.Errorf("%w: guest_count must not be negative", ErrInvalidGuest)
		}
		sets, args = append(sets, "guest_count=?"), append(args, *u.PartySize)
	}
	if u.Phone != nil {
		sets, args = append(sets, "phone_number=?"), append(args, nullable(*u.Phone))
	}
	if u.Email != nil {
		sets, args = append(sets, "email=?"), append(args, nullable(*u.Email))
	}
	if u.ConfirmedCount != nil {
		if *u.ConfirmedCount < 0 {
			return model.Guest{}, fmt.Errorf("%w: number_confirmations must not be negative", ErrInvalidGuest)
		}
		sets, args = append(sets, "number_confirmations=?"), append(args, *u.ConfirmedCount)
	}
	if u.Status != nil {
		var did any
		switch *u.Status {
		case model.StatusPending:
		case model.StatusConfirmed:
			did = true
		case model.StatusDeclined:
			did = false
		default:
			return model.Guest{}, fmt.Errorf("%w: unknown status %q", ErrInvalidGuest, *u.Status)
		}
		sets, args = append(sets, "did_confirm=?"), append(args, did)
	}
	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	q := "UPDATE guests SET " + strings.Join(sets, ",") + " WHERE id=?"
	res, err := r.DB.ExecContext(ctx, r.rebind(q), append(args, id)...)
	if err != nil {
		return model.Guest{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Guest{}, err
	}
	if n == 0 {
		return model.Guest{}, ErrGuestNotFound
	}
	return r.GetByID(ctx, id)
}

// DeleteGuest removes the guest row.
func (r *GuestRepo) DeleteGuest(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.rebind("DELETE FROM guests WHERE id=?"), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGuestNotFound
	}
	return nil
}
