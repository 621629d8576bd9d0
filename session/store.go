package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// DefaultTokenSlot is the slot holding the opaque token.
	DefaultTokenSlot = "auth_token"
	// DefaultUserSlot is the slot holding the JSON encoded user.
	DefaultUserSlot = "auth_user"
)

// ErrRecordNotFound is returned by Load when neither slot is present.
var ErrRecordNotFound = errors.New("session record not found")

// ErrRecordOrphaned is returned by Load when exactly one slot was present.
// The orphan slot has been removed by the time it is returned.
var ErrRecordOrphaned = errors.New("session record missing a slot")

// ErrRecordCorrupt is returned by Load when the user slot does not decode to a
// usable user. Both slots have been removed by the time it is returned.
var ErrRecordCorrupt = errors.New("session record corrupt")

// Store reads and writes the two-slot session [Record] on a [KV].
type Store struct {
	kv        KV
	tokenSlot string
	userSlot  string
}

// NewStore creates a [Store] over kv. Empty slot names fall back to
// [DefaultTokenSlot] and [DefaultUserSlot].
func NewStore(kv KV, tokenSlot, userSlot string) *Store {
	if tokenSlot == "" {
		tokenSlot = DefaultTokenSlot
	}
	if userSlot == "" {
		userSlot = DefaultUserSlot
	}
	return &Store{
		kv:        kv,
		tokenSlot: tokenSlot,
		userSlot:  userSlot,
	}
}

// TokenSlot returns the token slot name.
func (s *Store) TokenSlot() string { return s.tokenSlot }

// UserSlot returns the user slot name.
func (s *Store) UserSlot() string { return s.userSlot }

// Save writes the token slot, then the user slot. If the user write fails the
// token slot is removed again so a failed Save never leaves a half record.
func (s *Store) Save(ctx context.Context, rec Record) error {
	if rec.Token == "" || !rec.User.Valid() {
		return errors.New("session record requires token, user id and email")
	}

	data, err := json.Marshal(rec.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	if err := s.kv.Set(ctx, s.tokenSlot, rec.Token); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.userSlot, string(data)); err != nil {
		return errors.Join(err, s.kv.Remove(ctx, s.tokenSlot))
	}

	return nil
}

// Load reads and decodes the record.
//
// A partial record returns [ErrRecordOrphaned] and an undecodable user returns
// [ErrRecordCorrupt]; in both cases the slots are cleared first. KV failures
// are returned as-is and leave the slots untouched.
func (s *Store) Load(ctx context.Context) (Record, error) {
	token, hasToken, err := s.kv.Get(ctx, s.tokenSlot)
	if err != nil {
		return Record{}, err
	}
	raw, hasUser, err := s.kv.Get(ctx, s.userSlot)
	if err != nil {
		return Record{}, err
	}

	if !hasToken && !hasUser {
		return Record{}, ErrRecordNotFound
	}
	if !hasToken || !hasUser || token == "" {
		return Record{}, errors.Join(ErrRecordOrphaned, s.Clear(ctx))
	}

	user, err := decodeUser(raw)
	if err != nil {
		return Record{}, errors.Join(fmt.Errorf("%w: %v", ErrRecordCorrupt, err), s.Clear(ctx))
	}

	return Record{User: user, Token: token}, nil
}

// Clear removes both slots. Missing slots are not an error.
func (s *Store) Clear(ctx context.Context) error {
	return errors.Join(
		s.kv.Remove(ctx, s.tokenSlot),
		s.kv.Remove(ctx, s.userSlot),
	)
}

func decodeUser(raw string) (User, error) {
	var u *User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return User{}, err
	}
	if u == nil {
		return User{}, errors.New("user slot is null")
	}
	if !u.Valid() {
		return User{}, errors.New("user slot missing id or email")
	}
	return *u, nil
}
