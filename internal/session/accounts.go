package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/empiresrv/empireserver/internal/empire"
	"github.com/empiresrv/empireserver/internal/ids"
)

// Account DB schema is explicitly out of scope per spec.md §6, which
// names it a "collaborator interface only". This store is therefore a
// deliberately non-persistent, in-memory stand-in: it exists only to
// give `auth_request`/`signup` something to bind a connection's uid
// against, not to be a real credential store.

// ErrUnknownAccount :
var ErrUnknownAccount = errors.New("session: unknown account")

// ErrWrongPassword :
var ErrWrongPassword = errors.New("session: wrong password")

// ErrAccountExists :
var ErrAccountExists = errors.New("session: account already exists")

// ErrUsernameLength :
var ErrUsernameLength = errors.New("session: username length out of bounds")

// ErrPasswordLength :
var ErrPasswordLength = errors.New("session: password length out of bounds")

type account struct {
	uid      string
	username string
	password string
}

// accountStore :
// Maps usernames to in-memory accounts. Serialises its own mutations
// with a single mutex, matching the rest of this core's narrow,
// per-component locking (spec.md names no concurrency bound on this
// collaborator, so the simplest correct option is used).
type accountStore struct {
	mu            sync.Mutex
	config        configuration
	byName        map[string]*account
	empires       *empire.Engine
	loop          loopRegistrar
	defaultHexMap map[string]string
}

// loopRegistrar is the narrow worldloop dependency signup needs: the
// ability to register a freshly-created empire.
type loopRegistrar interface {
	RegisterEmpire(e *empire.Empire)
	Empire(uid string) (*empire.Empire, bool)
}

// newAccountStore builds an in-memory credential store. `defaultHexMap`
// is stamped onto every freshly signed-up empire (cmd/empireserver loads
// it once from the map config named in spec.md §6) so a new player
// immediately owns a castle/spawnpoint/buildable territory instead of an
// empty one that could never host a battle path or a structure.
func newAccountStore(config configuration, empires *empire.Engine, loop loopRegistrar, defaultHexMap map[string]string) *accountStore {
	return &accountStore{
		config:        config,
		byName:        make(map[string]*account),
		empires:       empires,
		loop:          loop,
		defaultHexMap: defaultHexMap,
	}
}

// signup :
// Validates username/password lengths, rejects a duplicate username,
// creates a fresh empire via empire.New and registers it with the
// world loop, and records the credential pair. Returns the new uid.
func (s *accountStore) signup(username, password, startBuildingIid string, startingResources map[string]float64, maxLife float64) (string, error) {
	if len(username) < s.config.MinUsernameLength || len(username) > s.config.MaxUsernameLength {
		return "", ErrUsernameLength
	}
	if len(password) < s.config.MinPasswordLength || len(password) > s.config.MaxPasswordLength {
		return "", ErrPasswordLength
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byName[username]; ok {
		return "", ErrAccountExists
	}

	uid := ids.New()
	e := empire.New(uid, username, startBuildingIid, startingResources, maxLife)
	for key, tileType := range s.defaultHexMap {
		e.HexMap[key] = tileType
	}
	s.loop.RegisterEmpire(e)

	s.byName[username] = &account{uid: uid, username: username, password: password}
	return uid, nil
}

// authenticate :
// Looks up the account by username and checks the password, returning
// its uid on success.
func (s *accountStore) authenticate(username, password string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byName[username]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAccount, username)
	}
	if a.password != password {
		return "", ErrWrongPassword
	}
	return a.uid, nil
}
