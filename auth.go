package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// a mutation was attempted without a write credential for the board
var ErrReadOnly = fmt.Errorf("board is read only")

// claims carried by a board access token.
// the token is opaque to the client except for expiry inspection.
type BoardJwt struct {
	BoardId   Id
	ExpiresAt time.Time
}

// parse the claims without verifying the signature.
// the backend is the only verifier. this is just for local expiry checks.
func ParseBoardJwtUnverified(jwtSigned string) (*BoardJwt, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(jwtSigned, jwt.MapClaims{})
	if err != nil {
		return nil, err
	}
	claims := token.Claims.(jwt.MapClaims)

	boardJwt := &BoardJwt{}

	if boardIdAny, ok := claims["board_id"]; ok {
		if boardIdStr, ok := boardIdAny.(string); ok {
			boardId, err := ParseId(boardIdStr)
			if err != nil {
				return nil, err
			}
			boardJwt.BoardId = boardId
		}
	}

	expirationTime, err := claims.GetExpirationTime()
	if err == nil && expirationTime != nil {
		boardJwt.ExpiresAt = expirationTime.Time
	}

	return boardJwt, nil
}

type authEntry struct {
	token    string
	readOnly bool
}

// AuthStore holds per-board credentials for the life of the client.
// A board with no token and no read-only grant has no access at all;
// a read-only grant allows queries but fails mutations locally with
// ErrReadOnly before any request is sent.
type AuthStore struct {
	log LogFunction

	mutex sync.Mutex

	entries map[Id]*authEntry

	changeCallbacks *CallbackList[AuthChangeFunction]
}

type AuthChangeFunction func(boardId Id)

func NewAuthStore() *AuthStore {
	return &AuthStore{
		log:             LogFn("auth"),
		entries:         map[Id]*authEntry{},
		changeCallbacks: NewCallbackList[AuthChangeFunction](),
	}
}

func (self *AuthStore) AddChangeCallback(changeCallback AuthChangeFunction) func() {
	callbackId := self.changeCallbacks.Add(changeCallback)
	return func() {
		self.changeCallbacks.Remove(callbackId)
	}
}

func (self *AuthStore) SetToken(boardId Id, token string) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		self.entries[boardId] = &authEntry{
			token: token,
		}
	}()
	self.log("write access granted for %s", boardId)
	self.notify(boardId)
}

func (self *AuthStore) SetReadOnly(boardId Id) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		self.entries[boardId] = &authEntry{
			readOnly: true,
		}
	}()
	self.log("read only access for %s", boardId)
	self.notify(boardId)
}

func (self *AuthStore) Logout(boardId Id) {
	func() {
		self.mutex.Lock()
		defer self.mutex.Unlock()
		delete(self.entries, boardId)
	}()
	self.notify(boardId)
}

func (self *AuthStore) notify(boardId Id) {
	for _, changeCallback := range self.changeCallbacks.Get() {
		HandleError(func() {
			changeCallback(boardId)
		})
	}
}

func (self *AuthStore) Token(boardId Id) string {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if entry, ok := self.entries[boardId]; ok {
		return entry.token
	}
	return ""
}

// the Authorization header value for requests scoped to the board,
// or empty when there is no token
func (self *AuthStore) Header(boardId Id) string {
	token := self.Token(boardId)
	if token == "" {
		return ""
	}
	return fmt.Sprintf("Bearer %s", token)
}

func (self *AuthStore) IsReadOnly(boardId Id) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	if entry, ok := self.entries[boardId]; ok {
		return entry.readOnly
	}
	return false
}

func (self *AuthStore) HasAccess(boardId Id) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	_, ok := self.entries[boardId]
	return ok
}

// CanWrite is the local gate every mutation passes before hitting the api
func (self *AuthStore) CanWrite(boardId Id) bool {
	self.mutex.Lock()
	defer self.mutex.Unlock()
	entry, ok := self.entries[boardId]
	return ok && !entry.readOnly && entry.token != ""
}

// TokenExpired reports whether the stored token carries a past expiry.
// An unparseable or claim-less token is not considered expired;
// the backend rejects it with 401 and the caller handles that path.
func (self *AuthStore) TokenExpired(boardId Id) bool {
	token := self.Token(boardId)
	if token == "" {
		return false
	}
	boardJwt, err := ParseBoardJwtUnverified(token)
	if err != nil {
		return false
	}
	if boardJwt.ExpiresAt.IsZero() {
		return false
	}
	return boardJwt.ExpiresAt.Before(time.Now())
}
