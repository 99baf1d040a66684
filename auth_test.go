package board

import (
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	gojwt "github.com/golang-jwt/jwt/v5"
)

func signTestJwt(t *testing.T, boardId Id, expiresAt time.Time) string {
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"board_id": boardId.String(),
		"exp":      expiresAt.Unix(),
	})
	jwtSigned, err := token.SignedString([]byte("test-secret"))
	assert.Equal(t, err, nil)
	return jwtSigned
}

func TestParseBoardJwtUnverified(t *testing.T) {
	boardId := NewId()
	expiresAt := time.Now().Add(time.Hour).Truncate(time.Second)
	jwtSigned := signTestJwt(t, boardId, expiresAt)

	boardJwt, err := ParseBoardJwtUnverified(jwtSigned)
	assert.Equal(t, err, nil)
	assert.Equal(t, boardJwt.BoardId, boardId)
	assert.Equal(t, boardJwt.ExpiresAt.Unix(), expiresAt.Unix())

	_, err = ParseBoardJwtUnverified("garbage")
	assert.NotEqual(t, err, nil)
}

func TestAuthStoreAccess(t *testing.T) {
	auth := NewAuthStore()
	boardId := NewId()
	otherBoardId := NewId()

	assert.Equal(t, auth.HasAccess(boardId), false)
	assert.Equal(t, auth.CanWrite(boardId), false)
	assert.Equal(t, auth.Header(boardId), "")

	auth.SetToken(boardId, "abc")
	assert.Equal(t, auth.HasAccess(boardId), true)
	assert.Equal(t, auth.CanWrite(boardId), true)
	assert.Equal(t, auth.IsReadOnly(boardId), false)
	assert.Equal(t, auth.Header(boardId), "Bearer abc")

	// credentials are per board
	assert.Equal(t, auth.HasAccess(otherBoardId), false)

	auth.SetReadOnly(boardId)
	assert.Equal(t, auth.HasAccess(boardId), true)
	assert.Equal(t, auth.CanWrite(boardId), false)
	assert.Equal(t, auth.IsReadOnly(boardId), true)
	assert.Equal(t, auth.Header(boardId), "")

	auth.Logout(boardId)
	assert.Equal(t, auth.HasAccess(boardId), false)
}

func TestAuthStoreChangeCallback(t *testing.T) {
	auth := NewAuthStore()
	boardId := NewId()

	changes := []Id{}
	unsub := auth.AddChangeCallback(func(changedBoardId Id) {
		changes = append(changes, changedBoardId)
	})

	auth.SetToken(boardId, "abc")
	auth.Logout(boardId)
	assert.Equal(t, changes, []Id{boardId, boardId})

	unsub()
	auth.SetToken(boardId, "def")
	assert.Equal(t, len(changes), 2)
}

func TestAuthStoreTokenExpired(t *testing.T) {
	auth := NewAuthStore()
	boardId := NewId()

	// no token, nothing to expire
	assert.Equal(t, auth.TokenExpired(boardId), false)

	auth.SetToken(boardId, signTestJwt(t, boardId, time.Now().Add(time.Hour)))
	assert.Equal(t, auth.TokenExpired(boardId), false)

	auth.SetToken(boardId, signTestJwt(t, boardId, time.Now().Add(-time.Hour)))
	assert.Equal(t, auth.TokenExpired(boardId), true)

	// an opaque token is the backend's problem, not locally expired
	auth.SetToken(boardId, "opaque")
	assert.Equal(t, auth.TokenExpired(boardId), false)
}

func TestHandleErrorSuppressesPanic(t *testing.T) {
	var handled error
	HandleError(func() {
		panic(fmt.Errorf("boom"))
	}, func(err error) {
		handled = err
	})
	assert.NotEqual(t, handled, nil)
	assert.Equal(t, handled.Error(), "boom")
}
