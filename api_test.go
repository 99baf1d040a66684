package board

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestApiAuthHeader(t *testing.T) {
	boardId := NewId()

	var gotAuth string
	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /boards/{boardId}/", func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			writeJson(w, &Board{
				BoardId: boardId,
				Title:   "board",
			})
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := NewAuthStore()
	api := NewBoardApiWithContext(ctx, backend.apiUrl(), auth)
	defer api.Close()
	api.SetBoard(boardId)

	// no credential, no header
	result, err := api.GetBoardSync(boardId)
	assert.Equal(t, err, nil)
	assert.Equal(t, result.BoardId, boardId)
	assert.Equal(t, gotAuth, "")

	auth.SetToken(boardId, "tok")
	_, err = api.GetBoardSync(boardId)
	assert.Equal(t, err, nil)
	assert.Equal(t, gotAuth, "Bearer tok")
}

func TestApiLoginStoresToken(t *testing.T) {
	boardId := NewId()

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("POST /boards/{boardId}/", func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, &LoginResult{
				Success: true,
				Token:   "granted",
			})
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := NewAuthStore()
	api := NewBoardApiWithContext(ctx, backend.apiUrl(), auth)
	defer api.Close()

	result, err := api.LoginSync(&LoginArgs{
		BoardId:  boardId,
		Password: "pw",
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, result.Success, true)
	assert.Equal(t, auth.Token(boardId), "granted")
	assert.Equal(t, auth.CanWrite(boardId), true)
}

func TestApiLoginRejected(t *testing.T) {
	boardId := NewId()

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("POST /boards/{boardId}/", func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, &LoginResult{
				Success: false,
			})
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	auth := NewAuthStore()
	api := NewBoardApiWithContext(ctx, backend.apiUrl(), auth)
	defer api.Close()

	result, err := api.LoginSync(&LoginArgs{
		BoardId:  boardId,
		Password: "wrong",
	})
	assert.Equal(t, err, nil)
	assert.Equal(t, result.Success, false)
	assert.Equal(t, auth.Token(boardId), "")
}

func TestApiExportRaw(t *testing.T) {
	boardId := NewId()
	exported := []byte("csv,data\n1,2\n")

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /export/{boardId}", func(w http.ResponseWriter, r *http.Request) {
			w.Write(exported)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := NewBoardApiWithContext(ctx, backend.apiUrl(), NewAuthStore())
	defer api.Close()

	result, err := api.ExportBoardSync(boardId)
	assert.Equal(t, err, nil)
	assert.Equal(t, result, exported)
}

func TestApiCallbackVariants(t *testing.T) {
	boardId := NewId()

	backend := newTestBackend(t, func(mux *http.ServeMux) {
		mux.HandleFunc("GET /boards/{boardId}/", func(w http.ResponseWriter, r *http.Request) {
			writeJson(w, &Board{
				BoardId: boardId,
				Title:   "board",
			})
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	api := NewBoardApiWithContext(ctx, backend.apiUrl(), NewAuthStore())
	defer api.Close()

	callback, c := NewBlockingApiCallback[*Board]()
	api.GetBoard(boardId, callback)
	callbackResult := <-c
	assert.Equal(t, callbackResult.Error, nil)
	assert.Equal(t, callbackResult.Result.BoardId, boardId)
}
