package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultHttpTimeout = 60 * time.Second
const defaultHttpConnectTimeout = 5 * time.Second
const defaultHttpTlsTimeout = 5 * time.Second

func defaultClient() *http.Client {
	dialer := &net.Dialer{
		Timeout: defaultHttpConnectTimeout,
	}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: defaultHttpTlsTimeout,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   defaultHttpTimeout,
	}
}

// the credential was rejected. the caller decides between the read-only
// warning and the forced logout path.
var ErrUnauthorized = errors.New("unauthorized")

// a 4xx-equivalent rejection. surfaced as a field-level error by callers.
type RequestError struct {
	StatusCode int
	Message    string
}

func (self *RequestError) Error() string {
	return fmt.Sprintf("request error (%d): %s", self.StatusCode, self.Message)
}

type apiCallback[R any] interface {
	Result(result R, err error)
}

// for internal use
type simpleApiCallback[R any] struct {
	callback func(result R, err error)
}

func NewApiCallback[R any](callback func(result R, err error)) apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: callback,
	}
}

func NewNoopApiCallback[R any]() apiCallback[R] {
	return &simpleApiCallback[R]{
		callback: func(result R, err error) {},
	}
}

func (self *simpleApiCallback[R]) Result(result R, err error) {
	self.callback(result, err)
}

type ApiCallbackResult[R any] struct {
	Result R
	Error  error
}

func NewBlockingApiCallback[R any]() (apiCallback[R], chan ApiCallbackResult[R]) {
	c := make(chan ApiCallbackResult[R])
	apiCallback := NewApiCallback[R](func(result R, err error) {
		c <- ApiCallbackResult[R]{
			Result: result,
			Error:  err,
		}
	})
	return apiCallback, c
}

// client for the board backend rest api.
// every mutation-success response reflects the authoritative post-write
// state, and every endpoint is idempotent-safe to refetch.
type BoardApi struct {
	ctx    context.Context
	cancel context.CancelFunc

	apiUrl string

	auth *AuthStore

	// the board whose credential is attached to requests
	boardId Id
}

func NewBoardApi(apiUrl string, auth *AuthStore) *BoardApi {
	return NewBoardApiWithContext(context.Background(), apiUrl, auth)
}

func NewBoardApiWithContext(ctx context.Context, apiUrl string, auth *AuthStore) *BoardApi {
	cancelCtx, cancel := context.WithCancel(ctx)

	return &BoardApi{
		ctx:    cancelCtx,
		cancel: cancel,
		apiUrl: apiUrl,
		auth:   auth,
	}
}

// this board's token gets attached to api calls that need it
func (self *BoardApi) SetBoard(boardId Id) {
	self.boardId = boardId
}

func (self *BoardApi) header() string {
	if self.auth == nil {
		return ""
	}
	return self.auth.Header(self.boardId)
}

func (self *BoardApi) Close() {
	self.cancel()
}

type GetBoardCallback apiCallback[*Board]

func (self *BoardApi) GetBoard(boardId Id, callback GetBoardCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, boardId),
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) GetBoardSync(boardId Id) (*Board, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, boardId),
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type AddBoardCallback apiCallback[*Board]

type AddBoardArgs struct {
	Title    string `json:"title"`
	Password string `json:"password"`
}

func (self *BoardApi) AddBoard(addBoard *AddBoardArgs, callback AddBoardCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sboards/", self.apiUrl),
		addBoard,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) AddBoardSync(addBoard *AddBoardArgs) (*Board, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sboards/", self.apiUrl),
		addBoard,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type DeleteBoardCallback apiCallback[*Board]

func (self *BoardApi) DeleteBoard(boardId Id, callback DeleteBoardCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, boardId),
		nil,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) DeleteBoardSync(boardId Id) (*Board, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, boardId),
		nil,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type LoginCallback apiCallback[*LoginResult]

type LoginArgs struct {
	BoardId  Id     `json:"boardId"`
	Password string `json:"password"`
}

type LoginResult struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

func (self *BoardApi) Login(login *LoginArgs, callback LoginCallback) {
	go self.loginSync(login, callback)
}

func (self *BoardApi) LoginSync(login *LoginArgs) (*LoginResult, error) {
	return self.loginSync(login, NewNoopApiCallback[*LoginResult]())
}

func (self *BoardApi) loginSync(login *LoginArgs, callback apiCallback[*LoginResult]) (*LoginResult, error) {
	result, err := post(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, login.BoardId),
		login,
		self.header(),
		&LoginResult{},
		callback,
	)
	if err == nil && result.Success && result.Token != "" && self.auth != nil {
		self.auth.SetToken(login.BoardId, result.Token)
	}
	return result, err
}

type UpdateBoardTitleCallback apiCallback[*Board]

type UpdateBoardTitleArgs struct {
	BoardId Id     `json:"-"`
	Title   string `json:"title"`
}

func (self *BoardApi) UpdateBoardTitle(updateBoardTitle *UpdateBoardTitleArgs, callback UpdateBoardTitleCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/title/", self.apiUrl, updateBoardTitle.BoardId),
		updateBoardTitle,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) UpdateBoardTitleSync(updateBoardTitle *UpdateBoardTitleArgs) (*Board, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/title/", self.apiUrl, updateBoardTitle.BoardId),
		updateBoardTitle,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type UpdateBoardPasswordCallback apiCallback[*Board]

type UpdateBoardPasswordArgs struct {
	BoardId         Id     `json:"-"`
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (self *BoardApi) UpdateBoardPassword(updateBoardPassword *UpdateBoardPasswordArgs, callback UpdateBoardPasswordCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/password/", self.apiUrl, updateBoardPassword.BoardId),
		updateBoardPassword,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) UpdateBoardPasswordSync(updateBoardPassword *UpdateBoardPasswordArgs) (*Board, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/password/", self.apiUrl, updateBoardPassword.BoardId),
		updateBoardPassword,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type UpdateBoardColorCallback apiCallback[*Board]

type UpdateBoardColorArgs struct {
	BoardId         Id     `json:"-"`
	BackgroundColor string `json:"background_color"`
}

func (self *BoardApi) UpdateBoardColor(updateBoardColor *UpdateBoardColorArgs, callback UpdateBoardColorCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, updateBoardColor.BoardId),
		updateBoardColor,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) UpdateBoardColorSync(updateBoardColor *UpdateBoardColorArgs) (*Board, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/", self.apiUrl, updateBoardColor.BoardId),
		updateBoardColor,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type UpdateBoardNotesCallback apiCallback[*Board]

type UpdateBoardNotesArgs struct {
	BoardId Id     `json:"-"`
	Notes   string `json:"notes"`
}

func (self *BoardApi) UpdateBoardNotes(updateBoardNotes *UpdateBoardNotesArgs, callback UpdateBoardNotesCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/notes", self.apiUrl, updateBoardNotes.BoardId),
		updateBoardNotes,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) UpdateBoardNotesSync(updateBoardNotes *UpdateBoardNotesArgs) (*Board, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/notes", self.apiUrl, updateBoardNotes.BoardId),
		updateBoardNotes,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type UpdateTaskTemplateCallback apiCallback[*Board]

type UpdateTaskTemplateArgs struct {
	BoardId  Id
	Template *TaskTemplate
}

func (self *BoardApi) UpdateTaskTemplate(updateTaskTemplate *UpdateTaskTemplateArgs, callback UpdateTaskTemplateCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/ticket_template/", self.apiUrl, updateTaskTemplate.BoardId),
		updateTaskTemplate.Template,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) UpdateTaskTemplateSync(updateTaskTemplate *UpdateTaskTemplateArgs) (*Board, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/ticket_template/", self.apiUrl, updateTaskTemplate.BoardId),
		updateTaskTemplate.Template,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type ImportBoardCallback apiCallback[*Board]

type ImportBoardArgs struct {
	Title    string `json:"title"`
	Password string `json:"password"`
	Filename string `json:"-"`
	// the exported board file, opaque to this client
	File []byte `json:"-"`
}

func (self *BoardApi) ImportBoard(importBoard *ImportBoardArgs, callback ImportBoardCallback) {
	go self.importBoardSync(importBoard, callback)
}

func (self *BoardApi) ImportBoardSync(importBoard *ImportBoardArgs) (*Board, error) {
	return self.importBoardSync(importBoard, NewNoopApiCallback[*Board]())
}

func (self *BoardApi) importBoardSync(importBoard *ImportBoardArgs, callback apiCallback[*Board]) (*Board, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	filePart, err := form.CreateFormFile("file", importBoard.Filename)
	if err == nil {
		_, err = filePart.Write(importBoard.File)
	}
	if err == nil {
		var boardJson []byte
		boardJson, err = json.Marshal(importBoard)
		if err == nil {
			err = form.WriteField("board", string(boardJson))
		}
	}
	if err == nil {
		err = form.Close()
	}
	if err != nil {
		callback.Result(nil, err)
		return nil, err
	}
	return request(
		self.ctx,
		"POST",
		fmt.Sprintf("%simport/", self.apiUrl),
		body.Bytes(),
		form.FormDataContentType(),
		self.header(),
		&Board{},
		callback,
	)
}

type ExportBoardCallback apiCallback[[]byte]

func (self *BoardApi) ExportBoard(boardId Id, callback ExportBoardCallback) {
	go self.exportBoardSync(boardId, callback)
}

func (self *BoardApi) ExportBoardSync(boardId Id) ([]byte, error) {
	return self.exportBoardSync(boardId, NewNoopApiCallback[[]byte]())
}

func (self *BoardApi) exportBoardSync(boardId Id, callback apiCallback[[]byte]) ([]byte, error) {
	return raw(
		self.ctx,
		"GET",
		fmt.Sprintf("%sexport/%s", self.apiUrl, boardId),
		self.header(),
		callback,
	)
}

type GetBoardTemplatesCallback apiCallback[[]*BoardTemplate]

func (self *BoardApi) GetBoardTemplates(callback GetBoardTemplatesCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		self.header(),
		[]*BoardTemplate{},
		callback,
	)
}

func (self *BoardApi) GetBoardTemplatesSync() ([]*BoardTemplate, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		self.header(),
		[]*BoardTemplate{},
		NewNoopApiCallback[[]*BoardTemplate](),
	)
}

type AddBoardTemplateCallback apiCallback[*BoardTemplate]

type AddBoardTemplateArgs struct {
	BoardId     Id     `json:"boardid"`
	Title       string `json:"title"`
	Description string `json:"description"`
	// the admin password
	Password string `json:"password"`
}

func (self *BoardApi) AddBoardTemplate(addBoardTemplate *AddBoardTemplateArgs, callback AddBoardTemplateCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		addBoardTemplate,
		self.header(),
		&BoardTemplate{},
		callback,
	)
}

func (self *BoardApi) AddBoardTemplateSync(addBoardTemplate *AddBoardTemplateArgs) (*BoardTemplate, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		addBoardTemplate,
		self.header(),
		&BoardTemplate{},
		NewNoopApiCallback[*BoardTemplate](),
	)
}

type DeleteBoardTemplateCallback apiCallback[*BoardTemplate]

type DeleteBoardTemplateArgs struct {
	BoardTemplateId Id     `json:"boardtemplateid"`
	Password        string `json:"password"`
}

func (self *BoardApi) DeleteBoardTemplate(deleteBoardTemplate *DeleteBoardTemplateArgs, callback DeleteBoardTemplateCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		deleteBoardTemplate,
		self.header(),
		&BoardTemplate{},
		callback,
	)
}

func (self *BoardApi) DeleteBoardTemplateSync(deleteBoardTemplate *DeleteBoardTemplateArgs) (*BoardTemplate, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/", self.apiUrl),
		deleteBoardTemplate,
		self.header(),
		&BoardTemplate{},
		NewNoopApiCallback[*BoardTemplate](),
	)
}

type CreateBoardFromTemplateCallback apiCallback[*Board]

type CreateBoardFromTemplateArgs struct {
	BoardTemplateId Id     `json:"-"`
	Title           string `json:"title"`
	Password        string `json:"password"`
}

func (self *BoardApi) CreateBoardFromTemplate(createBoardFromTemplate *CreateBoardFromTemplateArgs, callback CreateBoardFromTemplateCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/%s/", self.apiUrl, createBoardFromTemplate.BoardTemplateId),
		createBoardFromTemplate,
		self.header(),
		&Board{},
		callback,
	)
}

func (self *BoardApi) CreateBoardFromTemplateSync(createBoardFromTemplate *CreateBoardFromTemplateArgs) (*Board, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sboardtemplates/%s/", self.apiUrl, createBoardFromTemplate.BoardTemplateId),
		createBoardFromTemplate,
		self.header(),
		&Board{},
		NewNoopApiCallback[*Board](),
	)
}

type CheckAdminPasswordCallback apiCallback[*CheckAdminPasswordResult]

type CheckAdminPasswordArgs struct {
	Password string `json:"password"`
}

type CheckAdminPasswordResult struct {
	Success bool `json:"success"`
}

func (self *BoardApi) CheckAdminPassword(checkAdminPassword *CheckAdminPasswordArgs, callback CheckAdminPasswordCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%scheckadminpassword/", self.apiUrl),
		checkAdminPassword,
		self.header(),
		&CheckAdminPasswordResult{},
		callback,
	)
}

func (self *BoardApi) CheckAdminPasswordSync(checkAdminPassword *CheckAdminPasswordArgs) (*CheckAdminPasswordResult, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%scheckadminpassword/", self.apiUrl),
		checkAdminPassword,
		self.header(),
		&CheckAdminPasswordResult{},
		NewNoopApiCallback[*CheckAdminPasswordResult](),
	)
}

type GetColumnsCallback apiCallback[[]*Column]

func (self *BoardApi) GetColumnsByBoardId(boardId Id, callback GetColumnsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, boardId),
		self.header(),
		[]*Column{},
		callback,
	)
}

func (self *BoardApi) GetColumnsByBoardIdSync(boardId Id) ([]*Column, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, boardId),
		self.header(),
		[]*Column{},
		NewNoopApiCallback[[]*Column](),
	)
}

type AddColumnCallback apiCallback[*Column]

type AddColumnArgs struct {
	BoardId Id
	Column  *Column
}

func (self *BoardApi) AddColumn(addColumn *AddColumnArgs, callback AddColumnCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, addColumn.BoardId),
		addColumn.Column,
		self.header(),
		&Column{},
		callback,
	)
}

func (self *BoardApi) AddColumnSync(addColumn *AddColumnArgs) (*Column, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, addColumn.BoardId),
		addColumn.Column,
		self.header(),
		&Column{},
		NewNoopApiCallback[*Column](),
	)
}

type UpdateColumnCallback apiCallback[*Column]

type UpdateColumnArgs struct {
	Column *Column
	// when set, the authoritative task order within the column
	TicketIds []Id
}

type updateColumnBody struct {
	*Column
	TicketIds []Id `json:"ticket_ids,omitempty"`
}

func (self *BoardApi) UpdateColumn(updateColumn *UpdateColumnArgs, callback UpdateColumnCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/", self.apiUrl, updateColumn.Column.ColumnId),
		&updateColumnBody{
			Column:    updateColumn.Column,
			TicketIds: updateColumn.TicketIds,
		},
		self.header(),
		&Column{},
		callback,
	)
}

func (self *BoardApi) UpdateColumnSync(updateColumn *UpdateColumnArgs) (*Column, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/", self.apiUrl, updateColumn.Column.ColumnId),
		&updateColumnBody{
			Column:    updateColumn.Column,
			TicketIds: updateColumn.TicketIds,
		},
		self.header(),
		&Column{},
		NewNoopApiCallback[*Column](),
	)
}

type UpdateColumnOrderCallback apiCallback[[]*Column]

type UpdateColumnOrderArgs struct {
	BoardId Id
	Columns []*Column
}

func (self *BoardApi) UpdateColumnOrder(updateColumnOrder *UpdateColumnOrderArgs, callback UpdateColumnOrderCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, updateColumnOrder.BoardId),
		updateColumnOrder.Columns,
		self.header(),
		[]*Column{},
		callback,
	)
}

func (self *BoardApi) UpdateColumnOrderSync(updateColumnOrder *UpdateColumnOrderArgs) ([]*Column, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sboards/%s/columns/", self.apiUrl, updateColumnOrder.BoardId),
		updateColumnOrder.Columns,
		self.header(),
		[]*Column{},
		NewNoopApiCallback[[]*Column](),
	)
}

type DeleteColumnCallback apiCallback[*Column]

func (self *BoardApi) DeleteColumn(columnId Id, callback DeleteColumnCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/", self.apiUrl, columnId),
		nil,
		self.header(),
		&Column{},
		callback,
	)
}

func (self *BoardApi) DeleteColumnSync(columnId Id) (*Column, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/", self.apiUrl, columnId),
		nil,
		self.header(),
		&Column{},
		NewNoopApiCallback[*Column](),
	)
}

type GetTaskListCallback apiCallback[[]*Task]

func (self *BoardApi) GetTaskListByColumnId(columnId Id, callback GetTaskListCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, columnId),
		self.header(),
		[]*Task{},
		callback,
	)
}

func (self *BoardApi) GetTaskListByColumnIdSync(columnId Id) ([]*Task, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, columnId),
		self.header(),
		[]*Task{},
		NewNoopApiCallback[[]*Task](),
	)
}

type AddTaskCallback apiCallback[*Task]

type AddTaskArgs struct {
	ColumnId Id
	Task     *Task
}

func (self *BoardApi) AddTask(addTask *AddTaskArgs, callback AddTaskCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, addTask.ColumnId),
		addTask.Task,
		self.header(),
		&Task{},
		callback,
	)
}

func (self *BoardApi) AddTaskSync(addTask *AddTaskArgs) (*Task, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, addTask.ColumnId),
		addTask.Task,
		self.header(),
		&Task{},
		NewNoopApiCallback[*Task](),
	)
}

type UpdateTaskCallback apiCallback[*Task]

func (self *BoardApi) UpdateTask(task *Task, callback UpdateTaskCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%stickets/%s/", self.apiUrl, task.TicketId),
		task,
		self.header(),
		&Task{},
		callback,
	)
}

func (self *BoardApi) UpdateTaskSync(task *Task) (*Task, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%stickets/%s/", self.apiUrl, task.TicketId),
		task,
		self.header(),
		&Task{},
		NewNoopApiCallback[*Task](),
	)
}

type DeleteTaskCallback apiCallback[*Task]

func (self *BoardApi) DeleteTask(ticketId Id, callback DeleteTaskCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%stickets/%s/", self.apiUrl, ticketId),
		nil,
		self.header(),
		&Task{},
		callback,
	)
}

func (self *BoardApi) DeleteTaskSync(ticketId Id) (*Task, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%stickets/%s/", self.apiUrl, ticketId),
		nil,
		self.header(),
		&Task{},
		NewNoopApiCallback[*Task](),
	)
}

type UpdateTaskListCallback apiCallback[[]*Task]

type UpdateTaskListArgs struct {
	ColumnId Id
	Tasks    []*Task
}

func (self *BoardApi) UpdateTaskList(updateTaskList *UpdateTaskListArgs, callback UpdateTaskListCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, updateTaskList.ColumnId),
		updateTaskList.Tasks,
		self.header(),
		[]*Task{},
		callback,
	)
}

func (self *BoardApi) UpdateTaskListSync(updateTaskList *UpdateTaskListArgs) ([]*Task, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/tickets", self.apiUrl, updateTaskList.ColumnId),
		updateTaskList.Tasks,
		self.header(),
		[]*Task{},
		NewNoopApiCallback[[]*Task](),
	)
}

type GetUsersCallback apiCallback[[]*User]

func (self *BoardApi) GetUsersByBoardId(boardId Id, callback GetUsersCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/users/", self.apiUrl, boardId),
		self.header(),
		[]*User{},
		callback,
	)
}

func (self *BoardApi) GetUsersByBoardIdSync(boardId Id) ([]*User, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%sboards/%s/users/", self.apiUrl, boardId),
		self.header(),
		[]*User{},
		NewNoopApiCallback[[]*User](),
	)
}

type PostUserToBoardCallback apiCallback[*User]

type PostUserToBoardArgs struct {
	BoardId Id     `json:"-"`
	Name    string `json:"name"`
}

func (self *BoardApi) PostUserToBoard(postUserToBoard *PostUserToBoardArgs, callback PostUserToBoardCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sboards/%s/users/", self.apiUrl, postUserToBoard.BoardId),
		postUserToBoard,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) PostUserToBoardSync(postUserToBoard *PostUserToBoardArgs) (*User, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sboards/%s/users/", self.apiUrl, postUserToBoard.BoardId),
		postUserToBoard,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

type DeleteUserCallback apiCallback[*User]

func (self *BoardApi) DeleteUser(userId Id, callback DeleteUserCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%susers/%s", self.apiUrl, userId),
		nil,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) DeleteUserSync(userId Id) (*User, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%susers/%s", self.apiUrl, userId),
		nil,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

type UserAttachCallback apiCallback[*User]

type UserAttachArgs struct {
	// the task or action the magnet is attached to or detached from
	ContainerId Id `json:"-"`
	UserId      Id `json:"userid"`
}

func (self *BoardApi) PostUserToTicket(attach *UserAttachArgs, callback UserAttachCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%stickets/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) PostUserToTicketSync(attach *UserAttachArgs) (*User, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%stickets/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

func (self *BoardApi) DeleteUserFromTicket(attach *UserAttachArgs, callback UserAttachCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%stickets/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) DeleteUserFromTicketSync(attach *UserAttachArgs) (*User, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%stickets/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

func (self *BoardApi) PostUserToAction(attach *UserAttachArgs, callback UserAttachCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sactions/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) PostUserToActionSync(attach *UserAttachArgs) (*User, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sactions/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

func (self *BoardApi) DeleteUserFromAction(attach *UserAttachArgs, callback UserAttachCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sactions/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		callback,
	)
}

func (self *BoardApi) DeleteUserFromActionSync(attach *UserAttachArgs) (*User, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sactions/%s/users/", self.apiUrl, attach.ContainerId),
		attach,
		self.header(),
		&User{},
		NewNoopApiCallback[*User](),
	)
}

type GetSwimlaneColumnsCallback apiCallback[[]*SwimlaneColumn]

func (self *BoardApi) GetSwimlaneColumnsByColumnId(columnId Id, callback GetSwimlaneColumnsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/swimlanecolumns/", self.apiUrl, columnId),
		self.header(),
		[]*SwimlaneColumn{},
		callback,
	)
}

func (self *BoardApi) GetSwimlaneColumnsByColumnIdSync(columnId Id) ([]*SwimlaneColumn, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/swimlanecolumns/", self.apiUrl, columnId),
		self.header(),
		[]*SwimlaneColumn{},
		NewNoopApiCallback[[]*SwimlaneColumn](),
	)
}

type UpdateSwimlaneColumnCallback apiCallback[*SwimlaneColumn]

func (self *BoardApi) UpdateSwimlaneColumn(swimlaneColumn *SwimlaneColumn, callback UpdateSwimlaneColumnCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sswimlanecolumns/%s/", self.apiUrl, swimlaneColumn.SwimlaneColumnId),
		swimlaneColumn,
		self.header(),
		&SwimlaneColumn{},
		callback,
	)
}

func (self *BoardApi) UpdateSwimlaneColumnSync(swimlaneColumn *SwimlaneColumn) (*SwimlaneColumn, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sswimlanecolumns/%s/", self.apiUrl, swimlaneColumn.SwimlaneColumnId),
		swimlaneColumn,
		self.header(),
		&SwimlaneColumn{},
		NewNoopApiCallback[*SwimlaneColumn](),
	)
}

type GetActionsCallback apiCallback[[]*Action]

func (self *BoardApi) GetActionsByColumnId(columnId Id, callback GetActionsCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/actions/", self.apiUrl, columnId),
		self.header(),
		[]*Action{},
		callback,
	)
}

func (self *BoardApi) GetActionsByColumnIdSync(columnId Id) ([]*Action, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%scolumns/%s/actions/", self.apiUrl, columnId),
		self.header(),
		[]*Action{},
		NewNoopApiCallback[[]*Action](),
	)
}

type PostActionCallback apiCallback[*Action]

func (self *BoardApi) PostAction(action *Action, callback PostActionCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%s%s/%s/actions/", self.apiUrl, action.SwimlaneColumnId, action.TicketId),
		action,
		self.header(),
		&Action{},
		callback,
	)
}

func (self *BoardApi) PostActionSync(action *Action) (*Action, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%s%s/%s/actions/", self.apiUrl, action.SwimlaneColumnId, action.TicketId),
		action,
		self.header(),
		&Action{},
		NewNoopApiCallback[*Action](),
	)
}

type UpdateActionCallback apiCallback[*Action]

func (self *BoardApi) UpdateAction(action *Action, callback UpdateActionCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%sactions/%s/", self.apiUrl, action.ActionId),
		action,
		self.header(),
		&Action{},
		callback,
	)
}

func (self *BoardApi) UpdateActionSync(action *Action) (*Action, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%sactions/%s/", self.apiUrl, action.ActionId),
		action,
		self.header(),
		&Action{},
		NewNoopApiCallback[*Action](),
	)
}

type DeleteActionCallback apiCallback[*Action]

func (self *BoardApi) DeleteAction(actionId Id, callback DeleteActionCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sactions/%s/", self.apiUrl, actionId),
		nil,
		self.header(),
		&Action{},
		callback,
	)
}

func (self *BoardApi) DeleteActionSync(actionId Id) (*Action, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sactions/%s/", self.apiUrl, actionId),
		nil,
		self.header(),
		&Action{},
		NewNoopApiCallback[*Action](),
	)
}

type UpdateActionListCallback apiCallback[[]*Action]

// an action list is scoped to the intersection of a task and a swimlane column
type UpdateActionListArgs struct {
	SwimlaneColumnId Id
	TicketId         Id
	Actions          []*Action
}

func (self *BoardApi) UpdateActionList(updateActionList *UpdateActionListArgs, callback UpdateActionListCallback) {
	go put(
		self.ctx,
		fmt.Sprintf("%s%s/%s/actions/", self.apiUrl, updateActionList.SwimlaneColumnId, updateActionList.TicketId),
		updateActionList.Actions,
		self.header(),
		[]*Action{},
		callback,
	)
}

func (self *BoardApi) UpdateActionListSync(updateActionList *UpdateActionListArgs) ([]*Action, error) {
	return put(
		self.ctx,
		fmt.Sprintf("%s%s/%s/actions/", self.apiUrl, updateActionList.SwimlaneColumnId, updateActionList.TicketId),
		updateActionList.Actions,
		self.header(),
		[]*Action{},
		NewNoopApiCallback[[]*Action](),
	)
}

type GetScopesCallback apiCallback[[]*Scope]

func (self *BoardApi) GetScopes(boardId Id, callback GetScopesCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, boardId),
		self.header(),
		[]*Scope{},
		callback,
	)
}

func (self *BoardApi) GetScopesSync(boardId Id) ([]*Scope, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, boardId),
		self.header(),
		[]*Scope{},
		NewNoopApiCallback[[]*Scope](),
	)
}

type AddScopeCallback apiCallback[*Scope]

type AddScopeArgs struct {
	BoardId Id     `json:"-"`
	Title   string `json:"title"`
}

func (self *BoardApi) AddScope(addScope *AddScopeArgs, callback AddScopeCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, addScope.BoardId),
		addScope,
		self.header(),
		&Scope{},
		callback,
	)
}

func (self *BoardApi) AddScopeSync(addScope *AddScopeArgs) (*Scope, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, addScope.BoardId),
		addScope,
		self.header(),
		&Scope{},
		NewNoopApiCallback[*Scope](),
	)
}

type DeleteScopeCallback apiCallback[*Scope]

type DeleteScopeArgs struct {
	BoardId Id `json:"-"`
	ScopeId Id `json:"scopeid"`
}

func (self *BoardApi) DeleteScope(deleteScope *DeleteScopeArgs, callback DeleteScopeCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, deleteScope.BoardId),
		deleteScope,
		self.header(),
		&Scope{},
		callback,
	)
}

func (self *BoardApi) DeleteScopeSync(deleteScope *DeleteScopeArgs) (*Scope, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/", self.apiUrl, deleteScope.BoardId),
		deleteScope,
		self.header(),
		&Scope{},
		NewNoopApiCallback[*Scope](),
	)
}

type SetDoneColumnsCallback apiCallback[*Scope]

type SetDoneColumnsArgs struct {
	ScopeId   Id   `json:"-"`
	ColumnIds []Id `json:"done_columns"`
}

func (self *BoardApi) SetDoneColumns(setDoneColumns *SetDoneColumnsArgs, callback SetDoneColumnsCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_done_columns", self.apiUrl, setDoneColumns.ScopeId),
		setDoneColumns,
		self.header(),
		&Scope{},
		callback,
	)
}

func (self *BoardApi) SetDoneColumnsSync(setDoneColumns *SetDoneColumnsArgs) (*Scope, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_done_columns", self.apiUrl, setDoneColumns.ScopeId),
		setDoneColumns,
		self.header(),
		&Scope{},
		NewNoopApiCallback[*Scope](),
	)
}

type SetScopeForecastCallback apiCallback[*Scope]

func (self *BoardApi) SetScopeForecast(scopeId Id, callback SetScopeForecastCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_scope_forecast", self.apiUrl, scopeId),
		nil,
		self.header(),
		&Scope{},
		callback,
	)
}

func (self *BoardApi) SetScopeForecastSync(scopeId Id) (*Scope, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_scope_forecast", self.apiUrl, scopeId),
		nil,
		self.header(),
		&Scope{},
		NewNoopApiCallback[*Scope](),
	)
}

type SuccessResult struct {
	Success bool `json:"success"`
}

type SetScopeTitleCallback apiCallback[*SuccessResult]

type SetScopeTitleArgs struct {
	ScopeId Id     `json:"-"`
	Title   string `json:"title"`
}

func (self *BoardApi) SetScopeTitle(setScopeTitle *SetScopeTitleArgs, callback SetScopeTitleCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_title", self.apiUrl, setScopeTitle.ScopeId),
		setScopeTitle,
		self.header(),
		&SuccessResult{},
		callback,
	)
}

func (self *BoardApi) SetScopeTitleSync(setScopeTitle *SetScopeTitleArgs) (*SuccessResult, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/set_title", self.apiUrl, setScopeTitle.ScopeId),
		setScopeTitle,
		self.header(),
		&SuccessResult{},
		NewNoopApiCallback[*SuccessResult](),
	)
}

type ScopeTicketCallback apiCallback[*SuccessResult]

type ScopeTicketArgs struct {
	ScopeId  Id `json:"-"`
	TicketId Id `json:"ticketid"`
}

func (self *BoardApi) AddTaskToScope(scopeTicket *ScopeTicketArgs, callback ScopeTicketCallback) {
	go post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/tickets", self.apiUrl, scopeTicket.ScopeId),
		scopeTicket,
		self.header(),
		&SuccessResult{},
		callback,
	)
}

func (self *BoardApi) AddTaskToScopeSync(scopeTicket *ScopeTicketArgs) (*SuccessResult, error) {
	return post(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/tickets", self.apiUrl, scopeTicket.ScopeId),
		scopeTicket,
		self.header(),
		&SuccessResult{},
		NewNoopApiCallback[*SuccessResult](),
	)
}

func (self *BoardApi) DeleteTaskFromScope(scopeTicket *ScopeTicketArgs, callback ScopeTicketCallback) {
	go del(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/tickets", self.apiUrl, scopeTicket.ScopeId),
		scopeTicket,
		self.header(),
		&SuccessResult{},
		callback,
	)
}

func (self *BoardApi) DeleteTaskFromScopeSync(scopeTicket *ScopeTicketArgs) (*SuccessResult, error) {
	return del(
		self.ctx,
		fmt.Sprintf("%sscopes/%s/tickets", self.apiUrl, scopeTicket.ScopeId),
		scopeTicket,
		self.header(),
		&SuccessResult{},
		NewNoopApiCallback[*SuccessResult](),
	)
}

type ChartDataCallback apiCallback[*ChartData]

type CumulativeFlowArgs struct {
	BoardId   Id
	TimeUnit  string
	StartTime string
	EndTime   string
	CountUnit string
}

func (self *BoardApi) GetCumulativeFlowDiagramData(args *CumulativeFlowArgs, callback ChartDataCallback) {
	go self.getCumulativeFlowDiagramDataSync(args, callback)
}

func (self *BoardApi) GetCumulativeFlowDiagramDataSync(args *CumulativeFlowArgs) (*ChartData, error) {
	return self.getCumulativeFlowDiagramDataSync(args, NewNoopApiCallback[*ChartData]())
}

func (self *BoardApi) getCumulativeFlowDiagramDataSync(args *CumulativeFlowArgs, callback apiCallback[*ChartData]) (*ChartData, error) {
	params := url.Values{}
	if args.TimeUnit != "" {
		params.Set("time_unit", args.TimeUnit)
	}
	if args.StartTime != "" {
		params.Set("start_time", args.StartTime)
	}
	if args.EndTime != "" {
		params.Set("end_time", args.EndTime)
	}
	if args.CountUnit != "" {
		params.Set("count_unit", args.CountUnit)
	}
	chartUrl := fmt.Sprintf("%scharts/%s/cumulativeflow", self.apiUrl, args.BoardId)
	if 0 < len(params) {
		chartUrl = fmt.Sprintf("%s?%s", chartUrl, params.Encode())
	}
	return get(
		self.ctx,
		chartUrl,
		self.header(),
		&ChartData{},
		callback,
	)
}

func (self *BoardApi) GetVelocityChartData(boardId Id, callback ChartDataCallback) {
	go get(
		self.ctx,
		fmt.Sprintf("%scharts/%s/velocity", self.apiUrl, boardId),
		self.header(),
		&ChartData{},
		callback,
	)
}

func (self *BoardApi) GetVelocityChartDataSync(boardId Id) (*ChartData, error) {
	return get(
		self.ctx,
		fmt.Sprintf("%scharts/%s/velocity", self.apiUrl, boardId),
		self.header(),
		&ChartData{},
		NewNoopApiCallback[*ChartData](),
	)
}

type BurnUpArgs struct {
	BoardId   Id
	ScopeId   Id
	TimeUnit  string
	CountUnit string
}

func (self *BoardApi) GetBurnUpChartData(args *BurnUpArgs, callback ChartDataCallback) {
	go self.getBurnUpChartDataSync(args, callback)
}

func (self *BoardApi) GetBurnUpChartDataSync(args *BurnUpArgs) (*ChartData, error) {
	return self.getBurnUpChartDataSync(args, NewNoopApiCallback[*ChartData]())
}

func (self *BoardApi) getBurnUpChartDataSync(args *BurnUpArgs, callback apiCallback[*ChartData]) (*ChartData, error) {
	params := url.Values{}
	if args.TimeUnit != "" {
		params.Set("time_unit", args.TimeUnit)
	}
	if args.CountUnit != "" {
		params.Set("count_unit", args.CountUnit)
	}
	chartUrl := fmt.Sprintf("%scharts/%s/%s/burnup", self.apiUrl, args.BoardId, args.ScopeId)
	if 0 < len(params) {
		chartUrl = fmt.Sprintf("%s?%s", chartUrl, params.Encode())
	}
	return get(
		self.ctx,
		chartUrl,
		self.header(),
		&ChartData{},
		callback,
	)
}

func post[R any](ctx context.Context, url string, args any, auth string, result R, callback apiCallback[R]) (R, error) {
	return send(ctx, "POST", url, args, auth, result, callback)
}

func put[R any](ctx context.Context, url string, args any, auth string, result R, callback apiCallback[R]) (R, error) {
	return send(ctx, "PUT", url, args, auth, result, callback)
}

func del[R any](ctx context.Context, url string, args any, auth string, result R, callback apiCallback[R]) (R, error) {
	return send(ctx, "DELETE", url, args, auth, result, callback)
}

func send[R any](ctx context.Context, method string, url string, args any, auth string, result R, callback apiCallback[R]) (R, error) {
	var requestBodyBytes []byte
	if args == nil {
		requestBodyBytes = make([]byte, 0)
	} else {
		var err error
		requestBodyBytes, err = json.Marshal(args)
		if err != nil {
			var empty R
			callback.Result(empty, err)
			return empty, err
		}
	}
	return request(ctx, method, url, requestBodyBytes, "text/json", auth, result, callback)
}

func request[R any](ctx context.Context, method string, url string, requestBodyBytes []byte, contentType string, auth string, result R, callback apiCallback[R]) (R, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(requestBodyBytes))
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", contentType)

	if auth != "" {
		req.Header.Add("Authorization", auth)
	}

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)

	if http.StatusUnauthorized == r.StatusCode {
		callback.Result(result, ErrUnauthorized)
		return result, ErrUnauthorized
	}

	if http.StatusOK != r.StatusCode {
		// the response body is the error message
		err = &RequestError{
			StatusCode: r.StatusCode,
			Message:    strings.TrimSpace(string(responseBodyBytes)),
		}
		callback.Result(result, err)
		return result, err
	}

	if err != nil {
		callback.Result(result, err)
		return result, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	callback.Result(result, nil)
	return result, nil
}

func get[R any](ctx context.Context, url string, auth string, result R, callback apiCallback[R]) (R, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	req.Header.Add("Content-Type", "text/json")

	if auth != "" {
		req.Header.Add("Authorization", auth)
	}

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	responseBodyBytes, err := io.ReadAll(r.Body)
	r.Body.Close()

	if http.StatusUnauthorized == r.StatusCode {
		callback.Result(result, ErrUnauthorized)
		return result, ErrUnauthorized
	}

	if http.StatusOK != r.StatusCode {
		err = &RequestError{
			StatusCode: r.StatusCode,
			Message:    strings.TrimSpace(string(responseBodyBytes)),
		}
		callback.Result(result, err)
		return result, err
	}

	err = json.Unmarshal(responseBodyBytes, &result)
	if err != nil {
		var empty R
		callback.Result(empty, err)
		return empty, err
	}

	callback.Result(result, nil)
	return result, nil
}

func raw(ctx context.Context, method string, url string, auth string, callback apiCallback[[]byte]) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		callback.Result(nil, err)
		return nil, err
	}

	if auth != "" {
		req.Header.Add("Authorization", auth)
	}

	client := defaultClient()
	r, err := client.Do(req)
	if err != nil {
		callback.Result(nil, err)
		return nil, err
	}
	defer r.Body.Close()

	responseBodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		callback.Result(nil, err)
		return nil, err
	}

	if http.StatusOK != r.StatusCode {
		err = &RequestError{
			StatusCode: r.StatusCode,
			Message:    strings.TrimSpace(string(responseBodyBytes)),
		}
		callback.Result(nil, err)
		return nil, err
	}

	callback.Result(responseBodyBytes, nil)
	return responseBodyBytes, nil
}
