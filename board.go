package board

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
)

// comparable
type Id [16]byte

func NewId() Id {
	return Id(ulid.Make())
}

func IdFromBytes(idBytes []byte) (Id, error) {
	if len(idBytes) != 16 {
		return Id{}, errors.New("Id must be 16 bytes")
	}
	return Id(idBytes), nil
}

func ParseId(idStr string) (Id, error) {
	return parseUuid(idStr)
}

func RequireParseId(idStr string) Id {
	id, err := ParseId(idStr)
	if err != nil {
		panic(err)
	}
	return id
}

func (self Id) Bytes() []byte {
	return self[0:16]
}

func (self Id) String() string {
	return encodeUuid(self)
}

func (self *Id) MarshalJSON() ([]byte, error) {
	var buf [16]byte
	copy(buf[0:16], self[0:16])
	var buff bytes.Buffer
	buff.WriteByte('"')
	buff.WriteString(encodeUuid(buf))
	buff.WriteByte('"')
	b := buff.Bytes()
	return b, nil
}

func (self *Id) UnmarshalJSON(src []byte) error {
	if len(src) != 38 {
		return fmt.Errorf("invalid length for UUID: %v", len(src))
	}
	buf, err := parseUuid(string(src[1 : len(src)-1]))
	if err != nil {
		return err
	}
	*self = buf
	return nil
}

func parseUuid(src string) (dst [16]byte, err error) {
	switch len(src) {
	case 36:
		src = src[0:8] + src[9:13] + src[14:18] + src[19:23] + src[24:]
	case 32:
		// dashes already stripped, assume valid
	default:
		// assume invalid.
		return dst, fmt.Errorf("cannot parse UUID %v", src)
	}

	buf, err := hex.DecodeString(src)
	if err != nil {
		return dst, err
	}

	copy(dst[:], buf)
	return dst, err
}

func encodeUuid(src [16]byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", src[0:4], src[4:6], src[6:8], src[8:10], src[10:16])
}

// tags are the sole unit of cache invalidation. they carry no payload.
// a bare tag (empty id) names the whole family,
// an id-qualified tag names one instance.

type TagType string

const (
	TagBoards         TagType = "Boards"
	TagColumns        TagType = "Columns"
	TagTicket         TagType = "Ticket"
	TagUsers          TagType = "Users"
	TagAction         TagType = "Action"
	TagActionList     TagType = "ActionList"
	TagSwimlaneColumn TagType = "SwimlaneColumn"
	TagBoardTemplate  TagType = "BoardTemplate"
	TagScopes         TagType = "Scopes"
)

// well-known tag ids used by the backend contract
const (
	TagIdList     = "LIST"
	TagIdAllUsers = "ALL_USERS"
)

// comparable
type Tag struct {
	Type TagType
	Id   string
}

func NewTag(tagType TagType) Tag {
	return Tag{
		Type: tagType,
	}
}

func NewTagId(tagType TagType, id string) Tag {
	return Tag{
		Type: tagType,
		Id:   id,
	}
}

func (self Tag) IsGeneric() bool {
	return self.Id == ""
}

func (self Tag) String() string {
	if self.Id == "" {
		return string(self.Type)
	}
	return fmt.Sprintf("%s(%s)", self.Type, self.Id)
}

// wire form is either a bare label string or `{"type": label, "id": id}`

func (self Tag) MarshalJSON() ([]byte, error) {
	if self.Id == "" {
		return json.Marshal(string(self.Type))
	}
	return json.Marshal(struct {
		Type string `json:"type"`
		Id   string `json:"id"`
	}{
		Type: string(self.Type),
		Id:   self.Id,
	})
}

func (self *Tag) UnmarshalJSON(src []byte) error {
	var label string
	if err := json.Unmarshal(src, &label); err == nil {
		self.Type = TagType(label)
		self.Id = ""
		return nil
	}
	var qualified struct {
		Type string `json:"type"`
		Id   string `json:"id,omitempty"`
	}
	if err := json.Unmarshal(src, &qualified); err != nil {
		return err
	}
	if qualified.Type == "" {
		return errors.New("tag must have a type")
	}
	self.Type = TagType(qualified.Type)
	self.Id = qualified.Id
	return nil
}

func AllTagTypes() []TagType {
	return []TagType{
		TagBoards,
		TagColumns,
		TagTicket,
		TagUsers,
		TagAction,
		TagActionList,
		TagSwimlaneColumn,
		TagBoardTemplate,
		TagScopes,
	}
}

// every generic tag. broadcast after a reconnect gap to force a full resync.
func AllTags() []Tag {
	tagTypes := AllTagTypes()
	tags := make([]Tag, len(tagTypes))
	for i, tagType := range tagTypes {
		tags[i] = NewTag(tagType)
	}
	return tags
}

// resource entities
// json names follow the existing backend wire format

type Board struct {
	BoardId         Id            `json:"boardid"`
	Title           string        `json:"title"`
	BackgroundColor string        `json:"background_color,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	TicketTemplate  *TaskTemplate `json:"ticket_template,omitempty"`
	Columns         []*Column     `json:"columns,omitempty"`
	Users           []*User       `json:"users,omitempty"`
}

// the default field values applied to new tasks on a board
type TaskTemplate struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Cornernote  string `json:"cornernote,omitempty"`
	Color       string `json:"color,omitempty"`
	Size        int    `json:"size,omitempty"`
}

type Column struct {
	ColumnId      Id     `json:"columnid"`
	BoardId       Id     `json:"boardid"`
	Title         string `json:"title"`
	Swimlane      bool   `json:"swimlane,omitempty"`
	WipLimit      *int   `json:"wip_limit,omitempty"`
	WipLimitStory *int   `json:"wip_limit_story,omitempty"`
}

type Task struct {
	TicketId    Id             `json:"ticketid"`
	ColumnId    Id             `json:"columnid"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Cornernote  string         `json:"cornernote,omitempty"`
	Color       string         `json:"color,omitempty"`
	Size        int            `json:"size,omitempty"`
	Users       []*UserRef     `json:"users"`
	Scopes      []*SimpleScope `json:"scopes"`
}

type Action struct {
	ActionId         Id         `json:"actionid"`
	ColumnId         Id         `json:"columnid"`
	TicketId         Id         `json:"ticketid"`
	SwimlaneColumnId Id         `json:"swimlanecolumnid"`
	Title            string     `json:"title"`
	Order            int        `json:"order"`
	CreationDate     string     `json:"creation_date,omitempty"`
	Users            []*UserRef `json:"users"`
}

type SwimlaneColumn struct {
	SwimlaneColumnId Id     `json:"swimlanecolumnid"`
	ColumnId         Id     `json:"columnid"`
	Title            string `json:"title"`
	Order            int    `json:"order"`
}

// a user magnet. attachment to tasks/actions is many-to-many,
// mutated only by explicit attach/detach.
type User struct {
	UserId  Id     `json:"userid"`
	Name    string `json:"name"`
	Tickets []Id   `json:"tickets"`
	Actions []Id   `json:"actions"`
}

// user without the attachment edges, as embedded in task/action lists
type UserRef struct {
	UserId Id     `json:"userid"`
	Name   string `json:"name"`
}

type Scope struct {
	ScopeId     Id             `json:"scopeid"`
	BoardId     Id             `json:"boardid"`
	Title       string         `json:"title"`
	DoneColumns []*Column      `json:"done_columns"`
	Tickets     []*ScopeTicket `json:"tickets,omitempty"`
	Forecast    *ScopeForecast `json:"forecast_set_point,omitempty"`
}

type SimpleScope struct {
	ScopeId Id     `json:"scopeid"`
	Title   string `json:"title"`
}

// size snapshot of one ticket in a scope
type ScopeTicket struct {
	TicketId Id  `json:"ticketid"`
	Size     int `json:"size,omitempty"`
}

type ScopeForecast struct {
	SetAt string `json:"set_at,omitempty"`
	Size  int    `json:"size,omitempty"`
}

type BoardTemplate struct {
	BoardTemplateId Id     `json:"boardtemplateid"`
	BoardId         Id     `json:"boardid"`
	Title           string `json:"title"`
	Description     string `json:"description"`
}

type ChartData struct {
	Columns []string         `json:"columns,omitempty"`
	Data    []map[string]any `json:"data,omitempty"`
}
