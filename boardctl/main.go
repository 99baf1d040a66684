package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"futuboard.com/board"
)

const BoardCtlVersion = "0.0.1"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lshortfile)
}

func main() {
	usage := `Board control.

The default urls are:
    api_url: https://futuboard.live/api/
    ws_url: wss://futuboard.live/board/

Usage:
    boardctl create-board [--api_url=<api_url>]
        --title=<title>
        --password=<password>
    boardctl login [--api_url=<api_url>] --board=<board_id>
        --password=<password>
    boardctl columns [--api_url=<api_url>] --board=<board_id>
    boardctl tasks [--api_url=<api_url>] --board=<board_id>
        --column=<column_id>
    boardctl users [--api_url=<api_url>] --board=<board_id>
    boardctl export [--api_url=<api_url>] --board=<board_id>
        --out=<file>
    boardctl watch [--api_url=<api_url>] [--ws_url=<ws_url>]
        --board=<board_id>
        [--password=<password>]
        [--duration=<duration>]

Options:
    -h --help                Show this screen.
    --version                Show version.
    --api_url=<api_url>
    --ws_url=<ws_url>
    --board=<board_id>       Board id.
    --column=<column_id>     Column id.
    --title=<title>
    --password=<password>
    --out=<file>             Output file path.
    --duration=<duration>    Watch this long then exit, e.g. 30s.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], BoardCtlVersion)
	if err != nil {
		panic(err)
	}

	if createBoard_, _ := opts.Bool("create-board"); createBoard_ {
		createBoard(opts)
	} else if login_, _ := opts.Bool("login"); login_ {
		login(opts)
	} else if columns_, _ := opts.Bool("columns"); columns_ {
		columns(opts)
	} else if tasks_, _ := opts.Bool("tasks"); tasks_ {
		tasks(opts)
	} else if users_, _ := opts.Bool("users"); users_ {
		users(opts)
	} else if export_, _ := opts.Bool("export"); export_ {
		export(opts)
	} else if watch_, _ := opts.Bool("watch"); watch_ {
		watch(opts)
	}
}

func apiUrl(opts docopt.Opts) string {
	if apiUrl, err := opts.String("--api_url"); err == nil && apiUrl != "" {
		return apiUrl
	}
	return "https://futuboard.live/api/"
}

func wsUrl(opts docopt.Opts) string {
	if wsUrl, err := opts.String("--ws_url"); err == nil && wsUrl != "" {
		return wsUrl
	}
	return "wss://futuboard.live/board/"
}

func boardId(opts docopt.Opts) board.Id {
	boardIdStr, err := opts.String("--board")
	if err != nil {
		panic(err)
	}
	return board.RequireParseId(boardIdStr)
}

func createBoard(opts docopt.Opts) {
	title, _ := opts.String("--title")
	password, _ := opts.String("--password")

	api := board.NewBoardApi(apiUrl(opts), board.NewAuthStore())
	defer api.Close()

	created, err := api.AddBoardSync(&board.AddBoardArgs{
		Title:    title,
		Password: password,
	})
	if err != nil {
		panic(err)
	}
	Out.Printf("%s", created.BoardId)
}

func login(opts docopt.Opts) {
	password, _ := opts.String("--password")

	auth := board.NewAuthStore()
	api := board.NewBoardApi(apiUrl(opts), auth)
	defer api.Close()

	id := boardId(opts)
	result, err := api.LoginSync(&board.LoginArgs{
		BoardId:  id,
		Password: password,
	})
	if err != nil {
		panic(err)
	}
	if !result.Success {
		Err.Fatalf("login rejected")
	}
	Out.Printf("%s", auth.Token(id))
}

func columns(opts docopt.Opts) {
	api := board.NewBoardApi(apiUrl(opts), board.NewAuthStore())
	defer api.Close()

	columns, err := api.GetColumnsByBoardIdSync(boardId(opts))
	if err != nil {
		panic(err)
	}
	for _, column := range columns {
		Out.Printf("%s %s", column.ColumnId, column.Title)
	}
}

func tasks(opts docopt.Opts) {
	columnIdStr, err := opts.String("--column")
	if err != nil {
		panic(err)
	}
	columnId := board.RequireParseId(columnIdStr)

	api := board.NewBoardApi(apiUrl(opts), board.NewAuthStore())
	defer api.Close()

	tasks, err := api.GetTaskListByColumnIdSync(columnId)
	if err != nil {
		panic(err)
	}
	for _, task := range tasks {
		Out.Printf("%s [%d] %s", task.TicketId, task.Size, task.Title)
	}
}

func users(opts docopt.Opts) {
	api := board.NewBoardApi(apiUrl(opts), board.NewAuthStore())
	defer api.Close()

	users, err := api.GetUsersByBoardIdSync(boardId(opts))
	if err != nil {
		panic(err)
	}
	for _, user := range users {
		Out.Printf("%s %s (tasks=%d actions=%d)", user.UserId, user.Name, len(user.Tickets), len(user.Actions))
	}
}

func export(opts docopt.Opts) {
	outPath, err := opts.String("--out")
	if err != nil {
		panic(err)
	}

	api := board.NewBoardApi(apiUrl(opts), board.NewAuthStore())
	defer api.Close()

	exported, err := api.ExportBoardSync(boardId(opts))
	if err != nil {
		panic(err)
	}
	if err := os.WriteFile(outPath, exported, 0644); err != nil {
		panic(err)
	}
	Out.Printf("wrote %d bytes to %s", len(exported), outPath)
}

// watch joins a board and prints live changes as other clients edit
func watch(opts docopt.Opts) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := board.NewBoardClientWithDefaults(ctx, apiUrl(opts), wsUrl(opts))
	defer client.Close()

	id := boardId(opts)

	if password, err := opts.String("--password"); err == nil && password != "" {
		success, err := client.Login(id, password)
		if err != nil {
			panic(err)
		}
		if !success {
			Err.Fatalf("login rejected")
		}
	} else {
		client.EnterReadOnly(id)
	}

	client.AddNotificationCallback(func(notification *board.Notification) {
		Out.Printf("! %s", notification.Text)
	})
	client.Transport().AddStateCallback(func(state board.TransportState) {
		Out.Printf("~ transport %s", state)
	})

	client.OpenBoard(id)

	columnsSub := client.SubscribeColumns(id, func() {
		if columns, ok := client.Columns(id); ok {
			Out.Printf("* %d columns", len(columns))
			for _, column := range columns {
				Out.Printf("  %s %s", column.ColumnId, column.Title)
			}
		}
	})
	defer columnsSub.Unsubscribe()

	usersSub := client.SubscribeUsers(id, func() {
		if users, ok := client.Users(id); ok {
			Out.Printf("* %d users", len(users))
		}
	})
	defer usersSub.Unsubscribe()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if durationStr, err := opts.String("--duration"); err == nil && durationStr != "" {
		duration, err := time.ParseDuration(durationStr)
		if err != nil {
			panic(err)
		}
		select {
		case <-stop:
		case <-time.After(duration):
		}
	} else {
		<-stop
	}
}
