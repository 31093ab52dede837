package main

import (
	"time"

	"voicenotes/internal/capture"

	"github.com/urfave/cli/v3"
)

func idArg() []cli.Argument {
	return []cli.Argument{&cli.StringArg{Name: "id"}}
}

// NewApp builds the command tree over r.
func NewApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: "Dictate notes and manage tasks, lecture notes and diary entries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to capture.toml", Value: defaultConfigPath(), Sources: cli.EnvVars("CAPTURE_CONFIG")},
			&cli.StringFlag{Name: "server", Usage: "API base URL", Sources: cli.EnvVars("VOICENOTES_SERVER")},
			&cli.StringFlag{Name: "user", Usage: "external user id sent as X-User-Id", Sources: cli.EnvVars("VOICENOTES_USER")},
			&cli.StringFlag{Name: "token", Usage: "session token", Sources: cli.EnvVars("VOICENOTES_TOKEN")},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "debug logging"},
		},
		Before: r.setup,
		Commands: []*cli.Command{
			{
				Name:  "record",
				Usage: "Capture a transcript from stdin and save it as a note",
				Flags: []cli.Flag{
					&cli.DurationFlag{Name: "silence", Usage: "stop after this long without input; negative disables", Value: capture.DefaultSilence},
					&cli.StringFlag{Name: "title", Usage: "use this title instead of the generated one"},
					&cli.BoolFlag{Name: "dry-run", Usage: "print the note instead of saving it"},
				},
				Action: r.Record,
			},
			{
				Name:      "title",
				Usage:     "Print the title generated for some text",
				ArgsUsage: "<text...>",
				Action:    r.Title,
			},
			{
				Name:  "notes",
				Usage: "List, show and delete notes",
				Commands: []*cli.Command{
					{
						Name: "list",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "tag", Usage: "only notes with this tag"},
							&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "search title and content"},
						},
						Action: r.NotesList,
					},
					{Name: "show", Arguments: idArg(), Action: r.NotesShow},
					{Name: "rm", Arguments: idArg(), Action: r.NotesDelete},
				},
			},
			{
				Name:  "task",
				Usage: "Manage tasks",
				Commands: []*cli.Command{
					{Name: "add", ArgsUsage: "<description...>", Action: r.TaskAdd},
					{Name: "list", Action: r.TaskList},
					{
						Name:      "done",
						Arguments: idArg(),
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "undo", Usage: "mark as not completed"}},
						Action:    r.TaskDone,
					},
					{Name: "rm", Arguments: idArg(), Action: r.TaskDelete},
				},
			},
			{
				Name:  "lecture",
				Usage: "Manage lecture notes",
				Commands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Save stdin as a lecture note",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "subject", Required: true}},
						Action: r.LectureAdd,
					},
					{
						Name:   "list",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "subject"}},
						Action: r.LectureList,
					},
					{Name: "rm", Arguments: idArg(), Action: r.LectureDelete},
				},
			},
			{
				Name:  "diary",
				Usage: "Manage diary entries",
				Commands: []*cli.Command{
					{
						Name:   "add",
						Usage:  "Save stdin as a diary entry",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD or RFC3339; defaults to today", Value: time.Now().Format(time.DateOnly)}},
						Action: r.DiaryAdd,
					},
					{Name: "list", Action: r.DiaryList},
					{Name: "rm", Arguments: idArg(), Action: r.DiaryDelete},
				},
			},
			{Name: "whoami", Usage: "Show the signed-in user", Action: r.Whoami},
		},
	}
}
