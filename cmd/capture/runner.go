package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"voicenotes/internal/capture"
	"voicenotes/internal/client"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
)

// Runner holds the dependencies of every command action.
type Runner struct {
	in     io.Reader
	out    io.Writer
	logger *log.Logger
	client *client.Client
}

type RunnerOpts struct {
	In     io.Reader
	Out    io.Writer
	Logger *log.Logger
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true})
	}
	return &Runner{in: opts.In, out: opts.Out, logger: opts.Logger}
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// setup loads the config file, applies flag overrides and builds the client.
func (r *Runner) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		r.logger.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(cmd.String("config"))
	if err != nil {
		return ctx, err
	}
	if v := cmd.String("server"); v != "" {
		cfg.Server = v
	}
	if v := cmd.String("user"); v != "" {
		cfg.UserID = v
	}
	if v := cmd.String("token"); v != "" {
		cfg.Token = v
	}
	if cfg.UserID == "" && cfg.Token == "" {
		r.logger.Warn("no user id or token configured; requests will be rejected")
	}

	r.logger.Debug("using server", "url", cfg.Server)
	r.client = client.New(cfg.Server, client.WithUserID(cfg.UserID), client.WithToken(cfg.Token))
	return ctx, nil
}

func parseID(cmd *cli.Command) (uint64, error) {
	raw := cmd.StringArg("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// Record captures a transcript from stdin, one utterance per line, and saves
// it as a note.
func (r *Runner) Record(ctx context.Context, cmd *cli.Command) error {
	verbose := cmd.Bool("verbose")
	s := capture.NewSession(
		func() capture.Recognizer { return capture.NewLineRecognizer(r.in) },
		capture.Options{
			Silence: cmd.Duration("silence"),
			Logger:  slog.New(r.logger),
			OnChange: func(snap capture.Snapshot) {
				if verbose && snap.State == capture.Listening {
					r.logger.Debug("transcript", "title", snap.Title, "words", len(strings.Fields(snap.Transcript)))
				}
			},
		},
	)
	defer s.Close()

	if err := s.Start(ctx); err != nil {
		return fmt.Errorf("start capture: %w", err)
	}
	r.logger.Info("listening; end input with Ctrl-D")

	select {
	case <-s.Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	if t := strings.TrimSpace(cmd.String("title")); t != "" {
		s.SetTitle(t)
	}
	snap := s.Snapshot()
	if snap.Err != nil {
		return fmt.Errorf("capture: %w", snap.Err)
	}
	if strings.TrimSpace(snap.Transcript) == "" || strings.TrimSpace(snap.Title) == "" {
		return fmt.Errorf("title and content cannot be empty")
	}

	if cmd.Bool("dry-run") {
		r.printf("%s\n%s\n", titleStyle.Render(snap.Title), snap.Transcript)
		return nil
	}

	n, err := r.client.CreateNote(ctx, snap.Title, snap.Transcript)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	r.printf("%s %s %s\n", okStyle.Render("saved"), titleStyle.Render(n.Title), dimStyle.Render(fmt.Sprintf("#%d", n.ID)))
	return nil
}

// Title prints the title the capture session would generate for the arguments.
func (r *Runner) Title(_ context.Context, cmd *cli.Command) error {
	r.printf("%s\n", capture.GenerateTitle(strings.Join(cmd.Args().Slice(), " ")))
	return nil
}

func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	notes, err := r.client.ListNotes(ctx, cmd.String("tag"), cmd.String("query"))
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		r.printf("%s\n", dimStyle.Render("no notes"))
		return nil
	}
	for _, n := range notes {
		r.printf("%s %s %s\n", dimStyle.Render(fmt.Sprintf("%4d", n.ID)), titleStyle.Render(n.Title), dimStyle.Render(n.CreatedAt.Local().Format(time.DateTime)))
		if len(n.Tags) > 0 {
			r.printf("     %s\n", tagStyle.Render("#"+strings.Join(n.Tags, " #")))
		}
	}
	return nil
}

func (r *Runner) NotesShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	n, err := r.client.GetNote(ctx, id)
	if err != nil {
		return err
	}
	r.printf("%s\n%s\n", titleStyle.Render(n.Title), n.Content)
	return nil
}

func (r *Runner) NotesDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	if err := r.client.DeleteNote(ctx, id); err != nil {
		return err
	}
	r.printf("%s note %d\n", okStyle.Render("deleted"), id)
	return nil
}

func (r *Runner) TaskAdd(ctx context.Context, cmd *cli.Command) error {
	desc := strings.Join(cmd.Args().Slice(), " ")
	t, err := r.client.CreateTask(ctx, desc)
	if err != nil {
		return err
	}
	r.printf("%s task %d\n", okStyle.Render("added"), t.ID)
	return nil
}

func (r *Runner) TaskList(ctx context.Context, _ *cli.Command) error {
	tasks, err := r.client.ListTasks(ctx)
	if err != nil {
		return err
	}
	for _, t := range tasks {
		box := "[ ]"
		if t.IsCompleted {
			box = okStyle.Render("[x]")
		}
		r.printf("%s %s %s\n", dimStyle.Render(fmt.Sprintf("%4d", t.ID)), box, t.Description)
	}
	return nil
}

// TaskDone marks a task complete, or incomplete with --undo.
func (r *Runner) TaskDone(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	done := !cmd.Bool("undo")
	t, err := r.client.UpdateTask(ctx, id, client.TaskPatch{IsCompleted: &done})
	if err != nil {
		return err
	}
	r.printf("%s task %d: %s\n", okStyle.Render("updated"), t.ID, t.Description)
	return nil
}

func (r *Runner) TaskDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	if err := r.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	r.printf("%s task %d\n", okStyle.Render("deleted"), id)
	return nil
}

func (r *Runner) LectureAdd(ctx context.Context, cmd *cli.Command) error {
	content, err := io.ReadAll(r.in)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	n, err := r.client.CreateLecture(ctx, cmd.String("subject"), strings.TrimSpace(string(content)))
	if err != nil {
		return err
	}
	r.printf("%s lecture note %d (%s)\n", okStyle.Render("added"), n.ID, n.Subject)
	return nil
}

func (r *Runner) LectureList(ctx context.Context, cmd *cli.Command) error {
	notes, err := r.client.ListLectures(ctx, cmd.String("subject"))
	if err != nil {
		return err
	}
	for _, n := range notes {
		r.printf("%s %s %s\n", dimStyle.Render(fmt.Sprintf("%4d", n.ID)), titleStyle.Render(n.Subject), capture.GenerateTitle(n.Content))
	}
	return nil
}

func (r *Runner) DiaryAdd(ctx context.Context, cmd *cli.Command) error {
	content, err := io.ReadAll(r.in)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	e, err := r.client.CreateDiary(ctx, strings.TrimSpace(string(content)), cmd.String("date"))
	if err != nil {
		return err
	}
	r.printf("%s diary entry %d for %s\n", okStyle.Render("added"), e.ID, e.Date.Format(time.DateOnly))
	return nil
}

func (r *Runner) DiaryList(ctx context.Context, _ *cli.Command) error {
	entries, err := r.client.ListDiary(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		r.printf("%s %s %s\n", dimStyle.Render(fmt.Sprintf("%4d", e.ID)), titleStyle.Render(e.Date.Format(time.DateOnly)), capture.GenerateTitle(e.Content))
	}
	return nil
}

func (r *Runner) Whoami(ctx context.Context, _ *cli.Command) error {
	u, err := r.client.Me(ctx)
	if err != nil {
		return err
	}
	r.printf("%s %s %s\n", titleStyle.Render(u.Name), u.ExternalID, dimStyle.Render(fmt.Sprintf("(id %d)", u.ID)))
	return nil
}

func (r *Runner) LectureDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	if err := r.client.DeleteLecture(ctx, id); err != nil {
		return err
	}
	r.printf("%s lecture note %d\n", okStyle.Render("deleted"), id)
	return nil
}

func (r *Runner) DiaryDelete(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd)
	if err != nil {
		return err
	}
	if err := r.client.DeleteDiary(ctx, id); err != nil {
		return err
	}
	r.printf("%s diary entry %d\n", okStyle.Render("deleted"), id)
	return nil
}
