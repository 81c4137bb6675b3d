package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-attempt/internal/config"
	"github.com/stemsi/exstem-attempt/internal/logger"
	"github.com/stemsi/exstem-attempt/internal/model"
	"github.com/stemsi/exstem-attempt/internal/service"
	"github.com/stemsi/exstem-attempt/internal/session"
	"golang.org/x/term"
)

func main() {
	var (
		examFlag string
		logPath  string
	)
	flag.StringVar(&examFlag, "exam", "", "Exam ID to attempt")
	flag.StringVar(&logPath, "log", "exam-cli.log", "Log file path")
	flag.Parse()

	if examFlag == "" && flag.NArg() > 0 {
		examFlag = flag.Arg(0)
	}
	examID, err := uuid.Parse(examFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Usage: exam-cli [-log file] -exam <exam-id>")
		os.Exit(2)
	}

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	log := logger.New(logFile, cfg.LogLevel, cfg.LogFormat)

	if cfg.APIToken == "" {
		token, err := readToken()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.APIToken = token
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ui := &screen{out: os.Stdout, submitted: make(chan *model.SubmitResult, 1)}
	platform := newTerminalPlatform()

	opts, closeStorage, err := service.BuildSessionOptions(ctx, cfg, platform, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeStorage()
	opts.Notifier = session.NotifierFunc(ui.notify)

	engine := session.New(opts)
	run(ctx, engine, examID, platform, ui, log)
}

// readToken prompts for the student's access token without echo.
func readToken() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("API_TOKEN is not set and stdin is not a terminal")
	}
	fmt.Print("Access token: ")
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return "", errors.New("access token is required")
	}
	return token, nil
}

func run(ctx context.Context, engine *session.Engine, examID uuid.UUID, platform *terminalPlatform, ui *screen, log zerolog.Logger) {
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		engine.Close(closeCtx)
	}()

	if err := engine.Hydrate(ctx, examID); err != nil {
		ui.printf("Could not load the exam: %v\n", err)
		return
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	snap := engine.Snapshot()
	ui.printf("%s\n%s\n", snap.Exam.Title, snap.Exam.Instructions)

	switch snap.State {
	case model.AttemptStatusSubmitted:
		ui.printf("This attempt was already submitted.\n")
		ui.printResult(snap.Result)
		return
	case model.AttemptStatusNotStarted:
		ui.printf("%d questions, %d minutes. Press Enter to start.\n", len(snap.Questions), snap.Exam.DurationMinutes)
		if _, ok := <-lines; !ok {
			return
		}
		if err := engine.Start(ctx); err != nil {
			ui.printf("Could not start the attempt: %v\n", err)
			return
		}
	default:
		ui.printf("Resuming your attempt.\n")
	}

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	ui.showQuestion(engine.Snapshot())
	for {
		ui.prompt(engine.Snapshot())
		select {
		case <-interrupts:
			leave, warned := platform.interrupt(time.Now())
			if warned {
				ui.printf("\nLeaving is recorded. Press Ctrl+C again within %s to leave.\n", leaveWindow)
			}
			if leave {
				ui.printf("\nLeaving. Your answers are saved and the attempt stays open.\n")
				return
			}

		case res := <-ui.submitted:
			ui.printResult(res)
			return

		case line, ok := <-lines:
			if !ok {
				return
			}
			if done := handle(ctx, engine, parseCommand(line), ui, log); done {
				return
			}
		}
	}
}

// handle runs one command and reports whether the client should exit.
func handle(ctx context.Context, engine *session.Engine, cmd command, ui *screen, log zerolog.Logger) bool {
	snap := engine.Snapshot()
	current := func() (model.Question, bool) {
		if len(snap.Questions) == 0 {
			return model.Question{}, false
		}
		return snap.Questions[snap.CurrentQuestionIndex], true
	}

	switch cmd.name {
	case "":
	case "help":
		ui.printf("%s\n", helpText)
	case "show":
		ui.showQuestion(snap)
	case "list":
		ui.listQuestions(snap)
	case "next", "prev", "goto":
		index := snap.CurrentQuestionIndex
		switch cmd.name {
		case "next":
			index++
		case "prev":
			index--
		default:
			n, err := strconv.Atoi(cmd.arg)
			if err != nil {
				ui.printf("goto needs a question number\n")
				return false
			}
			index = n - 1
		}
		if _, err := engine.SetCurrentQuestion(index); err != nil {
			ui.printf("%v\n", err)
			return false
		}
		ui.showQuestion(engine.Snapshot())
	case "answer", "clear":
		q, ok := current()
		if !ok {
			return false
		}
		value := ""
		if cmd.name == "answer" {
			if cmd.arg == "" {
				ui.printf("answer needs a value\n")
				return false
			}
			value = resolveAnswer(q, cmd.arg)
		}
		if err := engine.SetAnswer(q.ID, value); err != nil {
			if errors.Is(err, session.ErrInvalidOption) {
				ui.printf("Not one of the options. Use the option number.\n")
				return false
			}
			ui.printf("%v\n", err)
			return false
		}
		ui.printf("Saved.\n")
	case "time":
		ui.printf("Time remaining %s\n", formatRemaining(snap.SecondsRemaining))
	case "submit":
		ui.printf("%d of %d answered. Submitting...\n", snap.AnsweredCount, len(snap.Questions))
		res, err := engine.Submit(ctx, false)
		if err != nil {
			log.Warn().Err(err).Msg("Manual submit failed")
			ui.printf("Submit failed: %v. Your answers are kept, try again.\n", err)
			return false
		}
		ui.printResult(res)
		return true
	case "quit":
		ui.printf("Leaving. Your answers are saved and the attempt stays open.\n")
		return true
	default:
		ui.printf("Unknown command %q, type help\n", cmd.name)
	}
	return false
}

// screen serializes terminal output between the input loop and engine events.
type screen struct {
	mu        sync.Mutex
	out       io.Writer
	submitted chan *model.SubmitResult
}

func (s *screen) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}

func (s *screen) notify(ev session.Event) {
	switch ev.Type {
	case session.EventWarning:
		s.printf("\n*** %s remaining ***\n", formatRemaining(ev.SecondsRemaining))
	case session.EventAutoSubmitFailed:
		s.printf("\nTime is up. Submitting failed (%s), retrying...\n", ev.Error)
	case session.EventSubmitted:
		select {
		case s.submitted <- ev.Result:
		default:
		}
	}
}

func (s *screen) prompt(snap session.Snapshot) {
	s.printf("[%s | %d/%d] > ", formatRemaining(snap.SecondsRemaining), snap.CurrentQuestionIndex+1, len(snap.Questions))
}

func (s *screen) showQuestion(snap session.Snapshot) {
	if len(snap.Questions) == 0 {
		return
	}
	q := snap.Questions[snap.CurrentQuestionIndex]
	var b strings.Builder
	fmt.Fprintf(&b, "\nQuestion %d of %d (%g marks)\n%s\n", snap.CurrentQuestionIndex+1, len(snap.Questions), q.Marks, q.Prompt)
	for i, opt := range q.Options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, opt)
	}
	if a, ok := snap.Answers[q.ID]; ok {
		fmt.Fprintf(&b, "Your answer: %s\n", a)
	}
	s.printf("%s", b.String())
}

func (s *screen) listQuestions(snap session.Snapshot) {
	var b strings.Builder
	for i, q := range snap.Questions {
		mark := " "
		if _, ok := snap.Answers[q.ID]; ok {
			mark = "x"
		}
		cursor := " "
		if i == snap.CurrentQuestionIndex {
			cursor = ">"
		}
		fmt.Fprintf(&b, "%s [%s] %d. %s\n", cursor, mark, i+1, truncate(q.Prompt, 60))
	}
	fmt.Fprintf(&b, "%d of %d answered\n", snap.AnsweredCount, len(snap.Questions))
	s.printf("%s", b.String())
}

func (s *screen) printResult(res *model.SubmitResult) {
	if res == nil {
		s.printf("\nSubmitted.\n")
		return
	}
	s.printf("\nSubmitted. Score %g / %g (%.1f%%)", res.Score, res.MaxScore, res.Percentage)
	if res.Grade != "" {
		s.printf(", grade %s", res.Grade)
	}
	s.printf("\n")
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}
