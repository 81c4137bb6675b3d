package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/stemsi/exstem-attempt/internal/model"
)

type command struct {
	name string
	arg  string
}

// parseCommand splits an input line into a verb and the rest of the line.
// A bare number is shorthand for goto.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{}
	}
	verb, rest, _ := strings.Cut(line, " ")
	verb = strings.ToLower(verb)
	if _, err := strconv.Atoi(verb); err == nil && rest == "" {
		return command{name: "goto", arg: verb}
	}
	switch verb {
	case "n":
		verb = "next"
	case "p":
		verb = "prev"
	case "a":
		verb = "answer"
	case "q", "exit":
		verb = "quit"
	case "?":
		verb = "help"
	}
	return command{name: verb, arg: strings.TrimSpace(rest)}
}

// resolveAnswer turns user input into the stored answer value. For choice
// questions a 1-based option number selects that option.
func resolveAnswer(q model.Question, input string) string {
	if q.Type != model.QuestionTypeSingleChoice {
		return input
	}
	n, err := strconv.Atoi(input)
	if err != nil || n < 1 || n > len(q.Options) {
		return input
	}
	return q.Options[n-1]
}

func formatRemaining(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

const helpText = `Commands:
  show            print the current question
  list            list all questions with their answer status
  next | prev     move between questions (n, p)
  goto <n>        jump to question n (or just type n)
  answer <value>  answer the current question (a); option number for choices
  clear           clear the current answer
  time            show the time remaining
  submit          submit the attempt
  quit            leave without submitting; answers stay saved (q)
Ctrl+C twice leaves the exam.`
