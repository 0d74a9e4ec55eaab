package util

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sidkik/hoist/pkg/errors"
)

// Prompter asks the user questions on the terminal.
type Prompter interface {
	// Input asks for free-form text. An empty answer selects
	// `defaultAnswer`. If `validate` returns an error, the question is
	// asked again.
	Input(prompt, defaultAnswer string, validate func(string) error) (string, error)

	// Confirm asks a yes or no question.
	Confirm(prompt string, defaultAnswer bool) (bool, error)

	// Select asks the user to pick one of `options`, and returns its index.
	Select(prompt string, options []string, defaultIndex int) (int, error)
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter creates a Prompter that reads answers from `in`.
func NewPrompter(in io.Reader, out io.Writer) Prompter {
	return prompter{bufio.NewReader(in), out}
}

func (p prompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", errors.WithContext(err, "read response")
	}
	return strings.TrimSpace(line), nil
}

func (p prompter) Input(prompt, defaultAnswer string, validate func(string) error) (string, error) {
	for {
		if defaultAnswer != "" {
			fmt.Fprintf(p.out, "%s (%s): ", prompt, defaultAnswer)
		} else {
			fmt.Fprintf(p.out, "%s: ", prompt)
		}

		resp, err := p.readLine()
		if err != nil {
			return "", err
		}
		if resp == "" {
			resp = defaultAnswer
		}

		if validate == nil {
			return resp, nil
		}
		if err := validate(resp); err != nil {
			fmt.Fprintln(p.out, errors.GetPrintableMessage(err))
			continue
		}
		return resp, nil
	}
}

func (p prompter) Confirm(prompt string, defaultAnswer bool) (bool, error) {
	options := "y/N"
	if defaultAnswer {
		options = "Y/n"
	}

	for {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, options)
		resp, err := p.readLine()
		if err != nil {
			return false, err
		}

		switch strings.ToLower(resp) {
		case "":
			return defaultAnswer, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

func (p prompter) Select(prompt string, options []string, defaultIndex int) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to choose from")
	}
	if defaultIndex < 0 || defaultIndex >= len(options) {
		defaultIndex = 0
	}

	fmt.Fprintln(p.out, prompt+":")
	fmt.Fprintln(p.out)
	for i, option := range options {
		if i == defaultIndex {
			option = fmt.Sprintf("%s (recommended)", option)
		}
		fmt.Fprintf(p.out, "\t%d. %s\n", i+1, option)
	}
	fmt.Fprintln(p.out)

	for {
		fmt.Fprintf(p.out, "Please choose one [1-%d]: ", len(options))
		choiceStr, err := p.readLine()
		if err != nil {
			return 0, err
		}

		// Default to the recommended choice if user doesn't enter anything.
		if choiceStr == "" {
			return defaultIndex, nil
		}

		choice, err := strconv.Atoi(choiceStr)
		if err != nil || choice < 1 || choice > len(options) {
			// Try again if the input is invalid.
			continue
		}
		return choice - 1, nil
	}
}
