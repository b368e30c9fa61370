package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// prompter reads numbered or yes/no answers. Invalid input re-asks.
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

var stdinPrompter = &prompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}

func (p *prompter) readLine() (string, error) {
	input, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// ask prints label with its default in brackets and returns the answer,
// or def when the answer is empty.
func (p *prompter) ask(label, def string) (string, error) {
	if def != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, def)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	input, err := p.readLine()
	if err != nil {
		return "", err
	}
	if input == "" {
		return def, nil
	}
	return input, nil
}

// require re-asks until the answer is not empty.
func (p *prompter) require(label, def string) (string, error) {
	for {
		v, err := p.ask(label, def)
		if err != nil || v != "" {
			return v, err
		}
		fmt.Fprintf(p.out, "  Error: %s is required\n", strings.ToLower(label))
	}
}

// promptConfirm asks a yes/no question; the default is no.
func promptConfirm(question string) (bool, error) {
	return stdinPrompter.confirm(question)
}

func (p *prompter) confirm(question string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [y/N]: ", question)
		input, err := p.readLine()
		if err != nil {
			return false, err
		}
		switch strings.ToLower(input) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer y or n.")
	}
}

// DownloadConflictAction represents user choice for download file conflicts
type DownloadConflictAction int

const (
	DownloadSkipOnce DownloadConflictAction = iota
	DownloadSkipAll
	DownloadOverwriteOnce
	DownloadOverwriteAll
	DownloadResumeOnce
	DownloadResumeAll
	DownloadAbort
)

// All reports whether the choice applies to every remaining conflict.
func (a DownloadConflictAction) All() bool {
	return a == DownloadSkipAll || a == DownloadOverwriteAll || a == DownloadResumeAll
}

// promptDownloadConflict asks user what to do when download file already exists
func promptDownloadConflict(fileName, localPath string, partial bool) (DownloadConflictAction, error) {
	return stdinPrompter.downloadConflict(fileName, localPath, partial)
}

func (p *prompter) downloadConflict(fileName, localPath string, partial bool) (DownloadConflictAction, error) {
	for {
		if partial {
			fmt.Fprintf(p.out, "\n⚠️  A partial download of '%s' exists at '%s'.\n", fileName, localPath)
		} else {
			fmt.Fprintf(p.out, "\n⚠️  File '%s' already exists at '%s'.\n", fileName, localPath)
		}
		fmt.Fprintln(p.out, "What would you like to do?")
		fmt.Fprintln(p.out, "  1. Skip (once) - Skip this file only")
		fmt.Fprintln(p.out, "  2. Skip (do for all) - Skip all existing files")
		fmt.Fprintln(p.out, "  3. Overwrite (once) - Replace this file, prompt for next")
		fmt.Fprintln(p.out, "  4. Overwrite (do for all) - Replace all existing files")
		fmt.Fprintln(p.out, "  5. Resume (once) - Continue a partial download, prompt for next")
		fmt.Fprintln(p.out, "  6. Resume (do for all) - Continue all partial downloads")
		fmt.Fprintln(p.out, "  7. Abort - Stop download")
		fmt.Fprint(p.out, "Choose [1-7]: ")

		input, err := p.readLine()
		if err != nil {
			return DownloadAbort, err
		}
		switch input {
		case "1":
			return DownloadSkipOnce, nil
		case "2":
			return DownloadSkipAll, nil
		case "3":
			return DownloadOverwriteOnce, nil
		case "4":
			return DownloadOverwriteAll, nil
		case "5":
			return DownloadResumeOnce, nil
		case "6":
			return DownloadResumeAll, nil
		case "7":
			return DownloadAbort, nil
		}
		fmt.Fprintln(p.out, "Invalid choice, please try again.")
	}
}

// ErrorAction represents user choice for error handling
type ErrorAction int

const (
	ErrorContinueOnce ErrorAction = iota
	ErrorContinueAll
	ErrorAbort
)

// promptUploadError asks user what to do when upload fails
func promptUploadError(fileName string, err error) (ErrorAction, error) {
	return stdinPrompter.uploadError(fileName, err)
}

func (p *prompter) uploadError(fileName string, uploadErr error) (ErrorAction, error) {
	for {
		fmt.Fprintf(p.out, "\n❌ Error uploading '%s': %v\n", fileName, uploadErr)
		fmt.Fprintln(p.out, "What would you like to do?")
		fmt.Fprintln(p.out, "  1. Continue (once) - Skip this file, prompt for next error")
		fmt.Fprintln(p.out, "  2. Continue (do for all) - Skip all errors")
		fmt.Fprintln(p.out, "  3. Abort - Stop upload")
		fmt.Fprint(p.out, "Choose [1-3]: ")

		input, err := p.readLine()
		if err != nil {
			return ErrorAbort, err
		}
		switch input {
		case "1":
			return ErrorContinueOnce, nil
		case "2":
			return ErrorContinueAll, nil
		case "3":
			return ErrorAbort, nil
		}
		fmt.Fprintln(p.out, "Invalid choice, please try again.")
	}
}
