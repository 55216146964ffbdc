package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/spetersoncode/phantommail"
	"github.com/spetersoncode/phantommail/batch"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// errCancelled is returned when the user quits the menu.
var errCancelled = errors.New("operation cancelled")

// quitChoice is the select value of the Quit entry.
const quitChoice = "quit"

// menu prompts for whatever the send flags left open. On a terminal it
// runs huh's interactive forms; otherwise it falls back to huh's
// accessible mode, which reads one answer per line.
type menu struct {
	in         io.Reader
	out        io.Writer
	prompts    *promptInput
	accessible bool
}

func newMenu(in io.Reader, out io.Writer) *menu {
	f, ok := in.(*os.File)
	tty := ok && isatty.IsTerminal(f.Fd())
	return &menu{
		in:         in,
		out:        out,
		prompts:    &promptInput{r: in},
		accessible: !tty || os.Getenv("ACCESSIBLE") != "",
	}
}

// ask runs fields as one form. Aborting the form, or running out of
// input in accessible mode, cancels.
func (m *menu) ask(fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).
		WithAccessible(m.accessible).
		WithOutput(m.out)
	if m.accessible {
		form = form.WithInput(m.prompts)
	} else {
		form = form.WithInput(m.in)
	}

	err := form.Run()
	switch {
	case errors.Is(err, huh.ErrUserAborted):
		return errCancelled
	case err != nil:
		return err
	case m.accessible && m.prompts.done:
		return errCancelled
	}
	return nil
}

func typeOptions() []huh.Option[string] {
	opts := []huh.Option[string]{
		huh.NewOption(phantommail.AllRandom+": Random type for each email", phantommail.AllRandom),
	}
	for _, c := range phantommail.Categories() {
		opts = append(opts, huh.NewOption(c.String()+": "+c.Description(), c.String()))
	}
	return append(opts, huh.NewOption("Quit", quitChoice))
}

func (m *menu) selectType() (string, error) {
	label := phantommail.AllRandom
	err := m.ask(huh.NewSelect[string]().
		Title("Select email type to generate:").
		Options(typeOptions()...).
		Value(&label))
	if err != nil {
		return "", err
	}
	if label == quitChoice {
		return "", errCancelled
	}
	return label, nil
}

// parseCount reads a positive count; blank means 1.
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, errors.New("please enter a positive number")
	}
	return n, nil
}

func (m *menu) selectCount() (int, error) {
	input := "1"
	err := m.ask(huh.NewInput().
		Title("How many emails to send?").
		Value(&input).
		Validate(func(s string) error {
			_, err := parseCount(s)
			return err
		}))
	if err != nil {
		return 0, err
	}
	return parseCount(input)
}

func (m *menu) enterRecipients() ([]string, error) {
	var input string
	err := m.ask(huh.NewInput().
		Title("Enter recipient email address(es) (comma-separated for multiple):").
		Value(&input).
		Validate(func(s string) error {
			_, err := parseRecipients(s)
			return err
		}))
	if err != nil {
		return nil, err
	}
	return parseRecipients(input)
}

// parseRecipients splits a comma-separated list and validates each address.
func parseRecipients(s string) ([]string, error) {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("please enter at least one email address")
	}
	for _, r := range out {
		if !emailPattern.MatchString(r) {
			return nil, fmt.Errorf("invalid email format: %s", r)
		}
	}
	return out, nil
}

func summary(sel batch.Selection) string {
	display := sel.Label()
	if sel.AllRandom {
		display = "random (different type each email)"
	}
	return fmt.Sprintf("Email Type: %s\nCount: %d email(s)\nRecipients: %s",
		display, sel.Count, strings.Join(sel.Recipients, ", "))
}

func (m *menu) confirm(sel batch.Selection) (bool, error) {
	proceed := true
	err := m.ask(
		huh.NewNote().Title("Configuration Summary").Description(summary(sel)),
		huh.NewConfirm().Title("Proceed with sending?").Value(&proceed),
	)
	return proceed, err
}

// complete fills the parts of a request left empty. label, count and
// recipients are taken as given when set; confirmation is asked only when
// something was prompted for.
func (m *menu) complete(label string, count int, recipients []string) (batch.Selection, error) {
	prompted := false
	var err error
	if label == "" {
		if label, err = m.selectType(); err != nil {
			return batch.Selection{}, err
		}
		prompted = true
	}
	if count == 0 {
		if count, err = m.selectCount(); err != nil {
			return batch.Selection{}, err
		}
		prompted = true
	}
	if len(recipients) == 0 {
		if recipients, err = m.enterRecipients(); err != nil {
			return batch.Selection{}, err
		}
		prompted = true
	}

	sel, err := batch.ParseSelection(label, count, recipients)
	if err != nil {
		return batch.Selection{}, err
	}
	if prompted {
		ok, err := m.confirm(sel)
		if err != nil {
			return batch.Selection{}, err
		}
		if !ok {
			return batch.Selection{}, errCancelled
		}
	}
	return sel, nil
}

// promptInput feeds huh's accessible prompts. Each prompt scans with its
// own buffered scanner, so bytes are handed out one at a time to keep
// later answers unread. Once the source is exhausted it yields two
// newlines before io.EOF, so a prompt holding a rejected answer falls back
// to its default instead of using the rejected one.
type promptInput struct {
	r       io.Reader
	done    bool
	pending int
}

func (p *promptInput) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	if !p.done {
		n, err := p.r.Read(b[:1])
		if n == 1 {
			return 1, nil
		}
		if err == nil {
			return 0, nil
		}
		p.done, p.pending = true, 2
	}
	if p.pending == 0 {
		return 0, io.EOF
	}
	p.pending--
	b[0] = '\n'
	return 1, nil
}
