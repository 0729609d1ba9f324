// Package prompt asks the terminal user to pick models and fields when the
// command line leaves them out.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted signals the user interrupted a prompt.
var ErrAborted = errors.New("prompt: aborted")

// Question describes a pick from a list of options.
type Question struct {
	Message  string
	Options  []string
	Defaults []string
	PageSize int
}

// Driver abstracts the terminal so command logic can be tested without one.
type Driver interface {
	Choose(ctx context.Context, q Question) (string, error)
	ChooseMany(ctx context.Context, q Question) ([]string, error)
	Confirm(ctx context.Context, message string, def bool) (bool, error)
}

// Survey returns the survey backed Driver.
func Survey() Driver {
	return surveyDriver{}
}

// Interactive reports whether stdin is attached to a terminal.
func Interactive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

type surveyDriver struct{}

func (surveyDriver) Choose(ctx context.Context, q Question) (string, error) {
	var out string
	p := &survey.Select{Message: q.Message, Options: q.Options, PageSize: q.PageSize}
	if len(q.Defaults) > 0 {
		p.Default = q.Defaults[0]
	}
	return out, ask(ctx, p, &out)
}

func (surveyDriver) ChooseMany(ctx context.Context, q Question) ([]string, error) {
	var out []string
	p := &survey.MultiSelect{Message: q.Message, Options: q.Options, PageSize: q.PageSize}
	if len(q.Defaults) > 0 {
		p.Default = q.Defaults
	}
	return out, ask(ctx, p, &out)
}

func (surveyDriver) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	var out bool
	return out, ask(ctx, &survey.Confirm{Message: message, Default: def}, &out)
}

func ask(ctx context.Context, p survey.Prompt, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := survey.AskOne(p, out); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return ErrAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// ChooseModel asks for one of names. A single name is returned without
// prompting.
func ChooseModel(ctx context.Context, driver Driver, names []string) (string, error) {
	switch len(names) {
	case 0:
		return "", errors.New("prompt: no models to choose from")
	case 1:
		return names[0], nil
	}
	name, err := driver.Choose(ctx, Question{
		Message:  "Model to validate against:",
		Options:  names,
		PageSize: 10,
	})
	if err != nil {
		return "", err
	}
	if !contains(names, name) {
		return "", errors.New("prompt: no model selected")
	}
	return name, nil
}

// ChooseFields asks which of fields to validate, after offering to keep all
// of them. A nil result means every field.
func ChooseFields(ctx context.Context, driver Driver, modelName string, fields []string) ([]string, error) {
	all, err := driver.Confirm(ctx, fmt.Sprintf("Validate all %d fields of %s?", len(fields), modelName), true)
	if err != nil || all {
		return nil, err
	}
	picked, err := driver.ChooseMany(ctx, Question{
		Message:  "Fields to validate:",
		Options:  fields,
		Defaults: fields,
		PageSize: 15,
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(picked))
	for _, field := range fields {
		if contains(picked, field) {
			out = append(out, field)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
