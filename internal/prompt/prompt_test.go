package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type fakeDriver struct {
	chosen    string
	picked    []string
	confirm   bool
	err       error
	question  Question
	confirmed int
}

func (d *fakeDriver) Choose(_ context.Context, q Question) (string, error) {
	d.question = q
	return d.chosen, d.err
}

func (d *fakeDriver) ChooseMany(_ context.Context, q Question) ([]string, error) {
	d.question = q
	return d.picked, d.err
}

func (d *fakeDriver) Confirm(context.Context, string, bool) (bool, error) {
	d.confirmed++
	return d.confirm, d.err
}

func TestChooseModel(t *testing.T) {
	ctx := context.Background()

	name, err := ChooseModel(ctx, &fakeDriver{}, []string{"Article"})
	if err != nil || name != "Article" {
		t.Fatalf("expected single model without prompting, got %q, %v", name, err)
	}

	driver := &fakeDriver{chosen: "Author"}
	name, err = ChooseModel(ctx, driver, []string{"Article", "Author"})
	if err != nil || name != "Author" {
		t.Fatalf("expected Author, got %q, %v", name, err)
	}
	if diff := cmp.Diff([]string{"Article", "Author"}, driver.question.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}

	if _, err := ChooseModel(ctx, &fakeDriver{}, nil); err == nil {
		t.Fatalf("expected error for empty registry")
	}
	if _, err := ChooseModel(ctx, &fakeDriver{chosen: "Other"}, []string{"A", "B"}); err == nil {
		t.Fatalf("expected error when nothing valid was selected")
	}
	if _, err := ChooseModel(ctx, &fakeDriver{err: ErrAborted}, []string{"A", "B"}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestChooseFields(t *testing.T) {
	fields := []string{"title", "status", "author"}

	driver := &fakeDriver{picked: []string{"author", "title"}}
	got, err := ChooseFields(context.Background(), driver, "Article", fields)
	if err != nil {
		t.Fatalf("choose fields: %v", err)
	}
	if diff := cmp.Diff([]string{"title", "author"}, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(fields, driver.question.Defaults); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}

	all := &fakeDriver{confirm: true, picked: []string{"title"}}
	got, err = ChooseFields(context.Background(), all, "Article", fields)
	if err != nil || got != nil {
		t.Fatalf("expected nil when every field is kept, got %v, %v", got, err)
	}
	if all.question.Message != "" {
		t.Fatalf("expected no field picker after confirming all fields")
	}

	got, err = ChooseFields(context.Background(), &fakeDriver{}, "Article", fields)
	if err != nil || got != nil {
		t.Fatalf("expected nil for an empty pick, got %v, %v", got, err)
	}
}

func TestAskHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Survey().Choose(ctx, Question{Message: "x", Options: []string{"a"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
