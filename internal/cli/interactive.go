package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stockparts/internal/entry"
	"github.com/mesh-intelligence/stockparts/internal/scan"
	"github.com/mesh-intelligence/stockparts/internal/view"
	"github.com/mesh-intelligence/stockparts/pkg/types"
)

const quitCommand = ".quit"

// prompter is the line editor used by the entry command.
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// newPrompter is replaced in tests.
var newPrompter = func() prompter {
	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	return l
}

var errQuit = errors.New("quit")

func newEntryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entry",
		Short: "Interactive entry form",
		Long: `Entry prompts for SKU, manufacturer and manufacturer part number in a
loop and saves each completed form. Answer a prompt with @path/to/image.png
to fill the field from a barcode image. Type .quit or press Ctrl-D to stop.`,
		Args: cobra.NoArgs,
		RunE: runEntry,
	}
}

func runEntry(cmd *cobra.Command, args []string) error {
	svc, err := openService(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	p := newPrompter()
	defer p.Close()

	out := cmd.OutOrStdout()
	printNotice(out, svc)
	f := &entryForm{svc: svc, p: p, out: out, dec: newDecoder()}

	var st view.State
	for {
		st, err = f.fill(cmd.Context(), st)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return sysError("read input", err)
		}
		res, err := svc.Submit(cmd.Context(), st.Form.Entry())
		if errors.Is(err, types.ErrValidation) {
			// Keep what was typed; fill asks only for the empty fields.
			fmt.Fprintln(out, entry.UserMessage(err))
			st = st.Cancel()
			continue
		}
		if err != nil {
			fmt.Fprintln(out, entry.UserMessage(err))
			st = st.Cancel()
			st.Form = view.Form{}
			continue
		}
		fmt.Fprintln(out, res.Message())
		st = st.Saved()
	}
}

type entryForm struct {
	svc *entry.Service
	p   prompter
	out io.Writer
	dec scan.Decoder
}

// fill prompts, in order, for every field that is still empty and returns
// the completed state.
func (f *entryForm) fill(ctx context.Context, st view.State) (view.State, error) {
	for _, field := range view.Fields {
		if strings.TrimSpace(st.Form.Get(field)) != "" {
			continue
		}
		var err error
		st, err = f.ask(st, field)
		if err != nil {
			return st, err
		}
		if field == view.FieldSKU && st.Form.SKU != "" {
			if d, err := f.svc.Preview(ctx, st.Form.SKU); err == nil {
				fmt.Fprintln(f.out, d.Describe(st.Form.SKU))
			}
		}
	}
	return st, nil
}

func (f *entryForm) ask(st view.State, field view.Field) (view.State, error) {
	for {
		line, err := f.p.Prompt(field.Label() + ": ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			return st, errQuit
		}
		if err != nil {
			return st, err
		}
		line = strings.TrimSpace(line)
		if line == quitCommand {
			return st, errQuit
		}
		if path, ok := strings.CutPrefix(line, "@"); ok {
			st = st.StartScan(field)
			text, found, err := scan.DecodeFile(f.dec, strings.TrimSpace(path))
			if err != nil {
				fmt.Fprintln(f.out, "Could not read the image:", err)
				st = st.Cancel()
				continue
			}
			if !found {
				fmt.Fprintln(f.out, "No barcode detected. Try again.")
				st = st.Cancel()
				continue
			}
			st = st.Scanned(text, true)
			fmt.Fprintf(f.out, "Scanned %s: %s\n", field.Label(), text)
			return st, nil
		}
		if line != "" {
			f.p.AppendHistory(line)
		}
		st.Form = st.Form.With(field, line)
		return st, nil
	}
}
