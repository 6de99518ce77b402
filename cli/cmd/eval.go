package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/resgen/eval"
	"github.com/ardnew/resgen/log"
)

// Eval evaluates expressions against the compiled resources.
type Eval struct {
	Exprs []string `arg:"" help:"Expressions to evaluate, such as String.Ui.TITLE or greeting(\"Ann\", 2)" name:"expr"`

	out io.Writer
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	res, err := load(ctx)
	if err != nil {
		return err
	}

	env := eval.New(res, eval.WithLogger(log.Default()))
	w := stdout(e.out)

	for _, src := range e.Exprs {
		v, err := env.Eval(ctx, src)
		if err != nil {
			return err
		}

		log.TraceContext(ctx, "evaluated", slog.String("expr", src))

		if _, err := fmt.Fprintln(w, eval.Format(v)); err != nil {
			return err
		}
	}

	return nil
}
