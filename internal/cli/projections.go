package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/cloud-ru/realty-projection-go/internal/calculations"
	"github.com/cloud-ru/realty-projection-go/internal/projection"
	"github.com/google/subcommands"
)

type createCmd struct {
	file string
}

func (*createCmd) Name() string     { return "create" }
func (*createCmd) Synopsis() string { return "store a projection read from a JSON file" }
func (*createCmd) Usage() string {
	return `create -f <projection.json>

  Reads a projection (use "-" for stdin) and stores it. Prints the new id.
`
}

func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "-", "JSON file with the projection.")
}

func (c *createCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var r io.Reader = os.Stdin
	if c.file != "-" {
		f, err := os.Open(c.file)
		if err != nil {
			return fail(err)
		}
		defer f.Close()
		r = f
	}

	var p calculations.Projection
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fail(fmt.Errorf("failed to decode projection: %w", err))
	}
	p.ID = 0
	p.Results = nil

	e, err := loadEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	st, err := e.openStore()
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	id, err := st.CreateProjection(ctx, &p)
	if err != nil {
		return fail(err)
	}
	fmt.Println(id)
	return subcommands.ExitSuccess
}

type recomputeCmd struct {
	id       int64
	strategy string
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "recompute a stored projection" }
func (*recomputeCmd) Usage() string {
	return `recompute -id <projection> [-strategy FUTURE_SALE|ASSET_APPRECIATION|RENTAL_YIELD]

  Rebuilds the schedules and strategy results of a stored projection and
  prints the updated aggregate as JSON. With -strategy only that strategy
  is recomputed and merged into the stored results.
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	f.Int64Var(&c.id, "id", 0, "Projection id.")
	f.StringVar(&c.strategy, "strategy", "", "Recompute only this strategy.")
}

func (c *recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.id <= 0 {
		fmt.Fprintln(os.Stderr, "missing -id")
		return subcommands.ExitUsageError
	}

	e, err := loadEnv()
	if err != nil {
		return fail(err)
	}
	defer e.close()

	st, err := e.openStore()
	if err != nil {
		return fail(err)
	}
	defer st.Close()

	svc := projection.NewService(st, e.builder(), e.log, e.tracer)

	var results *calculations.CalculationResults
	if c.strategy == "" {
		results, err = svc.RecomputeAll(ctx, c.id)
	} else {
		results, err = svc.RecomputeStrategy(ctx, c.id, c.strategy)
	}
	if err != nil {
		return fail(err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
