package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jaffee/commandeer"
	"github.com/sparkify/datalake/fake"
	"github.com/spf13/cobra"
)

// GenMain is wrapped by NewGenCommand and only exported for testing purposes.
var GenMain *fake.Main

// NewGenCommand returns a new cobra command wrapping GenMain.
func NewGenCommand(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var err error
	GenMain = fake.NewMain()
	genCommand := &cobra.Command{
		Use:    "gen",
		Short:  "Generate a fake song catalog and event log to a local directory.",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			err = GenMain.Run()
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, "Done: ", time.Since(start))
			return nil
		},
	}
	flags := genCommand.Flags()
	err = commandeer.Flags(flags, GenMain)
	if err != nil {
		panic(err)
	}
	return genCommand
}

func init() {
	subcommandFns["gen"] = NewGenCommand
}
