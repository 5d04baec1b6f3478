package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/fluentlabs-xyz/fluentbase-core/evmtypes"
	"github.com/fluentlabs-xyz/fluentbase-core/fluentbase"
	"github.com/fluentlabs-xyz/fluentbase-core/journal"
	"github.com/fluentlabs-xyz/fluentbase-core/rwasm"
	"github.com/fluentlabs-xyz/fluentbase-core/syscall"
)

var RunCmd = cli.Command{
	Action: doRun,
	Name:   "run",
	Usage:  "Assemble the built-in add(a, b) fixture and run it through the driver",
	Flags: []cli.Flag{
		&cli.Uint64Flag{Name: "a", Usage: "first addend", Value: 2},
		&cli.Uint64Flag{Name: "b", Usage: "second addend", Value: 40},
		&cli.Uint64Flag{Name: "gas", Usage: "gas limit for the call", Value: 1_000_000},
	},
}

func doRun(c *cli.Context) error {
	a, b, gasLimit := c.Uint64("a"), c.Uint64("b"), c.Int64("gas")

	module, err := buildAddModule(a, b)
	if err != nil {
		return fmt.Errorf("assembling fixture module: %w", err)
	}

	caller := evmtypes.Address{0x01}
	target := evmtypes.Address{0x02}

	j := journal.NewMemoryJournal(0)
	j.SeedAccount(journal.Account{Address: caller, Balance: evmtypes.Value{31: 100}})
	j.SeedAccount(journal.Account{Address: target, Code: journal.RwasmModule{Bytes: []byte("fixture-add")}})

	registry := fluentbase.NewModuleRegistry()
	registry.Register([]byte("fixture-add"), module)

	schedule := syscall.DefaultSchedule(syscall.RevisionPrague)
	driver := fluentbase.NewDriver(j, registry, schedule, rwasm.DefaultLimits(), rwasm.DefaultFuelCosts(), nil)

	result, err := driver.Run(journal.RwasmModule{Bytes: []byte("fixture-add")}, fluentbase.Params{
		Caller:   caller,
		Target:   target,
		IsStatic: false,
		GasLimit: evmtypes.Gas(gasLimit),
	})
	if err != nil {
		return fmt.Errorf("running module: %w", err)
	}

	exitCode := "ok"
	if !result.ExitCode.IsOk() {
		exitCode = string(result.ExitCode)
	}
	fmt.Printf("exit code: %s\n", exitCode)
	fmt.Printf("gas left:  %d\n", result.GasLeft)
	fmt.Printf("output:    %x\n", result.Output)
	return nil
}
