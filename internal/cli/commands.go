package cli

import (
	"github.com/spf13/cobra"

	"github.com/mbridge/mbridge/internal/bridge"
	"github.com/mbridge/mbridge/internal/token"
)

func addOperationCommands(root *cobra.Command, opts *RootOptions) {
	simple := []struct {
		use   string
		short string
		name  string
		op    bridge.Operation
	}{
		{"data NAME [SUB...]", "Report whether a node holds data and/or descendants", "data", bridge.OpData},
		{"get NAME [SUB...]", "Retrieve a node value", "get", bridge.OpGet},
		{"kill NAME [SUB...]", "Delete a node and its subtree", "kill", bridge.OpKill},
		{"order NAME SUB [SUB...]", "Next sibling subscript", "order", bridge.OpOrder},
		{"previous NAME SUB [SUB...]", "Previous sibling subscript", "previous", bridge.OpPrevious},
		{"next_node NAME [SUB...]", "Next node in depth-first order", "next_node", bridge.OpNextNode},
		{"previous_node NAME [SUB...]", "Previous node in depth-first order", "previous_node", bridge.OpPreviousNode},
		{"function NAME [ARG...]", "Call an extrinsic function", "function", bridge.OpFunction},
		{"procedure NAME [ARG...]", "Call a subroutine", "procedure", bridge.OpProcedure},
		{"unlock [NAME [SUB...]]", "Release a named lock, or all locks", "unlock", bridge.OpUnlock},
		{"version", "Report the engine version", "version", bridge.OpVersion},
		{"open", "Open the bridge connection", "open", bridge.OpOpen},
		{"close", "Close the bridge connection", "close", bridge.OpClose},
	}
	for _, c := range simple {
		c := c
		root.AddCommand(&cobra.Command{
			Use:   c.use,
			Short: c.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOperation(cmd, opts, c.name, c.op, args, nil)
			},
		})
	}

	root.AddCommand(newSetCommand(opts))
	root.AddCommand(newIncrementCommand(opts))
	root.AddCommand(newLockCommand(opts))
	root.AddCommand(newMergeCommand(opts))
	root.AddCommand(newDirectoryCommand(opts, "global_directory", "List global names", bridge.OpGlobalDirectory, "dirs"))
	root.AddCommand(newDirectoryCommand(opts, "local_directory", "List local names", bridge.OpLocalDirectory, "locals"))
}

// runOperation validates the invocation against the operation table,
// encodes the positional arguments as name plus subscripts, and runs one
// bridge call over a fresh engine connection.
func runOperation(cmd *cobra.Command, opts *RootOptions, name string, op bridge.Operation, args []string, mutate func(*bridge.Request)) error {
	if err := opts.table.CheckInvocation(name, len(args)); err != nil {
		return &ExitError{Code: ExitCommandError, Message: "invalid invocation", Err: err}
	}

	req := bridge.Request{Mode: opts.mode()}
	if len(args) > 0 {
		req.Name = args[0]
		req.Subscripts = token.List(args[1:])
	}
	if mutate != nil {
		mutate(&req)
	}

	b, err := opts.connect()
	if err != nil {
		return err
	}
	defer b.Close()

	f := opts.formatter(cmd)
	f.VerboseLog("dispatching %s (mode=%s, db=%q)", name, opts.cfg.Mode, opts.cfg.Database)

	result, callErr := b.Do(cmd.Context(), op, req)
	if callErr != nil {
		if err := f.Error(callErr); err != nil {
			return err
		}
		return &ExitError{Code: ExitFailure, Message: name + " failed", Err: callErr}
	}
	return f.Result(result)
}

func newSetCommand(opts *RootOptions) *cobra.Command {
	var value string
	cmd := &cobra.Command{
		Use:   "set NAME [SUB...] --value VALUE",
		Short: "Store a value at a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, "set", bridge.OpSet, args, func(req *bridge.Request) {
				req.Value = value
			})
		},
	}
	cmd.Flags().StringVar(&value, "value", "", "value to store")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newIncrementCommand(opts *RootOptions) *cobra.Command {
	var delta string
	cmd := &cobra.Command{
		Use:   "increment NAME [SUB...]",
		Short: "Atomically add a delta to a node",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, "increment", bridge.OpIncrement, args, func(req *bridge.Request) {
				req.Value = delta
			})
		},
	}
	cmd.Flags().StringVar(&delta, "value", "", "delta to add (default 1)")
	return cmd
}

func newLockCommand(opts *RootOptions) *cobra.Command {
	var timeout float64
	cmd := &cobra.Command{
		Use:   "lock NAME [SUB...]",
		Short: "Acquire a named lock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, "lock", bridge.OpLock, args, func(req *bridge.Request) {
				req.Timeout = timeout
			})
		},
	}
	cmd.Flags().Float64Var(&timeout, "timeout", -1, "lock wait in seconds (negative = wait forever)")
	return cmd
}

func newMergeCommand(opts *RootOptions) *cobra.Command {
	var toName string
	var toSubs []string
	cmd := &cobra.Command{
		Use:   "merge NAME [SUB...] --to NAME [--to-sub SUB]...",
		Short: "Copy a subtree onto another reference",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, "merge", bridge.OpMerge, args, func(req *bridge.Request) {
				req.To.Name = toName
				req.To.Subscripts = token.List(toSubs)
			})
		},
	}
	cmd.Flags().StringVar(&toName, "to", "", "target name")
	cmd.Flags().StringArrayVar(&toSubs, "to-sub", nil, "target subscript (repeatable)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newDirectoryCommand(opts *RootOptions, name, short string, op bridge.Operation, alias string) *cobra.Command {
	var max int
	var lo, hi string
	cmd := &cobra.Command{
		Use:     name,
		Aliases: []string{alias},
		Short:   short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, name, op, args, func(req *bridge.Request) {
				req.Max = max
				req.Lo = lo
				req.Hi = hi
			})
		},
	}
	cmd.Flags().IntVar(&max, "max", 0, "cap the listing (0 = unlimited)")
	cmd.Flags().StringVar(&lo, "lo", "", "lower name bound")
	cmd.Flags().StringVar(&hi, "hi", "", "upper name bound")
	return cmd
}
