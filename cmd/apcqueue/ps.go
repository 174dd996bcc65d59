package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"apcqueue/process"
	"apcqueue/remote"
)

func newPsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ps [name-prefix]",
		Short:        "List processes, optionally those whose name starts with a prefix",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sys, _, err := systemFactory()
			if err != nil {
				return err
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}

			entries, err := remote.ListProcesses(sys, prefix)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"PID", "PPID", "Threads", "Name"})
			for _, e := range entries {
				t.AppendRow(table.Row{e.PID, e.PPID, e.Threads, e.Name})
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newThreadsCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "threads <pid>",
		Short:        "List the threads owned by a process",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid pid %q: %w", args[0], err)
			}

			sys, _, err := systemFactory()
			if err != nil {
				return err
			}

			threads, err := remote.EnumerateThreads(remote.Env{System: sys}, process.ProcessID(pid))
			if err != nil {
				return err
			}
			defer threads.Close()

			t := table.NewWriter()
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"TID", "Owner PID"})
			for _, th := range threads.Threads() {
				t.AppendRow(table.Row{th.ThreadID, th.OwnerPID})
			}
			t.AppendFooter(table.Row{"", fmt.Sprintf("%d threads", threads.Len())})
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}
