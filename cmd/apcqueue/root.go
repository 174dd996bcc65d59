package main

import (
	"fmt"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
	"github.com/spf13/cobra"

	"apcqueue/config"
	"apcqueue/inject"
	"apcqueue/payload"
	"apcqueue/process"
	"apcqueue/remote"
)

// systemFactory is swapped in tests
var systemFactory = newSystem

type rootOptions struct {
	pid        uint32
	name       string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "apcqueue <payload-file> (-p PID | -n NAME)",
		Short: "Queue a payload as a deferred call on every thread of a process",
		Long: `apcqueue writes the payload file into the target process and queues it
as an APC on each of the target's threads. With --name the first process
whose executable name starts with NAME is used.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInject(cmd, opts, args[0])
		},
	}

	flags := cmd.Flags()
	flags.Uint32VarP(&opts.pid, "pid", "p", 0, "target process ID")
	flags.StringVarP(&opts.name, "name", "n", "", "target executable name prefix")
	cmd.MarkFlagsMutuallyExclusive("pid", "name")
	cmd.MarkFlagsOneRequired("pid", "name")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML settings file")

	cmd.AddCommand(newPsCmd(), newThreadsCmd())
	return cmd
}

func (o *rootOptions) identifier(cmd *cobra.Command) process.TargetIdentifier {
	if cmd.Flags().Changed("name") {
		return process.ByName(o.name)
	}
	return process.ByPID(process.ProcessID(o.pid))
}

func runInject(cmd *cobra.Command, opts *rootOptions, payloadPath string) error {
	log := logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "apcqueue"))

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	data, err := payload.Load(payloadPath)
	if err != nil {
		return err
	}
	log.Infoln("Parsed payload of", len(data), "bytes")

	sys, alert, err := systemFactory()
	if err != nil {
		return err
	}

	env := remote.Env{System: sys}
	if cfg.TriggerAlert {
		env.Alert = alert
	}

	injector := inject.New(env, inject.Options{
		VerifyWrite:  cfg.VerifyWrite,
		PreviewBytes: cfg.PreviewBytes,
	})

	report, err := injector.Run(opts.identifier(cmd), data)
	if err != nil {
		return fmt.Errorf("injection aborted: %w", err)
	}

	if cfg.Report == config.ReportTable {
		report.Render(cmd.OutOrStdout())
	}
	return nil
}
