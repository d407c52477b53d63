// Copyright 2024 The Inspektor Gadget authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inspektor-gadget/seccomp-advisor/pkg/advisor"
	"github.com/inspektor-gadget/seccomp-advisor/pkg/auditlog"
)

var (
	policyPath    string
	frequencyPath string
	auditComm     string
	profilePath   string
	profileFormat string
	verbose       bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "seccomp-advisor <log>...",
		Short: "Generate a minijail seccomp policy from strace or audit logs",
		Args:  cobra.MinimumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetLevel(log.WarnLevel)
			if verbose {
				log.SetLevel(log.InfoLevel)
			}
		},
		RunE:          runAdvise,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.Flags().StringVar(&policyPath, "policy", "",
		"File to write the policy to. Defaults to standard output.")
	rootCmd.Flags().StringVar(&frequencyPath, "frequency", "",
		"File to write the frequency report to. Also switches both outputs to alphabetical order.")
	rootCmd.Flags().StringVar(&auditComm, "audit-comm", "",
		"Name of the audited process. Required when any input is an audit log.")
	rootCmd.Flags().StringVar(&profilePath, "profile", "",
		"File to additionally write an OCI runtime seccomp profile to.")
	rootCmd.Flags().StringVar(&profileFormat, "profile-format", "json",
		"Format of the OCI profile, json or yaml.")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false,
		"Print informational messages to stderr.")

	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAdvise(cmd *cobra.Command, args []string) error {
	inputs, err := advisor.ClassifyInputs(args)
	if err != nil {
		return err
	}

	if len(inputs.AuditLogs) > 0 && auditComm == "" {
		return fmt.Errorf("--audit-comm is required when using audit logs as input: %v", inputs.AuditLogs)
	}
	if len(inputs.AuditLogs) == 0 && auditComm != "" {
		return fmt.Errorf("--audit-comm was specified yet none of the input files matched the audit log heuristic")
	}
	if profilePath != "" && profileFormat != "json" && profileFormat != "yaml" {
		return fmt.Errorf("unsupported profile format %q, expected json or yaml", profileFormat)
	}

	// In case the filetype detection heuristics are wonky.
	log.Infof("Generating a seccomp policy using these input files:")
	log.Infof("Strace logs: %v", inputs.Traces)
	log.Infof("Audit logs: %v", inputs.AuditLogs)

	stats := advisor.NewStats()

	for _, filename := range inputs.Traces {
		if err := advisor.ParseTraceFile(filename, stats); err != nil {
			return err
		}
	}
	for _, filename := range inputs.AuditLogs {
		if err := parseOneAuditLog(filename, stats); err != nil {
			return err
		}
	}

	policyW, closePolicy, err := outputWriter(policyPath)
	if err != nil {
		return err
	}
	var freqW io.Writer
	closeFreq := func() error { return nil }
	if frequencyPath != "" {
		w, c, err := outputWriter(frequencyPath)
		if err != nil {
			closePolicy()
			return err
		}
		freqW, closeFreq = w, c
	}

	err = closeOutputs(advisor.WritePolicy(policyW, freqW, stats), closeFreq, closePolicy)
	if err != nil {
		return err
	}

	if profilePath != "" {
		buf, err := advisor.MarshalProfile(advisor.Profile(stats), profileFormat)
		if err != nil {
			return err
		}
		if err := os.WriteFile(profilePath, buf, 0o644); err != nil {
			return fmt.Errorf("writing profile: %w", err)
		}
	}
	return nil
}

func parseOneAuditLog(filename string, stats *advisor.Stats) error {
	r, err := auditlog.Open(filename)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := advisor.ParseAuditLog(r, auditComm, stats); err != nil {
		return fmt.Errorf("parsing audit log %s: %w", filename, err)
	}
	return nil
}

// closeOutputs closes every output and folds the first close error into
// err. A failed close can mean a truncated policy file, so it must not
// be swallowed.
func closeOutputs(err error, closers ...func() error) error {
	for _, c := range closers {
		if cerr := c(); err == nil && cerr != nil {
			err = fmt.Errorf("closing output file: %w", cerr)
		}
	}
	return err
}

func outputWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}
