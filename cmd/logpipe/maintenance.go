// FILE: lixenwraith/logpipe/cmd/logpipe/maintenance.go
package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/logpipe"
	"github.com/lixenwraith/logpipe/writer/file"
)

var (
	maintDir      string
	maintFileName string

	archiveStart       string
	archiveEnd         string
	archiveMaxBytes    int64
	archivePattern     string
	archiveCompression string

	purgeMaxDays  int64
	purgeMaxBytes int64

	archiveCmd = &cobra.Command{
		Use:   "archive",
		Short: "Bundle log files of a date range into the Archive folder",
		RunE:  runArchive,
	}

	purgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete log files beyond the age and storage limits",
		RunE:  runPurge,
	}
)

func init() {
	for _, c := range []*cobra.Command{archiveCmd, purgeCmd} {
		c.Flags().StringVarP(&maintDir, "dir", "d", file.DefaultDirectory, "log directory")
		c.Flags().StringVarP(&maintFileName, "file-name", "f", "", "log file base name")
		_ = c.MarkFlagRequired("file-name")
	}

	archiveCmd.Flags().StringVar(&archiveStart, "start", "", "first day, YYYY-MM-DD (default three days ago)")
	archiveCmd.Flags().StringVar(&archiveEnd, "end", "", "last day, YYYY-MM-DD (default today)")
	archiveCmd.Flags().Int64Var(&archiveMaxBytes, "max-bytes", logpipe.IgnoreFileSizeLimits, "bundle size cap, 0 for none")
	archiveCmd.Flags().StringVar(&archivePattern, "pattern", file.DefaultPattern, "file search pattern")
	archiveCmd.Flags().StringVar(&archiveCompression, "compression", file.CompressionFlate, "deflate, store or zstd")

	purgeCmd.Flags().Int64Var(&purgeMaxDays, "max-days", file.Unlimited, "days to keep, 0 for unlimited")
	purgeCmd.Flags().Int64Var(&purgeMaxBytes, "max-bytes", file.Unlimited, "total bytes to keep, 0 for unlimited")
}

func runArchive(cmd *cobra.Command, _ []string) error {
	args := logpipe.DefaultArchiveArgs(time.Now())
	if archiveStart != "" {
		t, err := time.ParseInLocation(time.DateOnly, archiveStart, time.Local)
		if err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
		args.Start = t
	}
	if archiveEnd != "" {
		t, err := time.ParseInLocation(time.DateOnly, archiveEnd, time.Local)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
		args.End = t.Add(24*time.Hour - time.Second)
	}
	args.MaxArchiveSizeBytes = archiveMaxBytes
	if err := logpipe.ValidateArchiveArgs(args); err != nil {
		return err
	}

	svc, err := file.NewArchiveService(maintDir, file.NewNaming(maintFileName), archivePattern, archiveCompression)
	if err != nil {
		return err
	}
	bundle, err := svc.Run(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), bundle)
	return nil
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if purgeMaxDays < 0 || purgeMaxBytes < 0 {
		return fmt.Errorf("max-days and max-bytes must not be negative")
	}

	host, err := newConsoleHost()
	if err != nil {
		return err
	}
	defer host.Exit(0)

	policy := file.NewPurgePolicy(maintDir, file.NewNaming(maintFileName), purgeMaxDays, purgeMaxBytes, host)
	for _, line := range policy.Describe() {
		_ = host.Info("Purge", "Describe", line)
	}

	res := policy.Run("")
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d files, %d errors\n", len(res.Deleted), len(res.Errors))
	if len(res.Errors) > 0 {
		return res.Errors[0]
	}
	return nil
}
