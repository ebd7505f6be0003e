package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"playbook/internal/media"
	"playbook/internal/ui"
)

var flagPrefix string

var ingestCmd = &cobra.Command{
	Use:   "ingest <url>",
	Short: "Fetch a social media video and upload it to object storage",
	Args:  cobra.ExactArgs(1),
	RunE:  ingestRun,
}

func init() {
	ingestCmd.Flags().StringVar(&flagPrefix, "prefix", "", "Storage key prefix (default: ingest.key_prefix)")
}

func ingestRun(cmd *cobra.Command, args []string) error {
	svc, err := newIngestService(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sourceURL := args[0]
	job := func(ctx context.Context) (*media.UploadResult, error) {
		return svc.Ingest(ctx, sourceURL, flagPrefix)
	}

	var res *media.UploadResult
	if !flagJSON && term.IsTerminal(int(os.Stderr.Fd())) {
		res, err = ui.Spin(ctx, os.Stderr, "Ingesting "+sourceURL, job)
	} else {
		res, err = job(ctx)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Println(res.URL)
	return nil
}
