package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v4"
	"github.com/vbauerster/mpb/v4/decor"

	"github.com/ha1tch/wxrimport/checkpoint"
	"github.com/ha1tch/wxrimport/fetcher/httpfetch"
	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/internal/logging"
	"github.com/ha1tch/wxrimport/store/sqlite"
	"github.com/ha1tch/wxrimport/wxr"
	"github.com/ha1tch/wxrimport/xmlproc"
)

// chunkSize bounds how much of the export is fed to the processor at
// once; it also bounds how much work is lost if the run is interrupted
// between chunks.
const chunkSize = 256 * 1024

func newImportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.xml>",
		Short: "Import a staged WXR export",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return runImport(cfg, args[0], false)
		},
	}
}

func newResumeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <file.xml>",
		Short: "Resume a previously checkpointed import",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return runImport(cfg, args[0], true)
		},
	}
}

func runImport(cfg *Config, path string, resume bool) error {
	log, err := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}

	store, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrUploadDir, err)
	}
	defer store.Close()

	fetcher := httpfetch.New()
	fetcher.MaxBytes = cfg.ImportAttachmentSizeLimit

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrImportFile, err)
	}

	var p *xmlproc.Processor
	var offset int64
	state := importer.NewImportState(newSessionID())

	if resume {
		if !checkpoint.Exists(cfg.CheckpointPath) {
			return fmt.Errorf("%w: no checkpoint at %s", importer.ErrImportFile, cfg.CheckpointPath)
		}
		cp, loadErr := checkpoint.Load(cfg.CheckpointPath)
		if loadErr != nil {
			return loadErr
		}
		state = cp.State
		offset = cp.ConsumedBytes
		p, err = xmlproc.CreateForStreaming(cp.Tail, cp.Cursor)
		log.Info("resuming import", "session_id", state.SessionID, "consumed_bytes", offset)
	} else {
		firstEnd := minInt64(chunkSize, int64(len(data)))
		p, err = xmlproc.ForStreaming(data[:firstEnd], nil)
		offset = firstEnd
	}
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrWXRParse, err)
	}

	reader := wxr.NewReader(p)
	controller := importer.NewController(store, fetcher, state, log)
	controller.UploadsDir = cfg.UploadsDir
	controller.AuthorMappingStrategy = cfg.AuthorMappingStrategy
	controller.CurrentUserID = cfg.CurrentUserID

	const text = "entities imported: "
	progress := mpb.New(mpb.WithWidth(60))
	bar := progress.AddBar(int64(len(data)),
		mpb.PrependDecorators(
			decor.Name(text, decor.WC{W: len(text) + 2, C: decor.DSyncWidthR}),
			decor.CountersNoUnit("%d entities", decor.WCSyncWidth),
		),
	)
	controller.OnEntity = func(wxr.Entity) { bar.Increment() }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for {
		runErr := controller.Run(ctx, reader)
		if runErr == nil {
			bar.SetTotal(bar.Current(), true)
			progress.Wait()
			return checkpoint.Remove(cfg.CheckpointPath)
		}
		if runErr == context.Canceled || ctx.Err() != nil {
			bar.Abort(true)
			progress.Wait()
			return saveCheckpoint(cfg.CheckpointPath, state, p, offset)
		}
		if runErr != wxr.ErrNeedMore {
			bar.Abort(true)
			progress.Wait()
			return runErr
		}

		if offset >= int64(len(data)) {
			p.InputFinished()
			continue
		}
		end := minInt64(offset+chunkSize, int64(len(data)))
		p.AppendBytes(data[offset:end])
		offset = end
	}
}

func saveCheckpoint(path string, state *importer.ImportState, p *xmlproc.Processor, offset int64) error {
	return checkpoint.Save(path, checkpoint.Checkpoint{
		SessionID:     state.SessionID,
		Cursor:        p.GetReentrancyCursor(),
		Tail:          p.RemainingBuffer(),
		ConsumedBytes: offset,
		State:         state,
	})
}

func newSessionID() string {
	return uuid.NewString()
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
