package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ha1tch/wxrimport/importer"
)

// newUploadCmd implements the first step of the admin flow: validate and
// stage a WXR file under the configured uploads directory.
func newUploadCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.xml>",
		Short: "Validate and stage a WXR export file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			return runUpload(cfg, args[0])
		},
	}
	return cmd
}

func runUpload(cfg *Config, srcPath string) error {
	if filepath.Ext(srcPath) != ".xml" {
		return fmt.Errorf("%w: %s", importer.ErrInvalidFileType, srcPath)
	}
	if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", importer.ErrUploadDir, err)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrImportFile, err)
	}
	defer src.Close()

	destPath := filepath.Join(cfg.UploadsDir, filepath.Base(srcPath))
	dest, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrUploadDir, err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, src); err != nil {
		return fmt.Errorf("%w: %v", importer.ErrImportFile, err)
	}

	fmt.Printf("staged %s\n", destPath)
	return nil
}
