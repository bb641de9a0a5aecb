package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ha1tch/wxrimport/importer"
	"github.com/ha1tch/wxrimport/wxr"
	"github.com/ha1tch/wxrimport/xmlproc"
)

// newOptionsCmd implements the second step of the admin flow: read just
// far enough into a staged WXR file to preview its site options and
// author list, so an operator can decide on author mapping before the
// real import runs.
func newOptionsCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options <file.xml>",
		Short: "Preview a WXR file's site options and authors",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runOptions(args[0])
		},
	}
	return cmd
}

func runOptions(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrImportFile, err)
	}

	p, err := xmlproc.FromString(data, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", importer.ErrWXRParse, err)
	}
	reader := wxr.NewReader(p)

	for {
		entity, more, err := reader.Next()
		if err != nil {
			return fmt.Errorf("%w: %v", importer.ErrWXRParse, err)
		}
		if !more {
			break
		}
		switch entity.Kind {
		case wxr.SiteOptionKind:
			fmt.Printf("WXR version: %s\n", entity.SiteOption.WXRVersion)
			fmt.Printf("Site URL:    %s\n", entity.SiteOption.BaseSiteURL)
			fmt.Printf("Blog URL:    %s\n", entity.SiteOption.BaseBlogURL)
		case wxr.AuthorKind:
			fmt.Printf("author: %-20s %s\n", entity.Author.Login, entity.Author.DisplayName)
		case wxr.PostKind:
			// Authors are declared before the first item; once a post
			// shows up there is nothing left to preview.
			return nil
		}
	}
	fmt.Println(color.YellowString("no posts found in export"))
	return nil
}
