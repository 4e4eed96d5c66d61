// Command litertlm-writer assembles a LITERTLM archive from a list of input
// files, inferring each file's section kind from its extension and
// optionally attaching per-section metadata supplied on the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/litert-lm/litertlm-go/internal/config"
	"github.com/litert-lm/litertlm-go/internal/container"
	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/container/sectionspec"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
	"github.com/litert-lm/litertlm-go/internal/section"
	"github.com/litert-lm/litertlm-go/internal/watch"
)

var defaultAuthor = "litertlm-go"

func main() {
	root := &cobra.Command{
		Use:   "litertlm-writer <input-file>...",
		Short: "Build a LITERTLM archive from model, tokenizer, and metadata files",
		Args:  cobra.MinimumNArgs(1),
	}

	cfg, _ := config.Load(".litertlmrc.toml")

	var outputPath string
	var sectionMetadata string
	var author string
	root.Flags().StringVarP(&outputPath, "output", "o", cfg.OutputPath, "output archive path")
	root.Flags().StringVar(&sectionMetadata, "section_metadata", cfg.SectionMetadata,
		"per-section metadata: 'name:key=value,...;name:key=value,...'")
	authorDefault := defaultAuthor
	if cfg.AuthorName != "" {
		authorDefault = cfg.AuthorName
	}
	root.Flags().StringVar(&author, "author", authorDefault, "author recorded in the archive's system metadata")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if outputPath == "" {
			outputPath = "out.litertlm"
		}

		if err := write(ctx, args, sectionMetadata, author, outputPath); err != nil {
			// The writer fails fast and leaves no completed archive; remove
			// whatever partial output got left behind so a retry doesn't
			// find a stale file.
			os.Remove(outputPath)
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote %s\n", outputPath)
		return nil
	}

	watchCmd := &cobra.Command{
		Use:   "watch <input-file>...",
		Short: "Rebuild the archive whenever an input file changes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				outputPath = "out.litertlm"
			}

			rebuild := func() {
				ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				if err := write(ctx, args, sectionMetadata, author, outputPath); err != nil {
					os.Remove(outputPath)
					fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", err)
					return
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", outputPath)
			}
			rebuild()

			w, err := watch.New(args)
			if err != nil {
				return err
			}
			w.Rebuild = rebuild

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			done := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(done)
			}()
			fmt.Fprintln(os.Stderr, "watching for changes… (Ctrl+C to stop)")
			return w.Run(done)
		},
	}
	root.AddCommand(watchCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func write(ctx context.Context, inputFiles []string, sectionMetadata, author, outputPath string) error {
	kinds := make([]sectionspec.Kind, len(inputFiles))
	names := make([]string, len(inputFiles))
	for i, f := range inputFiles {
		k, err := sectionspec.KindForFile(f)
		if err != nil {
			return err
		}
		if k.TextProto {
			return litertlmerr.New(litertlmerr.Unimplemented, "litertlm-writer.write",
				"text-format proto input %q is not supported; convert to binary .pb first", f)
		}
		kinds[i] = k
		names[i] = k.Name
	}

	specs, err := sectionspec.Parse(sectionMetadata, names)
	if err != nil {
		return err
	}

	w := container.NewWriter()
	w.SetSystemMetadata([]fbschema.KeyValuePair{
		{Key: "author", Value: fbschema.StringValue(author)},
	})

	for i, f := range inputFiles {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		var stream section.Stream = &section.FileStream{Path: f}
		if kinds[i].Zlib {
			stream = &section.ZlibStream{Inner: stream}
		}

		items := specs[i].Items
		if !hasKey(items, "name") {
			items = append([]fbschema.KeyValuePair{{Key: "name", Value: fbschema.StringValue(filepath.Base(f))}}, items...)
		}
		w.AddSection(kinds[i].DataType, stream, items)
	}

	return w.WriteTo(outputPath)
}

func hasKey(items []fbschema.KeyValuePair, key string) bool {
	for _, kv := range items {
		if kv.Key == key {
			return true
		}
	}
	return false
}
