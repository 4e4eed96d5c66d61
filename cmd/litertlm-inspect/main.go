// Command litertlm-inspect dumps, extracts, or interactively browses the
// section table of a LITERTLM archive.
package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/litert-lm/litertlm-go/internal/container"
	"github.com/litert-lm/litertlm-go/internal/container/fbschema"
	"github.com/litert-lm/litertlm-go/internal/litertlmerr"
	"github.com/litert-lm/litertlm-go/internal/tui"
)

func main() {
	root := &cobra.Command{
		Use:   "litertlm-inspect",
		Short: "Inspect a LITERTLM archive's section table",
	}

	root.AddCommand(dumpCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(browseCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <archive.litertlm>",
		Short: "Print the archive's version, sections, and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := container.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			v := r.Version()
			fmt.Printf("version: %d.%d.%d\n", v.Major, v.Minor, v.Patch)
			fmt.Printf("sections: %d\n", r.NumSections())

			if meta := r.SystemMetadata(); len(meta) > 0 {
				fmt.Println("system metadata:")
				for _, kv := range meta {
					fmt.Printf("  %s: %s\n", kv.Key, formatValue(kv.Value))
				}
			}

			for i := 0; i < r.NumSections(); i++ {
				s, err := r.Section(i)
				if err != nil {
					fmt.Printf("section %d: error: %v\n", i, err)
					continue
				}
				fmt.Printf("section %d: type=%s begin=%d end=%d size=%d\n",
					i, dataTypeName(s.DataType), s.BeginOffset, s.EndOffset, s.EndOffset-s.BeginOffset)
				for _, kv := range s.Items {
					fmt.Printf("    %s: %s\n", kv.Key, formatValue(kv.Value))
				}
			}

			for _, w := range r.Warnings() {
				fmt.Fprintf(os.Stderr, "warning: %s\n", w)
			}
			return nil
		},
	}
}

func extractCmd() *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "extract <archive.litertlm> <section-index>",
		Short: "Write one section's raw bytes to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := container.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			var idx int
			if _, err := fmt.Sscanf(args[1], "%d", &idx); err != nil {
				return litertlmerr.New(litertlmerr.InvalidArgument, "litertlm-inspect.extract", "invalid section index %q", args[1])
			}

			s, err := r.Section(idx)
			if err != nil {
				return err
			}

			var data []byte
			switch s.DataType {
			case fbschema.DataTypeTFLiteModel:
				data, err = r.GetTFLiteModelFromSection(idx)
			case fbschema.DataTypeSPTokenizer:
				data, err = r.GetSentencePieceTokenizerFromSection(idx)
			case fbschema.DataTypeLlmMetadataProto:
				data, err = r.GetLLMMetadataFromSection(idx)
			case fbschema.DataTypeHFTokenizerZlib:
				data, err = r.GetHuggingFaceTokenizerFromSection(idx)
			case fbschema.DataTypeGenericBinaryData:
				data, err = r.GetGenericBinaryFromSection(idx)
			default:
				return litertlmerr.New(litertlmerr.Unimplemented, "litertlm-inspect.extract",
					"section %d has unreadable data_type %d", idx, s.DataType)
			}
			if err != nil {
				return err
			}

			if outputPath == "" {
				outputPath = fmt.Sprintf("section-%d.bin", idx)
			}
			if err := os.WriteFile(outputPath, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(data), outputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (default section-<index>.bin)")
	return cmd
}

func browseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <archive.litertlm>",
		Short: "Interactively browse the archive's sections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := container.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			m := tui.New(args[0], r)
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}

func dataTypeName(dt fbschema.AnySectionDataType) string {
	switch dt {
	case fbschema.DataTypeTFLiteModel:
		return "TFLiteModel"
	case fbschema.DataTypeSPTokenizer:
		return "SP_Tokenizer"
	case fbschema.DataTypeLlmMetadataProto:
		return "LlmMetadataProto"
	case fbschema.DataTypeGenericBinaryData:
		return "GenericBinaryData"
	case fbschema.DataTypeHFTokenizerZlib:
		return "HF_Tokenizer_Zlib"
	case fbschema.DataTypeDeprecated:
		return "Deprecated"
	default:
		return "None"
	}
}

func formatValue(v fbschema.Value) string {
	switch v.Kind {
	case fbschema.ValueString:
		return v.Str
	case fbschema.ValueInt32:
		return fmt.Sprintf("%d", v.I32)
	case fbschema.ValueInt64:
		return fmt.Sprintf("%d", v.I64)
	case fbschema.ValueUInt32:
		return fmt.Sprintf("%d", v.U32)
	case fbschema.ValueUInt64:
		return fmt.Sprintf("%d", v.U64)
	case fbschema.ValueFloat32:
		return fmt.Sprintf("%g", v.F32)
	case fbschema.ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return ""
	}
}
