package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/WhisperLooms/grant-harness/schema/openapi"
)

func newSchemaCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:         "schema",
		Short:       "Print an OpenAPI description of the wizard's steps",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := buildSequencer(a.cfg, a.logger)
			if err != nil {
				return err
			}
			doc, err := openapi.Generate(seq,
				openapi.WithInfo("grant-harness "+seq.Name(), "1.0.0",
					openapi.WithInfoDescription(fmt.Sprintf("Step payloads of the %s wizard.", seq.Name()))),
			)
			if err != nil {
				return err
			}
			w := a.out(cmd)
			switch format {
			case "json":
				return writeJSON(w, doc)
			case "yaml":
				enc := yaml.NewEncoder(w)
				enc.SetIndent(2)
				if err := enc.Encode(doc); err != nil {
					return err
				}
				return enc.Close()
			default:
				return usagef("unknown format %q (json or yaml)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "yaml", "output format: json or yaml")
	return cmd
}
