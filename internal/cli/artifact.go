package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewArtifactCommand creates the artifact command.
func NewArtifactCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "artifact <productId>",
		Short: "Generate (or locate) the verification QR code of a registered product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close(cmd.Context())

			h, err := a.Provenance.Artifact(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), h.Path)
			return err
		},
	}
}
