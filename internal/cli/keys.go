package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goScalingd/internal/crypto/identity"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the signing key",
}

type keyView struct {
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
	File      string `json:"file,omitempty"`
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Create a new secp256k1 key file (never overwrites)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.KeyPath(homeDir)
		if path == "" {
			return errors.New("keeper.key_file is not set")
		}
		id, err := identity.New()
		if err != nil {
			return err
		}
		if err := id.SaveFile(path); err != nil {
			return err
		}
		return printJSON(cmd, keyView{Address: id.Address(), PublicKey: id.PublicKeyHex(), File: path})
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the address of the key file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := provider.GetSigner()
		if err != nil {
			return err
		}
		return printJSON(cmd, keyView{Address: id.Address(), PublicKey: id.PublicKeyHex(), File: cfg.KeyPath(homeDir)})
	},
}

func init() {
	keysCmd.AddCommand(keysGenerateCmd, keysShowCmd)
	rootCmd.AddCommand(keysCmd)
}
