package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"eunomia-hq/eunomia/pkg/cli"
	"eunomia-hq/eunomia/pkg/signing"
)

var keysFlags struct {
	output string
	keyID  string
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage Ed25519 signing keys",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new signing keypair",
	RunE:  runKeysGenerate,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysGenerateCmd)

	keysGenerateCmd.Flags().StringVarP(&keysFlags.output, "output", "o", "./keys", "directory to write the public key into")
	keysGenerateCmd.Flags().StringVar(&keysFlags.keyID, "key-id", "default", "key id embedded in signatures made with this key")
}

type generatedKey struct {
	KeyID            string `json:"key_id"`
	PublicKeyPath    string `json:"public_key_path"`
	PrivateKeyBase64 string `json:"private_key_base64"`
}

func (k generatedKey) String() string {
	return fmt.Sprintf(
		"key id:      %s\npublic key:  %s\n\nprivate key (store this somewhere safe, it is not written to disk):\n  %s\n\nexport EUNOMIA_SIGNING_KEY=%s\nor write it to a 0600 file and set security.signing_key.provider: file",
		k.KeyID, k.PublicKeyPath, k.PrivateKeyBase64, k.PrivateKeyBase64,
	)
}

func runKeysGenerate(cmd *cobra.Command, args []string) error {
	pub, priv, err := signing.GenerateKeyPair()
	if err != nil {
		return &cli.CommandError{Command: "keys generate", Cause: err}
	}

	if err := os.MkdirAll(keysFlags.output, 0o750); err != nil {
		return &cli.CommandError{Command: "keys generate", Cause: fmt.Errorf("create output directory: %w", err)}
	}

	pubPath := filepath.Join(keysFlags.output, keysFlags.keyID+".pub")
	if err := os.WriteFile(pubPath, []byte(pub+"\n"), 0o644); err != nil {
		return &cli.CommandError{Command: "keys generate", Cause: fmt.Errorf("write public key: %w", err)}
	}

	return emit(generatedKey{
		KeyID:            keysFlags.keyID,
		PublicKeyPath:    pubPath,
		PrivateKeyBase64: priv,
	})
}
