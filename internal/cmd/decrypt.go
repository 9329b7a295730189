package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/gateway"
)

func newDecryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decrypt [ciphertext|-]",
		Short: "Decrypt a single value",
		Long: `Decrypt one ciphertext with the master password.

The ![...] wrapper is optional. The value is read from stdin when it is "-"
or omitted.`,
		Example: `  secprops decrypt '![q2L0...==]' --password-env MULE_KEY`,
		Args:    cobra.MaximumNArgs(1),
		RunE:    runDecrypt,
	}
	addPasswordFlags(cmd)
	return cmd
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	value, err := readValue(cmd, args, "encryptedValue")
	if err != nil {
		return err
	}
	password, err := masterPassword(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	sp := cc.Spinner("Decrypting")
	res, err := a.gateway.Decrypt(cmd.Context(), gateway.DecryptRequest{
		EncryptedValue: value,
		MasterPassword: password,
		JavaVersion:    cc.JavaVersion,
	})
	sp.Stop("")
	if err != nil {
		return err
	}

	if cc.Text() {
		return cc.Formatter().Format(res.PlainText)
	}
	return cc.Formatter().Format(res)
}
