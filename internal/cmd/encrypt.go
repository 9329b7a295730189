package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/gateway"
)

func newEncryptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "encrypt [value|-]",
		Short: "Encrypt a single value",
		Long: `Encrypt one plaintext value with the master password.

The value is read from stdin when it is "-" or omitted. The ciphertext is
printed in the ![...] form used inside .properties files.`,
		Example: `  secprops encrypt 's3cr3t' --password-env MULE_KEY
  echo -n 's3cr3t' | secprops encrypt - -j 17 -o json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runEncrypt,
	}
	addPasswordFlags(cmd)
	return cmd
}

func runEncrypt(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	value, err := readValue(cmd, args, "plainText")
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

	sp := cc.Spinner("Encrypting")
	res, err := a.gateway.Encrypt(cmd.Context(), gateway.EncryptRequest{
		PlainText:      value,
		MasterPassword: password,
		JavaVersion:    cc.JavaVersion,
	})
	sp.Stop("")
	if err != nil {
		return err
	}

	if cc.Text() {
		return cc.Formatter().Format(res.EncryptedValue)
	}
	return cc.Formatter().Format(res)
}
