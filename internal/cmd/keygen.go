package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/secprops/internal/keygen"
	"github.com/felixgeelhaar/secprops/internal/ux"
)

func newKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a master password or random key",
		Long: `Generate a random master password (default), hex or base64 key, or UUID.

Passwords contain upper and lower case letters, digits and symbols; look-alike
characters (I, O, l, o, 0, 1) are left out unless --allow-similar is set.
--length counts characters for passwords and random bytes for hex and base64.`,
		Example: `  secprops keygen
  secprops keygen --type hex --length 16
  secprops keygen --length 24 --no-symbols`,
		Args: cobra.NoArgs,
		RunE: runKeygen,
	}
	types := make([]string, len(keygen.Types))
	for i, t := range keygen.Types {
		types[i] = string(t)
	}
	cmd.Flags().StringP("type", "t", string(keygen.TypePassword), "key type: "+strings.Join(types, ", "))
	cmd.Flags().IntP("length", "l", 0, fmt.Sprintf("length (default %d characters for passwords, %d bytes for keys)",
		keygen.DefaultPasswordLength, keygen.DefaultKeyBytes))
	cmd.Flags().Bool("no-uppercase", false, "leave out upper case letters")
	cmd.Flags().Bool("no-lowercase", false, "leave out lower case letters")
	cmd.Flags().Bool("no-numbers", false, "leave out digits")
	cmd.Flags().Bool("no-symbols", false, "leave out symbols")
	cmd.Flags().Bool("allow-similar", false, "allow look-alike characters")
	return cmd
}

func runKeygen(cmd *cobra.Command, args []string) error {
	cc, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cc, nil)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	typ, _ := flags.GetString("type")
	length, _ := flags.GetInt("length")
	noUpper, _ := flags.GetBool("no-uppercase")
	noLower, _ := flags.GetBool("no-lowercase")
	noNumbers, _ := flags.GetBool("no-numbers")
	noSymbols, _ := flags.GetBool("no-symbols")
	similar, _ := flags.GetBool("allow-similar")

	key, err := a.gateway.GenerateKey(keygen.Request{
		Type:   keygen.Type(strings.ToLower(typ)),
		Length: length,
		Options: &keygen.Options{
			Uppercase:      !noUpper,
			Lowercase:      !noLower,
			Numbers:        !noNumbers,
			Symbols:        !noSymbols,
			ExcludeSimilar: !similar,
		},
	})
	if err != nil {
		return err
	}

	if !cc.Text() {
		return cc.Formatter().Format(key)
	}
	fmt.Fprintln(cc.Out, key.Key)
	if !cc.Quiet && key.Type == keygen.TypePassword {
		fmt.Fprintln(cc.ErrOut, ux.Muted.Sprintf("pass it with --password-env or $%s", EnvMasterPassword))
	}
	return nil
}
