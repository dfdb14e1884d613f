package cmd

import (
	"fmt"
	"io"

	"github.com/eventsphere/eventsphere/internal/notify/webpush"
	"github.com/spf13/cobra"
)

var generateKeysCmdFlags struct {
	Format string
}

var generateKeysCmd = &cobra.Command{
	Use:   "generate-vapid-keys",
	Short: "Generate VAPID keys for web push notifications",
	Long: `Generate VAPID keys for web push notifications.

Browsers need these keys to subscribe to announcement pushes. Paste the output into the
webpush section of the configuration file, or export it with --format env.`,
	Example: `eventsphere generate-vapid-keys
eventsphere generate-vapid-keys --format env >> .env`,
	RunE: generateVAPIDKeys,
}

func init() {
	generateKeysCmd.Flags().StringVar(&generateKeysCmdFlags.Format, "format", "yaml", "Output format (yaml, env)")
	rootCmd.AddCommand(generateKeysCmd)
}

func generateVAPIDKeys(cmd *cobra.Command, _ []string) error {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		return fmt.Errorf("failed to generate VAPID keys: %w", err)
	}

	out := cmd.OutOrStdout()
	switch generateKeysCmdFlags.Format {
	case "yaml":
		printVAPIDYAML(out, privateKey, publicKey)
	case "env":
		fmt.Fprintln(out, "EVENTSPHERE_WEBPUSH_ENABLED=true")
		fmt.Fprintf(out, "EVENTSPHERE_WEBPUSH_PRIVATE_KEY=%s\n", privateKey)
		fmt.Fprintf(out, "EVENTSPHERE_WEBPUSH_PUBLIC_KEY=%s\n", publicKey)
	default:
		return fmt.Errorf("unknown format %q", generateKeysCmdFlags.Format)
	}
	return nil
}

func printVAPIDYAML(out io.Writer, privateKey, publicKey string) {
	fmt.Fprintln(out, "# Add this to your configuration file.")
	fmt.Fprintln(out, "# Keep the private key secret, every subscription depends on it.")
	fmt.Fprintln(out, "webpush:")
	fmt.Fprintln(out, "  enabled: true")
	fmt.Fprintln(out, "  vapid_email: \"admin@example.com\"")
	fmt.Fprintf(out, "  private_key: %q\n", privateKey)
	fmt.Fprintf(out, "  public_key: %q\n", publicKey)
}
