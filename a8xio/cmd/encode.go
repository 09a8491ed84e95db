package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/a8xio/xio"
	"github.com/spf13/cobra"
)

var encodeCmd = &cobra.Command{
	Use:   "encode COMMAND [PAYLOAD]",
	Short: "Print the bytes of a link frame.",
	Long: "`encode read 0x110` prints the bytes the link sends for an SDRAM " +
		"read of remote address 0x110. COMMAND is read, nop or a number " +
		"from 0 to 15.",
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := parseFrame(args)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatBytes(f.Bytes()))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
}

func parseFrame(args []string) (xio.Frame, error) {
	var f xio.Frame

	switch strings.ToLower(args[0]) {
	case "read", "sdram_read":
		f.Command = xio.CmdSDRAMRead
	case "nop":
		f.Command = xio.CmdNop
	default:
		v, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil || xio.Command(v) > xio.CommandMask {
			return f, fmt.Errorf("invalid command %q", args[0])
		}

		f.Command = xio.Command(v)
	}

	if f.Command.PayloadLen() == 0 {
		if len(args) > 1 {
			return f, fmt.Errorf("%s takes no payload", f.Command)
		}

		return f, nil
	}

	if len(args) < 2 {
		return f, fmt.Errorf("%s needs a payload", f.Command)
	}

	v, err := strconv.ParseUint(args[1], 0, 32)
	if err != nil {
		return f, fmt.Errorf("invalid payload %q: %w", args[1], err)
	}

	f.Payload = uint32(v)

	return f, nil
}

func formatBytes(b []byte) string {
	parts := make([]string, len(b))
	for i, v := range b {
		parts[i] = fmt.Sprintf("%02X", v)
	}

	return strings.Join(parts, " ")
}
