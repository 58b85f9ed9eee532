package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	hex "github.com/tmthrgd/go-hex"

	"github.com/xuperchain/eeproxy/kernel/ee/codec"
)

type DumpCmd struct {
	BaseCmd
}

func GetDumpCmd() *DumpCmd {
	dumpCmdIns := new(DumpCmd)

	// 定义命令行参数变量
	var codecName string

	dumpCmdIns.cmd = &cobra.Command{
		Use:     "dump <hex>",
		Short:   "Print the structure of an encoded value.",
		Example: "xee dump --codec rlpn c5f80078f800",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := Dump(codecName, args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	// 设置命令行参数并绑定变量
	dumpCmdIns.cmd.Flags().StringVar(&codecName, "codec", codec.NameMsgPack,
		"codec of the value: rlp, rlpn or msgpack")

	return dumpCmdIns
}

// Dump decodes hex input, with or without a 0x prefix, and renders it.
func Dump(codecName, input string) (string, error) {
	input = strings.TrimPrefix(strings.TrimSpace(input), "0x")
	bs, err := hex.DecodeString(input)
	if err != nil {
		return "", fmt.Errorf("decode hex failed.err:%v", err)
	}
	return codec.Dump(codecName, bs)
}
