// Command emulator 是一个演示服务：读取示例 JSON 数组，把每条记录以 DEBUG
// 级别写入 hublog，从而投递到 Event Hubs。
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "emulator",
	Short:         "Send sample log records to Event Hubs through hublog",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
