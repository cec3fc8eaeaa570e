package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version 构建时通过 -ldflags 注入
var Version = "dev"

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "standupctl",
		Short:         "站会记录系统管理工具",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径（默认查找 ./config/config.yaml）")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(indexCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(meetingCmd())
	rootCmd.AddCommand(searchCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "错误:", err)
		os.Exit(1)
	}
}
