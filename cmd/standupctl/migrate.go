package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"standup-tracker/pkg/database"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行尚未应用的数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, sqlDB, err := openDB()
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			defer logger.Sync()

			version, dirty, err := database.CurrentVersion(sqlDB)
			if err != nil {
				return fmt.Errorf("读取迁移版本失败: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "当前版本: %d (dirty=%v)\n", version, dirty)
			return nil
		},
	}
}
