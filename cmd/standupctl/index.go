package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func indexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "全文检索索引维护",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "由分区与待办全量重建索引",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.svc.Search.Rebuild(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "索引已重建，共 %d 条\n", n)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify",
		Short: "校验索引与数据是否一致",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Search.Verify(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range result.Missing {
				fmt.Fprintf(out, "缺失: %s #%s\n", e.Type, e.SourceID)
			}
			for _, e := range result.Stale {
				fmt.Fprintf(out, "过期: %s #%s\n", e.Type, e.SourceID)
			}
			if !result.Consistent {
				return fmt.Errorf("索引不一致（缺失 %d，过期 %d），请执行 index rebuild", len(result.Missing), len(result.Stale))
			}
			fmt.Fprintln(out, "索引一致")
			return nil
		},
	})

	return cmd
}
