package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func searchCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "全文检索分区内容与待办",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Search.Search(context.Background(), strings.Join(args, " "), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if len(result.Results) == 0 {
				fmt.Fprintln(out, "无匹配结果")
				return nil
			}
			for _, g := range result.Groups {
				fmt.Fprintf(out, "%s\n", g.MeetingDate)
				for _, r := range g.Results {
					fmt.Fprintf(out, "  [%s] %s: %s\n", r.Type, r.SectionName, r.Snippet)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多返回条数")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "以 JSON 输出")
	return cmd
}
