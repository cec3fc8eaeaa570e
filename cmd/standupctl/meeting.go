package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/service"
)

func meetingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "会议管理",
	}

	var (
		templateID   int64
		copyFromID   int64
		carryContent bool
	)
	create := &cobra.Command{
		Use:   "create <YYYY-MM-DD>",
		Short: "创建指定日期的会议",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dto.CreateMeetingRequest{Date: args[0], CarryContent: carryContent}
			if templateID > 0 {
				req.TemplateID = &templateID
			}
			if copyFromID > 0 {
				req.CopyFromID = &copyFromID
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := context.Background()
			meeting, err := a.svc.Meeting.Create(ctx, &req, service.SystemActor)
			if err != nil {
				return err
			}
			sections, err := a.svc.Meeting.ListSections(ctx, meeting.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "已创建会议 %s (id=%d)，共 %d 个分区\n", meeting.Date, meeting.ID, len(sections))
			for _, s := range sections {
				fmt.Fprintf(out, "  - %s\n", s.Name)
			}
			return nil
		},
	}
	create.Flags().Int64Var(&templateID, "template", 0, "按模板生成分区")
	create.Flags().Int64Var(&copyFromID, "copy-from", 0, "复制指定会议的分区布局")
	create.Flags().BoolVar(&carryContent, "carry-content", false, "复制时同时带上分区内容")

	cmd.AddCommand(create)
	return cmd
}
