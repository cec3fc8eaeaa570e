package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"standup-tracker/internal/dto"
	"standup-tracker/internal/model"
)

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "用户管理",
	}

	var req dto.CreateUserRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "创建用户（首个管理员通常由此创建）",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Username == "" || req.Password == "" {
				return fmt.Errorf("--username 与 --password 不能为空")
			}
			if len(req.Password) < 8 {
				return fmt.Errorf("密码至少 8 位")
			}
			if req.DisplayName == "" {
				req.DisplayName = req.Username
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.svc.User.Create(context.Background(), &req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已创建用户 %s (id=%d, role=%s)\n", user.Username, user.ID, user.Role)
			return nil
		},
	}
	create.Flags().StringVarP(&req.Username, "username", "u", "", "用户名")
	create.Flags().StringVarP(&req.DisplayName, "name", "n", "", "显示名称（默认同用户名）")
	create.Flags().StringVarP(&req.Password, "password", "p", "", "初始密码（至少 8 位）")
	create.Flags().StringVar(&req.Role, "role", model.RoleMember, "角色（admin 或 member）")
	create.Flags().StringVar(&req.Email, "email", "", "邮箱")

	cmd.AddCommand(create)
	return cmd
}
