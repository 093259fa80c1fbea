package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/plantcare/internal/db"
	"github.com/plantcare/internal/service"
	"github.com/spf13/cobra"
)

const (
	defaultUserName     = "Demo Gardener"
	defaultUserEmail    = "demo@plantcare.local"
	defaultUserPassword = "plant123"
)

type userFlags struct {
	name     string
	email    string
	password string
}

func (f *userFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", defaultUserName, "display name")
	cmd.Flags().StringVar(&f.email, "email", defaultUserEmail, "login email")
	cmd.Flags().StringVar(&f.password, "password", defaultUserPassword, "login password")
}

// ensureUser 注册用户；邮箱已存在时改为登录校验密码
func ensureUser(ctx context.Context, auth *service.AuthService, f userFlags) (*db.User, bool, error) {
	res, err := auth.Register(ctx, service.RegisterInput{
		Name:            f.name,
		Email:           f.email,
		Password:        f.password,
		ConfirmPassword: f.password,
	})
	if err == nil {
		return res.User, true, nil
	}
	if !errors.Is(err, service.ErrEmailExists) {
		return nil, false, err
	}

	res, err = auth.Login(ctx, f.email, f.password)
	if err != nil {
		return nil, false, fmt.Errorf("user %s exists: %w", f.email, err)
	}
	return res.User, false, nil
}

func newInitUserCmd(root *rootOptions) *cobra.Command {
	var flags userFlags
	cmd := &cobra.Command{
		Use:   "init-user",
		Short: "Create a login user if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			backend, cleanup, err := openBackend(root)
			if err != nil {
				return err
			}
			defer cleanup()

			user, created, err := ensureUser(cmd.Context(), backend.Auth, flags)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "用户已存在，无需初始化: %s\n", user.Email)
				return nil
			}
			fmt.Fprintln(out, "用户创建成功")
			fmt.Fprintf(out, "ID:    %s\n", user.ID)
			fmt.Fprintf(out, "邮箱:  %s\n", user.Email)
			fmt.Fprintf(out, "密码:  %s\n", flags.password)
			return nil
		},
	}
	flags.bind(cmd)
	return cmd
}
