package command

import (
	"fmt"
	"strings"
)

// RegisterBuiltins 注册内置命令
func RegisterBuiltins(r *Registry) error {
	builtins := []*Command{
		{
			Name:    "help",
			Aliases: []string{"?"},
			Help:    "查看帮助",
			Handler: func(ctx *Context) error {
				for _, c := range r.List() {
					line := "/" + c.Name
					if c.Usage != "" {
						line += " " + c.Usage
					}
					line += " - " + c.Help
					if len(c.Aliases) > 0 {
						line += " (别名: " + strings.Join(c.Aliases, ", ") + ")"
					}
					fmt.Fprintln(ctx.Out, line)
				}
				return nil
			},
		},
		{
			Name:    "name",
			Aliases: []string{"nick"},
			Usage:   "<new name>",
			Help:    "修改昵称",
			Handler: func(ctx *Context) error {
				name := strings.Join(ctx.Args, " ")
				if name == "" {
					return fmt.Errorf("用法: /name <new name>")
				}
				return ctx.Client.ChangeName(name)
			},
		},
		{
			Name:    "quit",
			Aliases: []string{"exit"},
			Help:    "退出聊天室",
			Handler: func(ctx *Context) error {
				_ = ctx.Client.Disconnect()
				return ErrQuit
			},
		},
	}
	for _, c := range builtins {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
