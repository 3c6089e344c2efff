package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hongjun500/linechat/client"
	"github.com/hongjun500/linechat/internal/command"
	"github.com/hongjun500/linechat/internal/config"
	"github.com/hongjun500/linechat/pkg/logger"
)

func main() {
	cfg := config.LoadClient()
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "server address")
	flag.StringVar(&cfg.Username, "name", cfg.Username, "display name")
	flag.Parse()
	logger.SetLevel("error")

	cmds := command.NewRegistry()
	if err := command.RegisterBuiltins(cmds); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := client.Dial(ctx, cfg.ServerAddr, cfg.Username)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "connection failed:", err)
		os.Exit(1)
	}
	fmt.Printf("connected to %s as %s, /help 查看帮助\n", cfg.ServerAddr, cfg.Username)

	go func() {
		for msg := range c.Messages() {
			fmt.Println(msg)
		}
		if err := c.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "disconnected:", err)
		} else {
			fmt.Println("disconnected")
		}
		os.Exit(0)
	}()

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		line := in.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		handled, err := cmds.Execute(line, &command.Context{Client: c, Out: os.Stdout})
		if errors.Is(err, command.ErrQuit) {
			return
		}
		if !handled {
			err = c.Send(line)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
	_ = c.Disconnect()
}
