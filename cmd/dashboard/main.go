package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"iot-dashboard/client"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type config struct {
	API      string `env:"DASHBOARD_API,default=http://localhost:31356"`
	Username string `env:"DASHBOARD_USER"`
	Password string `env:"DASHBOARD_PASSWORD"`
	LogFile  string `env:"DASHBOARD_LOG"`
}

func main() {
	_ = godotenv.Load()
	var cfg config
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		fmt.Println("Error:", err)
		os.Exit(1)
	}

	// the terminal belongs to the UI
	logrus.SetOutput(io.Discard)
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
		defer f.Close()
		logrus.SetOutput(f)
	}

	ctx := context.Background()
	c := client.NewWithURL(cfg.API)
	if cfg.Username != "" {
		if _, err := c.Login(ctx, cfg.Username, cfg.Password); err != nil {
			fmt.Println("Error:", err)
			os.Exit(1)
		}
	}

	p := tea.NewProgram(initialModel(ctx, c))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
