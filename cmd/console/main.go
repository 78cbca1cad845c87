// Package main is a terminal chat with the advisor for local testing.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/easeaico/finadvisor/internal/agent"
	"github.com/easeaico/finadvisor/internal/app"
	"github.com/easeaico/finadvisor/internal/config"
	"github.com/easeaico/finadvisor/internal/logging"
)

func main() {
	userID := flag.String("user", "console", "user id to chat as")
	name := flag.String("name", "", "first name used in the welcome message")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "warn"
	}
	logging.Init(cfg.Environment, cfg.LogLevel)
	if err := cfg.ValidateLLM(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize advisor: %v", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = a.Close(closeCtx)
	}()

	fmt.Println(a.Advisor.Welcome(ctx, *userID, *name))
	fmt.Println("\nComandos: /acao <id>, /pesquisar <assunto>, /resumo, /resumo_completo, /sair")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nVocê: ")
		if !scanner.Scan() || ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/sair" {
			break
		}
		fmt.Printf("\nPaulo: %s\n", respond(ctx, a.Advisor, *userID, line))
	}
	fmt.Println("\nAté logo!")
}

func respond(ctx context.Context, advisor *agent.Advisor, userID, line string) string {
	command, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch command {
	case "/resumo":
		return advisor.Summary(ctx, userID, false)
	case "/resumo_completo":
		return advisor.Summary(ctx, userID, true)
	case "/acao":
		return advisor.HandleQuickAction(ctx, userID, arg)
	case "/pesquisar":
		if arg == "" {
			return agent.AskSearchQuery
		}
		return advisor.HandleWebSearch(ctx, userID, arg)
	default:
		return advisor.HandleTurn(ctx, userID, line)
	}
}
