// Command sshliaison-mcp exposes the persistent shell execution engine's
// three (plus two supplementary) tool operations over a newline-delimited
// JSON-over-stdio request/response protocol.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"sshliaison/internal/stdiorpc"
	"sshliaison/log"
	"sshliaison/registry"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("SSHLIAISON_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger := slog.New(handler)

	reg := registry.New()
	log.InjectLogger(logger, reg)

	srv := stdiorpc.NewServer()
	registerTools(srv, reg)

	if err := srv.Serve(os.Stdin, os.Stdout); err != nil {
		logger.Error("stdio server terminated", log.KeyError, err.Error())
		os.Exit(1)
	}

	reg.DisconnectAll()
}

func registerTools(srv *stdiorpc.Server, reg *registry.Registry) {
	srv.Register("ssh_connect", func(params json.RawMessage) (string, error) {
		var in struct {
			HostAlias string `json:"host_alias"`
		}
		if err := json.Unmarshal(params, &in); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
		if err := reg.ConnectByAlias(in.HostAlias); err != nil {
			return "", err
		}
		return fmt.Sprintf("connected to %s", in.HostAlias), nil
	})

	srv.Register("ssh_run_command", func(params json.RawMessage) (string, error) {
		var in struct {
			Host         string `json:"host"`
			Command      string `json:"command"`
			SudoPassword string `json:"sudo_password"`
		}
		if err := json.Unmarshal(params, &in); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
		out, err := reg.Execute(in.Host, in.Command, in.SudoPassword)
		if err != nil {
			return "", err
		}
		return out.Combined(), nil
	})

	srv.Register("ssh_read_log", func(params json.RawMessage) (string, error) {
		var in struct {
			Host     string `json:"host"`
			FilePath string `json:"file_path"`
			Lines    int    `json:"lines"`
		}
		if err := json.Unmarshal(params, &in); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
		command := fmt.Sprintf("tail -n %d %s", in.Lines, in.FilePath)
		out, err := reg.Execute(in.Host, command, "")
		if err != nil {
			return "", err
		}
		return out.Combined(), nil
	})

	srv.Register("ssh_disconnect", func(params json.RawMessage) (string, error) {
		var in struct {
			Host string `json:"host"`
		}
		if err := json.Unmarshal(params, &in); err != nil {
			return "", fmt.Errorf("decode params: %w", err)
		}
		if err := reg.Disconnect(in.Host); err != nil {
			return "", err
		}
		return fmt.Sprintf("disconnected %s", in.Host), nil
	})

	srv.Register("ssh_list_sessions", func(_ json.RawMessage) (string, error) {
		aliases := reg.List()
		data, err := json.Marshal(aliases)
		if err != nil {
			return "", fmt.Errorf("encode session list: %w", err)
		}
		return string(data), nil
	})
}
