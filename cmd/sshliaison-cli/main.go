// Command sshliaison-cli is a line-based interactive front-end over the
// same persistent shell execution engine the stdio tool adapter exposes.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"github.com/kballard/go-shellquote"
	"github.com/kevinburke/ssh_config"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"sshliaison/registry"
)

func main() {
	reg := registry.New()
	defer reg.DisconnectAll()

	fmt.Println("sshliaison interactive shell. Type 'help' for commands.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		fields, err := shellquote.Split(scanner.Text())
		if err != nil || len(fields) == 0 {
			continue
		}

		if !dispatch(reg, fields) {
			return
		}
	}
}

func dispatch(reg *registry.Registry, fields []string) bool { //nolint:cyclop
	switch fields[0] {
	case "quit", "exit":
		return false

	case "help":
		printHelp()

	case "hosts":
		printConfiguredHosts()

	case "connect":
		if len(fields) < 2 {
			fmt.Println("usage: connect <alias>")
			break
		}
		connectWithSpinner(reg, fields[1])

	case "run":
		if len(fields) < 2 {
			fmt.Println("usage: run <host> <command...>")
			break
		}
		runCommand(reg, fields[1], strings.Join(fields[2:], " "), "")

	case "sudo":
		if len(fields) < 2 {
			fmt.Println("usage: sudo <host> <command...>")
			break
		}
		pass := promptSudoPassword()
		runCommand(reg, fields[1], strings.Join(fields[2:], " "), pass)

	case "log":
		if len(fields) < 4 {
			fmt.Println("usage: log <host> <path> <lines>")
			break
		}
		n, err := strconv.Atoi(fields[3])
		if err != nil {
			fmt.Println("lines must be a number")
			break
		}
		runCommand(reg, fields[1], fmt.Sprintf("tail -n %d %s", n, shellescape.Quote(fields[2])), "")

	case "disconnect":
		if len(fields) < 2 {
			fmt.Println("usage: disconnect <host>")
			break
		}
		if err := reg.Disconnect(fields[1]); err != nil {
			fmt.Println("error:", err)
		}

	default:
		fmt.Printf("unknown command %q, type 'help'\n", fields[0])
	}

	return true
}

func connectWithSpinner(reg *registry.Registry, alias string) {
	bar := progressbar.NewOptions(-1, progressbar.OptionSetDescription("connecting to "+alias))
	done := make(chan error, 1)
	go func() { done <- reg.ConnectByAlias(alias) }()

	for {
		select {
		case err := <-done:
			_ = bar.Finish()
			if err != nil {
				fmt.Println("error:", err)
				return
			}
			fmt.Printf("connected to %s\n", alias)
			return
		default:
			_ = bar.Add(1)
			time.Sleep(80 * time.Millisecond)
		}
	}
}

func runCommand(reg *registry.Registry, host, command, sudoPassword string) {
	out, err := reg.Execute(host, command, sudoPassword)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(out.Combined())
}

func promptSudoPassword() string {
	fmt.Print("[sudo] password: ")
	if term.IsTerminal(int(os.Stdin.Fd())) {
		pass, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return ""
		}
		return string(pass)
	}

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return ""
	}
	return scanner.Text()
}

func printHelp() {
	fmt.Println(`commands:
  connect <alias>               open a session for a ~/.ssh/config alias
  run <host> <command...>       run a command on an open session
  sudo <host> <command...>      run a command, answering one elevation prompt
  log <host> <path> <lines>     tail -n <lines> <path> on an open session
  disconnect <host>             close a session
  hosts                         list aliases declared in ~/.ssh/config
  quit                          exit`)
}

func printConfiguredHosts() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	f, err := os.Open(home + "/.ssh/config")
	if err != nil {
		fmt.Println("no ~/.ssh/config found")
		return
	}
	defer f.Close()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	seen := map[string]bool{}
	for _, host := range cfg.Hosts {
		for _, pattern := range host.Patterns {
			name := pattern.String()
			if name == "*" || seen[name] {
				continue
			}
			seen[name] = true
			fmt.Println(" ", name)
		}
	}
}
