package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddr string `envconfig:"CHAT_SERVER_ADDR" default:"localhost:12345"`
	// CHAT_COLOURS enables colorized output for better readability
	Colours bool `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run handles the TCP client lifecycle: configuration, connection, one
// goroutine printing server lines and a prompt loop translating user input
// into wire commands.
func run() (int, error) {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := net.Dial("tcp", config.ServerAddr)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddr, err)
	}
	defer conn.Close()

	// Unblock the pending read when Ctrl+C arrives.
	stopClose := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopClose()

	fmt.Printf(">>> Connected to %s. /register, /login, /resume, /who, /history, /quit\n", config.ServerAddr)

	done := make(chan struct{})
	go func() {
		defer close(done)
		printServerLines(conn, config.Colours)
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		line := strings.TrimSpace(stdin.Text())
		if line == "" {
			continue
		}

		wire, quit := toWireCommand(line)
		if wire != "" {
			if _, err := fmt.Fprintf(conn, "%s\n", wire); err != nil {
				return exitRuntime, fmt.Errorf("connection lost: %w", err)
			}
		}
		if quit {
			break
		}
	}

	<-done
	return exitOK, nil
}

// toWireCommand maps a prompt line onto the wire protocol. Anything that
// is not a slash command is sent as a chat message.
func toWireCommand(line string) (wire string, quit bool) {
	if !strings.HasPrefix(line, "/") {
		return "MESSAGE " + line, false
	}

	verb, rest, _ := strings.Cut(line[1:], " ")
	switch verb {
	case "register":
		return "REGISTER " + rest, false
	case "login":
		return "LOGIN " + rest, false
	case "resume":
		return "RESUME " + rest, false
	case "who":
		return "WHO", false
	case "history":
		return "HISTORY", false
	case "quit":
		return "LOGOUT", true
	default:
		fmt.Printf("Unknown command: /%s\n", verb)
		return "", false
	}
}

// printServerLines renders every server line until the connection closes.
func printServerLines(conn net.Conn, colours bool) {
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		renderLine(scanner.Text(), colours)
	}
	fmt.Println("<<< Disconnected from server")
}

func renderLine(line string, colours bool) {
	verb, rest, _ := strings.Cut(line, " ")

	print := func(c color.Color, text string) {
		if colours {
			c.Println(text)
		} else {
			fmt.Println(text)
		}
	}

	switch verb {
	case "CHAT":
		author, text, _ := strings.Cut(rest, " ")
		print(color.Normal, fmt.Sprintf("%s: %s", author, text))
	case "JOINED":
		print(color.Green, fmt.Sprintf("* %s has joined", rest))
	case "LEFT":
		print(color.Yellow, fmt.Sprintf("* %s has left", rest))
	case "SERVER":
		print(color.Cyan, "SERVER: "+rest)
	case "ONLINE":
		renderOnline(rest)
	case "LOGINSUCCESS":
		print(color.Green, "Logged in. Resume token: "+rest)
	case "RESUMESUCCESS":
		print(color.Green, "Resumed session as "+rest)
	case "REGISTERSUCCESS":
		print(color.Green, "Registered. Now /login to join.")
	case "LOGINFAIL":
		print(color.Red, "Login failed")
	case "REGISTERFAIL":
		print(color.Red, "Registration failed: username taken")
	case "ERROR":
		print(color.Red, "Error: "+rest)
	case "SUBMITOPTION":
		print(color.Gray, "Server ready: please /login or /register")
	case "HISTORYBEGIN":
		print(color.Gray, "--- history ---")
	case "HISTORYEND":
		print(color.Gray, "--- end of history ---")
	case "BYE":
		print(color.Gray, "Logged out")
	default:
		fmt.Println(line)
	}
}

// renderOnline prints the WHO reply as a table.
func renderOnline(rest string) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Online users"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, username := range strings.Fields(rest) {
		table.Append([]string{username})
	}
	table.Render()
}
