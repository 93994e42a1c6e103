// Command cli is a terminal client for a running VeriClause server. It can
// submit a contract file for analysis or hold a streaming chat session
// about it.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/vericlause/vericlause-ai/internal/client"
)

func main() {
	var (
		baseURL  = flag.String("server", "http://localhost:8080", "server base URL")
		token    = flag.String("token", os.Getenv("VERICLAUSE_TOKEN"), "bearer token")
		file     = flag.String("file", "", "path to the contract text file")
		chatMode = flag.Bool("chat", false, "start an interactive chat about the contract")
	)
	flag.Parse()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: cli -file contract.txt [-chat] [-server URL] [-token TOKEN]")
		os.Exit(2)
	}
	contract, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read contract: %v\n", err)
		os.Exit(1)
	}

	cli := client.New(*baseURL, *token)
	ctx := context.Background()

	if *chatMode {
		runChat(ctx, cli, string(contract))
		return
	}

	result, err := cli.Analyze(ctx, string(contract))
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func runChat(ctx context.Context, cli *client.Client, contract string) {
	conv := &client.Conversation{}
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	fmt.Println("Chat about the contract. Empty line exits.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			return
		}
		conv.AddUser(question)

		_, err := cli.Chat(ctx, client.ChatRequest{
			ContractText: contract,
			Messages:     conv.Messages(),
		}, func(delta string) {
			conv.AppendAssistantDelta(delta)
			fmt.Print(delta)
		})
		conv.FinishTurn(err != nil)
		fmt.Println()
		if err != nil {
			fmt.Fprintf(os.Stderr, "chat: %v\n", err)
		}
	}
}
