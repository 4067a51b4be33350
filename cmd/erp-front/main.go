package main

import (
	"fmt"
	"os"

	"github.com/mikelcalvo/erp-front/internal/erp"
	"github.com/mikelcalvo/erp-front/internal/mockapi"
	"github.com/mikelcalvo/erp-front/internal/state"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Printf("%sError: %s%s\n", erp.Red, err, erp.Reset)
		os.Exit(1)
	}
}

var commands = map[string]bool{
	"tui": true, "ping": true, "config": true, "list": true, "show": true,
	"send": true, "confirm": true, "cancel": true, "reset": true, "bill": true,
	"pay": true, "export": true, "upload-image": true, "theme": true,
}

// run routes one command. Deferred closes always run before main exits.
func run(args []string) error {
	cmd := "tui"
	if len(args) >= 1 {
		cmd = args[0]
		args = args[1:]
	}

	// Help doesn't need config
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return nil
	}

	// Version
	if cmd == "version" || cmd == "-v" || cmd == "--version" {
		fmt.Printf("ERP Front v%s\n", erp.Version)
		fmt.Printf("Created by %s in %s\n", erp.Author, erp.Year)
		return nil
	}

	// The mock API stands in for the backend and needs no config either
	if cmd == "mock-api" {
		addr := ":8080"
		if len(args) > 0 {
			addr = args[0]
		}
		return runMockAPI(addr)
	}

	if !commands[cmd] {
		printUsage()
		return fmt.Errorf("unknown command: %s", cmd)
	}

	config, err := erp.LoadConfig()
	if err != nil {
		return err
	}

	logger, logFile, err := erp.NewLogger(config)
	if err != nil {
		return err
	}
	defer logFile.Close()

	store, err := state.Open(config.StateDB)
	if err != nil {
		return err
	}
	defer store.Close()

	session := state.NewSession()
	session.Mount(store)
	if err := session.Hydrate(); err != nil {
		erp.LogError(logger, "main", "run", "hydrate", nil, err)
	}

	client := erp.NewClient(config, logger)

	var cmdErr error
	switch cmd {
	case "tui":
		cmdErr = erp.RunTUI(client, session)
	case "ping":
		cmdErr = client.CmdPing()
	case "config":
		cmdErr = client.CmdConfig()
	case "list":
		cmdErr = client.CmdList(args)
	case "show":
		cmdErr = client.CmdShow(args)
	case "send":
		cmdErr = client.CmdTransition(erp.ActionSend, args)
	case "confirm":
		cmdErr = client.CmdTransition(erp.ActionConfirm, args)
	case "cancel":
		cmdErr = client.CmdTransition(erp.ActionCancel, args)
	case "reset":
		cmdErr = client.CmdTransition(erp.ActionReset, args)
	case "bill":
		cmdErr = client.CmdBill(args)
	case "pay":
		cmdErr = client.CmdPay(args)
	case "export":
		cmdErr = client.CmdExport(args)
	case "upload-image":
		cmdErr = client.CmdUploadImage(session, args)
	case "theme":
		cmdErr = cmdTheme(session, args)
	}

	if cmdErr != nil {
		erp.LogError(logger, "main", cmd, "command", args, cmdErr)
	}
	return cmdErr
}

func runMockAPI(addr string) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	fmt.Printf("%sMock API listening on %s%s\n", erp.Green, addr, erp.Reset)
	return mockapi.New(logger).Router().Run(addr)
}

// cmdTheme shows or sets the persisted TUI theme
func cmdTheme(session *state.Session, args []string) error {
	if len(args) == 0 {
		fmt.Printf("Theme: %s\n", session.Theme())
		return nil
	}
	switch args[0] {
	case state.ThemeDark, state.ThemeLight:
		if session.Theme() != args[0] {
			session.ToggleTheme()
		}
	default:
		return fmt.Errorf("unknown theme: %s (dark, light)", args[0])
	}
	if err := session.Flush(); err != nil {
		return err
	}
	fmt.Printf("%s✓ Theme set to %s%s\n", erp.Green, session.Theme(), erp.Reset)
	return nil
}

func printUsage() {
	fmt.Printf(`%sERP Front%s - Created by %s in %s

Usage: erp-front <command> [args...]

Without a command the terminal UI is started.

%sCommands:%s

  %stui%s                               Start the terminal UI
  %sping%s                              Test connection to the API
  %sconfig%s                            Show current configuration
  %sversion%s                           Show version information
  %stheme [dark|light]%s                Show or set the TUI theme

%sDocuments:%s
  Types: rfq, po, quotation, so, bill, invoice

  %slist <type>%s                       List documents
  %sshow <type> <id>%s                  Show a document with lines and totals
  %ssend <type> <id>%s                  Mark an RFQ or quotation as sent
  %sconfirm <type> <id>%s               Confirm an order or post an invoice
  %scancel <type> <id>%s                Cancel a document
  %sreset <type> <id>%s                 Reset a document to draft
  %sbill <po|so> <id>%s                 Create a bill or invoice from an order
  %spay <bill|invoice> <id> [--amount=X] [--journal=bank|cash]%s
                                      Register a payment
  %sexport <type> <id> [file.xlsx]%s    Export the lines to a spreadsheet

%sProducts:%s
  %supload-image <product-id> [file]%s  Resize and upload a product image

%sDevelopment:%s
  %smock-api [addr]%s                   Serve the in-memory mock API (default :8080)

%sConfiguration:%s
  Create .erp-config in the current directory or next to the binary:

    API_URL=http://localhost:8080
    MODE=development
    ERP_LOCALE=en-US
    ERP_CURRENCY=$
    ERP_STATE_DB=erp-front.db
    ERP_LOG_FILE=erp-front.log
`,
		erp.Cyan, erp.Reset, erp.Author, erp.Year,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset, erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
		erp.Green, erp.Reset,
		erp.Yellow, erp.Reset,
	)
}
