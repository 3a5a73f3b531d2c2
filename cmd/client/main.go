package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/ruteri/dolphins-ledger-bridge/api"
	"github.com/ruteri/dolphins-ledger-bridge/api/clients"
	"github.com/urfave/cli/v2"
)

var flagServerAddr = &cli.StringFlag{
	Name:    "server-addr",
	EnvVars: []string{"BRIDGE_URL"},
	Value:   "http://127.0.0.1:8080",
	Usage:   "bridge server address",
}
var flagTimeout = &cli.DurationFlag{
	Name:  "timeout",
	Value: 60 * time.Second,
	Usage: "HTTP client timeout",
}
var flagID = &cli.StringFlag{Name: "id", Required: true, Usage: "diver id"}
var flagLevel = &cli.StringFlag{Name: "levelname", Required: true, Usage: "certification level name"}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	errColor  = color.New(color.FgRed, color.Bold)
	keyColor  = color.New(color.FgCyan)
	headColor = color.New(color.FgYellow, color.Bold)
)

func main() {
	app := &cli.App{
		Name:  "dolphins-client",
		Usage: "Record and query diver certifications through the bridge",
		Flags: []cli.Flag{flagServerAddr, flagTimeout},
		Commands: []*cli.Command{
			{
				Name:  "add-diver",
				Usage: "register a new diver",
				Flags: []cli.Flag{
					flagID,
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "bdate", Required: true, Usage: "birth date"},
					&cli.StringFlag{Name: "gender", Required: true},
					&cli.StringFlag{Name: "btype", Required: true, Usage: "blood type"},
				},
				Action: func(cCtx *cli.Context) error {
					return write(cCtx, func(ctx context.Context, c *clients.BridgeClient) error {
						return c.AddDiver(ctx, api.AddDiverRequest{
							ID:     cCtx.String("id"),
							Name:   cCtx.String("name"),
							Bdate:  cCtx.String("bdate"),
							Gender: cCtx.String("gender"),
							Btype:  cCtx.String("btype"),
						})
					})
				},
			},
			{
				Name:  "add-level",
				Usage: "start a certification level",
				Flags: []cli.Flag{
					flagID,
					flagLevel,
					&cli.StringFlag{Name: "org", Required: true, Usage: "certifying organization"},
					&cli.StringFlag{Name: "instid", Required: true, Usage: "instructor id"},
				},
				Action: func(cCtx *cli.Context) error {
					return write(cCtx, func(ctx context.Context, c *clients.BridgeClient) error {
						return c.AddLevel(ctx, api.AddLevelRequest{
							ID:        cCtx.String("id"),
							Levelname: cCtx.String("levelname"),
							Org:       cCtx.String("org"),
							Instid:    cCtx.String("instid"),
						})
					})
				},
			},
			{
				Name:  "add-course",
				Usage: "record a completed course on the current level",
				Flags: []cli.Flag{flagID, flagLevel, &cli.StringFlag{Name: "course", Required: true}},
				Action: func(cCtx *cli.Context) error {
					return write(cCtx, func(ctx context.Context, c *clients.BridgeClient) error {
						return c.AddCourse(ctx, api.AddCourseRequest{
							ID:        cCtx.String("id"),
							Levelname: cCtx.String("levelname"),
							Course:    cCtx.String("course"),
						})
					})
				},
			},
			{
				Name:  "add-test",
				Usage: "record the test result of the current level",
				Flags: []cli.Flag{flagID, flagLevel, &cli.StringFlag{Name: "status", Required: true}},
				Action: func(cCtx *cli.Context) error {
					return write(cCtx, func(ctx context.Context, c *clients.BridgeClient) error {
						return c.AddTestResult(ctx, api.AddTestResultRequest{
							ID:        cCtx.String("id"),
							Levelname: cCtx.String("levelname"),
							Status:    cCtx.String("status"),
						})
					})
				},
			},
			{
				Name:  "get-diver",
				Usage: "show a diver and their levels",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					c := newClient(cCtx)
					d, err := c.GetDiver(cCtx.Context, cCtx.String("id"))
					if err != nil {
						return report(err)
					}
					headColor.Printf("Diver %s\n", d.ID)
					printField("name", d.Name)
					printField("bdate", d.Bdate)
					printField("gender", d.Gender)
					printField("btype", d.Btype)
					for _, l := range d.Levels {
						headColor.Printf("  Level %s (%s)\n", l.Levelname, l.Status)
						printField("  org", l.Org)
						printField("  instid", l.Instid)
						printField("  courses", strings.Join(l.Courses, ", "))
					}
					return nil
				},
			},
			{
				Name:  "history",
				Usage: "show every committed version of a diver record",
				Flags: []cli.Flag{flagID},
				Action: func(cCtx *cli.Context) error {
					c := newClient(cCtx)
					entries, err := c.GetHistory(cCtx.Context, cCtx.String("id"))
					if err != nil {
						return report(err)
					}
					for _, e := range entries {
						headColor.Printf("%s %s\n", e.Timestamp.Format(time.RFC3339), e.TxID)
						if e.IsDelete {
							fmt.Println("  (deleted)")
							continue
						}
						fmt.Printf("  %s\n", string(e.Value))
					}
					return nil
				},
			},
			{
				Name:  "operations",
				Usage: "list operations accepted by the bridge",
				Action: func(cCtx *cli.Context) error {
					c := newClient(cCtx)
					ops, err := c.Operations(cCtx.Context)
					if err != nil {
						return report(err)
					}
					out, err := json.MarshalIndent(ops, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newClient(cCtx *cli.Context) *clients.BridgeClient {
	return clients.NewBridgeClient(cCtx.String(flagServerAddr.Name), cCtx.Duration(flagTimeout.Name))
}

func write(cCtx *cli.Context, fn func(context.Context, *clients.BridgeClient) error) error {
	if err := fn(cCtx.Context, newClient(cCtx)); err != nil {
		return report(err)
	}
	okColor.Println("Transaction has been submitted")
	return nil
}

func printField(key, value string) {
	keyColor.Printf("  %-8s ", key+":")
	fmt.Println(value)
}

func report(err error) error {
	var apiErr *clients.APIError
	if errors.As(err, &apiErr) {
		errColor.Fprintf(os.Stderr, "%s (%d): %s\n", apiErr.Code, apiErr.StatusCode, apiErr.Message)
		return cli.Exit("", 1)
	}
	errColor.Fprintf(os.Stderr, "request failed: %v\n", err)
	return cli.Exit("", 1)
}
