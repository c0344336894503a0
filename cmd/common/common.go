// Package common provides the helpers shared by widgetsched commands:
// help and version output, usage and runtime error reporting, and text
// padding for tables.
package common

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
)

// VersionCmdStr is printed by the version command. Execute fills it in
// from build information.
var VersionCmdStr string

var (
	showAppHelpAndExit = cli.ShowAppHelpAndExit
	showCommandHelp    = cli.ShowCommandHelp
)

// Writer returns where ctx's app prints, stdout when unset.
func Writer(ctx *cli.Context) io.Writer {
	if ctx != nil && ctx.App != nil && ctx.App.Writer != nil {
		return ctx.App.Writer
	}
	return os.Stdout
}

// Help shows the application help, or the help of the command named by
// the first argument.
func Help(ctx *cli.Context) error {
	arg := ctx.Args().First()
	if arg == "" || arg == "help" {
		fmt.Fprintf(Writer(ctx), "%s %s\n", ctx.App.Name, ctx.App.Version)
		showAppHelpAndExit(ctx, 0)
		return nil
	}
	err := showCommandHelp(ctx, arg)
	if err != nil {
		return err
	}
	return PrintErrWithHelp(ctx, err)
}

func GetVersion(ctx *cli.Context) error {
	fmt.Fprintln(Writer(ctx), VersionCmdStr)
	return nil
}

// PrintRuntimeErr prints err as "<app>: <cmd>[<action>]: <msg>". ctx may
// be nil, in which case the name comes from os.Args[0].
func PrintRuntimeErr(ctx *cli.Context, cmd, action string, err error) {
	w := Writer(ctx)
	if err == nil {
		fmt.Fprintln(w, "err is nil", "[", cmd, "|", action, "]")
		return
	}
	var name string
	if ctx != nil {
		name = ctx.App.HelpName
	} else {
		name = os.Args[0]
	}
	fmt.Fprintf(w, "%s: %s[%s]: %s\n", name, cmd, action, err.Error())
}

func PrintErrWithCmdHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			err := showCommandHelp(ctx, ctx.Command.Name)
			if err != nil {
				fmt.Fprintln(Writer(ctx), err.Error())
			}
		},
	)
}

func PrintErrWithHelp(ctx *cli.Context, err error) error {
	return printErrWithCallback(
		ctx,
		err,
		func() {
			showAppHelpAndExit(ctx, 1)
		},
	)
}

func printErrWithCallback(ctx *cli.Context, err error, callback func()) error {
	if err == nil {
		return nil
	}
	estr := strings.ToLower(err.Error())
	if estr == "flag: help requested" {
		return Help(ctx)
	}
	if strings.Contains(estr, "-version") {
		return GetVersion(ctx)
	}
	fmt.Fprintf(Writer(ctx), "%s: %s\n\n", ctx.App.HelpName, err.Error())
	callback()
	return nil
}

// UsageErrorCallback is the OnUsageError hook for the app and its
// commands.
func UsageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	if ctx.Command.Name != "" {
		return PrintErrWithCmdHelp(ctx, err)
	}
	return PrintErrWithHelp(ctx, err)
}

// Beaut centers s in a field of width n.
func Beaut(s string, n int) (b string) {
	n1 := len(s)
	x := n - n1
	x1 := x / 2
	w := string(
		replic(' ', x1),
	)
	b = w
	b += s
	b += w
	if x%2 != 0 {
		b += " "
	}
	return
}

// Pad left-aligns s in a field of width n, truncating with "..." when s
// does not fit.
func Pad(s string, n int) string {
	switch {
	case len(s) > n && n > 3:
		return s[:n-3] + "..."
	case len(s) < n:
		return s + string(replic(' ', n-len(s)))
	}
	return s
}

func replic[aT any](v aT, n int) []aT {
	a := make([]aT, n)
	for i := range a {
		a[i] = v
	}
	return a
}
