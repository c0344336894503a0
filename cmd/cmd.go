package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/mzeryck/widgetsched/cmd/common"
	shared "github.com/mzeryck/widgetsched/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var build BuildArgs

var globalFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "schedule, n",
		Usage:  "name of the schedule to use",
		EnvVar: shared.ScheduleEnv,
	},
	cli.StringFlag{
		Name:   "documents",
		Usage:  "directory holding widget sources",
		EnvVar: shared.DocumentsEnv,
	},
	cli.StringFlag{
		Name:   "config",
		Usage:  "path of the config file",
		EnvVar: shared.ConfigEnv,
	},
	cli.BoolFlag{
		Name:   "debug",
		Usage:  "log debug output to stderr",
		EnvVar: shared.DebugEnv,
	},
}

var yesFlag = cli.BoolFlag{
	Name:  "yes, y",
	Usage: "accept every confirmation",
}

func Execute(args []string, bArgs BuildArgs) error {
	return newApp(bArgs).Run(args)
}

func newApp(bArgs BuildArgs) *cli.App {
	build = bArgs
	app := cli.NewApp()
	app.Name = "widgetsched"
	app.HelpName = "widgetsched"
	app.Usage = "show a different widget at different times of the day"
	app.Version = fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType)
	app.UsageText = "widgetsched [global options] <command> [arguments...]"
	app.Description = DESCRIPTION
	app.CustomAppHelpTemplate = HELP_TEMPL
	app.OnUsageError = common.UsageErrorCallback
	app.Flags = globalFlags
	app.HideHelp = true
	app.HideVersion = true
	app.Action = show
	app.Commands = []cli.Command{
		{
			Name:               "setup",
			Usage:              "create the schedule and pick its default widget",
			UsageText:          "setup [widget]",
			Description:        SetupDescription,
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             setup,
			Flags:              []cli.Flag{yesFlag},
		},
		{
			Name:               "show",
			Aliases:            []string{"s"},
			Usage:              "print the schedule",
			Description:        ShowDescription,
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             show,
		},
		editCmd("add", "schedule a widget for a time range", "[widget [start [end]]]", AddDescription, addEdit),
		editCmd("start", "move the start time of an entry", "<row> [time]", StartDescription, startEdit),
		editCmd("end", "move the end time of an entry", "<row> [time]", EndDescription, endEdit),
		editCmd("delete", "remove an entry", "<row>", DeleteDescription, deleteEdit),
		editCmd("change", "change the widget of a row", "<row> [widget]", ChangeDescription, changeEdit),
		editCmd("default", "change the default widget", "[widget]", DefaultDescription, defaultEdit),
		{
			Name:               "widgets",
			Aliases:            []string{"w"},
			Usage:              "list the widgets that can be scheduled",
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             widgets,
		},
		{
			Name:               "current",
			Aliases:            []string{"c"},
			Usage:              "print the widget scheduled now",
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             current,
			Flags:              []cli.Flag{atFlag},
		},
		{
			Name:               "render",
			Aliases:            []string{"r"},
			Usage:              "run the scheduled widget",
			UsageText:          "render [widget]",
			Description:        RenderDescription,
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             render,
			Flags:              []cli.Flag{atFlag, jsonFlag},
		},
		{
			Name:               "update",
			Usage:              "download the latest launcher script",
			Description:        UpdateDescription,
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             updateLauncher,
		},
		{
			Name:               "serve",
			Usage:              "render on schedule and serve JSON-RPC",
			Description:        ServeDescription,
			CustomHelpTemplate: CMD_HELP_TEMPL,
			OnUsageError:       common.UsageErrorCallback,
			Action:             serve,
			Flags:              serveFlags,
		},
		{
			Name:    "help",
			Aliases: []string{"h"},
			Usage:   "prints the help message",
			Action:  common.Help,
		},
		{
			Name:               "version",
			Aliases:            []string{"v"},
			Usage:              "prints installed version of widgetsched",
			UsageText:          " ",
			CustomHelpTemplate: CMD_HELP_TEMPL,
			Action:             common.GetVersion,
		},
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app
}

func editCmd(name, usage, args, desc string, fn editFunc) cli.Command {
	return cli.Command{
		Name:               name,
		Usage:              usage,
		UsageText:          name + " " + args,
		Description:        desc,
		CustomHelpTemplate: CMD_HELP_TEMPL,
		OnUsageError:       common.UsageErrorCallback,
		Action:             editAction(name, fn),
		Flags:              []cli.Flag{yesFlag},
	}
}
