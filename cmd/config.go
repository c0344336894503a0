package cmd

const DESCRIPTION = `
widgetsched shows a different widget at different times of the day.
A schedule splits the day into half-hour slots, each showing a widget
of your choice, and falls back to a default widget for the rest.
`

const HELP_TEMPL = `Usage: {{if .UsageText}}{{.UsageText}}{{else}}{{.HelpName}} {{if .VisibleFlags}}[global options]{{end}}{{if .Commands}} command [command options]{{end}} {{if .ArgsUsage}}{{.ArgsUsage}}{{else}}[arguments...]{{end}}{{end}}
{{.Description}}{{if .VisibleCommands}}
Commands:{{range .VisibleCategories}}{{if .Name}}

{{.Name}}:{{range .VisibleCommands}}
  {{join .Names ", "}}{{"\t"}}{{.Usage}}{{end}}{{else}}{{range .VisibleCommands}}
{{"\t"}}{{index .Names 0}}{{"\t:\t"}}{{.Usage}}{{end}}{{end}}{{end}}{{end}}{{if .VisibleFlags}}

Global Options:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

Use "{{.HelpName}} help <command>" for more information about any command.

`

const CMD_HELP_TEMPL = `{{if .Description}}{{.Description}}{{else}}{{.HelpName}} - {{.Usage}}

{{end}}Usage:
        {{.HelpName}} {{if .UsageText}}{{.UsageText}}{{else}}[arguments...]{{end}}{{if .VisibleFlags}}

Supported Flags:{{range .VisibleFlags}}
  {{.}}{{end}}{{end}}

`

const (
	SetupDescription = `The setup command creates the schedule and asks for the
widget shown whenever nothing else is scheduled. It also
writes the launcher script next to your widgets.

Example:
        widgetsched setup Clock

`
	ShowDescription = `The show command prints the schedule. Row numbers are
used by the start, end, delete and change commands, and
the row scheduled right now is marked with "*".

Example:
        widgetsched show

`
	AddDescription = `The add command schedules a widget between two times.
Times are HH:MM on a half hour, the end time is exclusive
and may be 24:00. Anything left out is asked for.

Example:
        widgetsched add News 9:00 10:30

`
	StartDescription = `The start command moves the start time of a row.

Example:
        widgetsched start 2 8:30

`
	EndDescription = `The end command moves the end time of a row.

Example:
        widgetsched end 2 11:00

`
	DeleteDescription = `The delete command removes a row from the schedule.

Example:
        widgetsched delete 2

`
	ChangeDescription = `The change command swaps the widget of a row. Row 0 is
the default widget.

Example:
        widgetsched change 2 Weather

`
	DefaultDescription = `The default command changes the widget shown when no
other widget is scheduled.

Example:
        widgetsched default Clock

`
	RenderDescription = `The render command runs the widget scheduled now, or
the named widget, and prints what it produced. Widgets
are compiled once and recompiled only when they change.

Example:
        widgetsched render
        widgetsched render --at 9:30

`
	UpdateDescription = `The update command downloads the latest launcher script
and replaces the local copy. The schedule is not touched.

Example:
        widgetsched update

`
	ServeDescription = `The serve command keeps running in the foreground. It
renders the scheduled widget at every half hour, reloads
when widgets or the schedule change, and answers JSON-RPC
requests over HTTP and WebSocket when a secret is set.

Example:
        WIDGETSCHED_RPC_SECRET=s3cret widgetsched serve

`
)
